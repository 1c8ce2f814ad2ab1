package config

import (
	"github.com/knadh/koanf/providers/confmap"
)

func DefaultConfig() map[string]interface{} {
	return map[string]interface{}{
		"server": map[string]interface{}{
			"port": 8080,
		},
		"database": map[string]interface{}{
			"path":      "reminder.db",
			"log_level": "warn",
		},
		"log": map[string]interface{}{
			"level": "info",
		},
		"line": map[string]interface{}{
			"channel_secret":       "",
			"channel_access_token": "",
		},
		"reminder": map[string]interface{}{
			"timezone":          "",
			"notification_body": "食事を記録する時間です",
			"owned_prefix":      "reminders/",
		},
	}
}

func NewDefaultProvider() *confmap.Confmap {
	return confmap.Provider(DefaultConfig(), ".")
}
