package config

import (
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // zone database for hosts without one

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix for environment overrides. A double underscore
// separates nesting levels: REMINDER_SERVER__PORT -> server.port.
const EnvPrefix = "REMINDER_"

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Log      LogConfig      `koanf:"log"`
	Line     LineConfig     `koanf:"line"`
	Reminder ReminderConfig `koanf:"reminder"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
}

type DatabaseConfig struct {
	Path     string `koanf:"path"`
	LogLevel string `koanf:"log_level"` // silent, error, warn, info
}

type LogConfig struct {
	Level string `koanf:"level"`
}

type LineConfig struct {
	ChannelSecret      string `koanf:"channel_secret"`
	ChannelAccessToken string `koanf:"channel_access_token"`
}

// Enabled reports whether both LINE credentials are present.
func (c LineConfig) Enabled() bool {
	return c.ChannelSecret != "" && c.ChannelAccessToken != ""
}

type ReminderConfig struct {
	Timezone         string `koanf:"timezone"`          // IANA name; wall-clock times are interpreted here
	NotificationBody string `koanf:"notification_body"` // body text of every reminder notification
	OwnedPrefix      string `koanf:"owned_prefix"`      // trigger id namespace owned by the reminder feature
}

// Load reads defaults, then the optional YAML file at configPath, then
// environment variables. Later sources win.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(NewDefaultProvider(), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file: %w", err)
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// Plain variable names used by earlier deployments.
	legacy := map[string]string{
		"PORT":                 "server.port",
		"BLUEPRINT_DB_URL":     "database.path",
		"CHANNEL_SECRET":       "line.channel_secret",
		"CHANNEL_ACCESS_TOKEN": "line.channel_access_token",
	}
	for name, key := range legacy {
		if v := os.Getenv(name); v != "" {
			if err := k.Set(key, v); err != nil {
				return nil, fmt.Errorf("failed to apply %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Reminder.OwnedPrefix == "" {
		return fmt.Errorf("reminder.owned_prefix must not be empty")
	}
	return nil
}

// Location resolves reminder.timezone. An empty value means the host's local zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Reminder.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Reminder.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid reminder.timezone %q: %w", c.Reminder.Timezone, err)
	}
	return loc, nil
}
