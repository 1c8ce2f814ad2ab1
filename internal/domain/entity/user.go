package entity

import "time"

// User represents the authenticated account on this device.
type User struct {
	ID                   string    `gorm:"column:user_id;primaryKey"`
	NotificationsAllowed bool      `gorm:"column:notifications_allowed"` // Local notification permission as reported by the device
	UpdatedAt            time.Time `gorm:"column:updated_at"`
}

// TableName specifies the table name for the User entity.
func (User) TableName() string {
	return "user_session"
}
