package entity

import (
	"fmt"
	"slices"
	"strings"
	"time"

	appErrors "mealreminder/internal/pkg/errors"
)

// Reminder is a named daily notification owned by one user.
type Reminder struct {
	ID      ReminderID `json:"id"`
	Name    string     `json:"name"`
	Time    TimeOfDay  `json:"time"`
	Enabled bool       `json:"enabled"`
}

// CreateLocal builds an enabled reminder with a fresh local id.
func CreateLocal(name string, t TimeOfDay) (*Reminder, error) {
	clean, err := validateName(name)
	if err != nil {
		return nil, err
	}
	if !t.Valid() {
		return nil, fmt.Errorf("%w: time %s is out of range", appErrors.ErrValidation, t)
	}
	return &Reminder{
		ID:      NewLocalID(),
		Name:    clean,
		Time:    t,
		Enabled: true,
	}, nil
}

func validateName(name string) (string, error) {
	clean := strings.TrimSpace(name)
	if clean == "" {
		return "", fmt.Errorf("%w: name must not be empty", appErrors.ErrValidation)
	}
	return clean, nil
}

// Schedulable reports whether the reminder should own an active trigger.
func (r *Reminder) Schedulable() bool {
	return r.Enabled && r.Time.Valid()
}

// ReminderPatch carries optional field updates. Nil fields are left alone.
type ReminderPatch struct {
	Name    *string
	Time    *TimeOfDay
	Enabled *bool
}

// Apply validates the whole patch before touching r.
func (r *Reminder) Apply(p ReminderPatch) error {
	name := r.Name
	if p.Name != nil {
		clean, err := validateName(*p.Name)
		if err != nil {
			return err
		}
		name = clean
	}
	if p.Time != nil && !p.Time.Valid() {
		return fmt.Errorf("%w: time %s is out of range", appErrors.ErrValidation, *p.Time)
	}

	r.Name = name
	if p.Time != nil {
		r.Time = *p.Time
	}
	if p.Enabled != nil {
		r.Enabled = *p.Enabled
	}
	return nil
}

// SortByTime orders reminders by time of day, keeping ties in their current order.
func SortByTime(reminders []*Reminder) {
	slices.SortStableFunc(reminders, func(a, b *Reminder) int {
		return a.Time.Compare(b.Time)
	})
}

// ReminderDocument is the persisted form of a reminder: one row per reminder
// in the owning user's collection, with the time stored as a timestamp.
type ReminderDocument struct {
	ID        string    `gorm:"column:id;primaryKey"`
	UserID    string    `gorm:"column:user_id;index"`
	Position  int       `gorm:"column:position"`
	Name      string    `gorm:"column:name;type:text"`
	Enabled   bool      `gorm:"column:enabled"`
	Time      time.Time `gorm:"column:time"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName specifies the table name for the ReminderDocument entity.
func (ReminderDocument) TableName() string {
	return "reminder_document"
}
