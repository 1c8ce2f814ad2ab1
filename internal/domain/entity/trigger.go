package entity

import "time"

// Trigger is a recurring daily alarm registered with the device scheduler.
type Trigger struct {
	ID     string // scheduler-side id, unique across the device
	UserID string
	Hour   int
	Minute int
	Title  string
	Body   string
}

// Notification is what a trigger hands to the delivery channel when it fires.
type Notification struct {
	TriggerID string
	UserID    string
	Title     string
	Body      string
	FiredAt   time.Time
}
