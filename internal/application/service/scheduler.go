package service

import (
	"context"
	"mealreminder/internal/domain/entity"
)

// LocalScheduler is the device notification scheduler consumed by the sync engine.
// Every call may fail on its own; callers treat failures as best-effort.
type LocalScheduler interface {
	// ScheduleDaily registers a recurring trigger under t.ID.
	ScheduleDaily(ctx context.Context, t entity.Trigger) error
	// Cancel removes the trigger under id; no-op if absent.
	Cancel(ctx context.Context, id string) error
	// CancelAll removes every trigger on the device, not only this feature's.
	CancelAll(ctx context.Context) error
	// ScheduledIDs lists every registered trigger id.
	ScheduledIDs(ctx context.Context) ([]string, error)
}

// PermissionSource reports whether the user allowed local notifications.
type PermissionSource interface {
	NotificationsAllowed(ctx context.Context, userID string) (bool, error)
}
