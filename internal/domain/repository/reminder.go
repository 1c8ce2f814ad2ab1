package repository

import (
	"context"
	"mealreminder/internal/domain/entity"
)

// ReminderRepository defines the per-user reminder collection.
type ReminderRepository interface {
	// List retrieves the user's reminder documents in stored order.
	List(ctx context.Context, userID string) ([]*entity.ReminderDocument, error)
	// ReplaceAll atomically deletes every document of the user and writes docs
	// in order. Documents with an ID keep it; the rest get a new one. The
	// returned ids correspond positionally to docs.
	ReplaceAll(ctx context.Context, userID string, docs []*entity.ReminderDocument) ([]string, error)
	// ListUserIDs retrieves every user that has at least one stored reminder.
	ListUserIDs(ctx context.Context) ([]string, error)
}
