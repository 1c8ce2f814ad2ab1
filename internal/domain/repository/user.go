package repository

import (
	"context"
	"mealreminder/internal/domain/entity"
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	// FindByUserID retrieves a user by their account ID.
	FindByUserID(ctx context.Context, userID string) (*entity.User, error)
	// Save creates the user or overwrites the stored row.
	Save(ctx context.Context, user *entity.User) error
	// Delete deletes a user session by their account ID.
	Delete(ctx context.Context, userID string) error
}
