package sqlite

import (
	"context"
	"errors"
	"fmt"
	"mealreminder/internal/domain/entity"
	"mealreminder/internal/domain/repository"
	appErrors "mealreminder/internal/pkg/errors"

	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &userRepository{db: db}
}

// FindByUserID returns appErrors.ErrUserNotFound when no row exists.
func (r *userRepository) FindByUserID(ctx context.Context, userID string) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", appErrors.ErrUserNotFound, userID)
		}
		return nil, fmt.Errorf("🔴 ERROR: failed to find user by user_id %s: %w", userID, err)
	}
	return &user, nil
}

// Save inserts or updates the user, including zero-valued fields.
func (r *userRepository) Save(ctx context.Context, user *entity.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return fmt.Errorf("🔴 ERROR: failed to save user %s: %w", user.ID, err)
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, userID string) error {
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&entity.User{}).Error; err != nil {
		return fmt.Errorf("🔴 ERROR: failed to delete user %s: %w", userID, err)
	}
	return nil
}
