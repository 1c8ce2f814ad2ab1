package service

import (
	"context"
	"errors"
	"fmt"
	"mealreminder/internal/domain/entity"
	"mealreminder/internal/domain/repository"
	appErrors "mealreminder/internal/pkg/errors"
	"mealreminder/internal/pkg/logger"
)

// UserService is the authentication collaborator: it knows which user is
// signed in on the device and whether they allowed notifications.
type UserService interface {
	PermissionSource
	// GetOrCreateUser finds a user by ID or creates a new one if not found.
	GetOrCreateUser(ctx context.Context, userID string) (*entity.User, error)
	// GetUser finds a user by ID. Returns ErrUserNotFound if not found.
	GetUser(ctx context.Context, userID string) (*entity.User, error)
	// SetNotificationPermission records the device permission for the user.
	SetNotificationPermission(ctx context.Context, userID string, granted bool) (*entity.User, error)
	// DeleteUser removes the user's session record and stored reminders.
	DeleteUser(ctx context.Context, userID string) error
}

type userService struct {
	userRepo     repository.UserRepository
	reminderRepo repository.ReminderRepository // Needed for deleting reminders with the account
	log          logger.Logger
}

// NewUserService creates a new instance of UserService implementation.
func NewUserService(userRepo repository.UserRepository, reminderRepo repository.ReminderRepository, log logger.Logger) UserService {
	return &userService{
		userRepo:     userRepo,
		reminderRepo: reminderRepo,
		log:          log,
	}
}

func (s *userService) GetOrCreateUser(ctx context.Context, userID string) (*entity.User, error) {
	user, err := s.userRepo.FindByUserID(ctx, userID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, appErrors.ErrUserNotFound) {
		s.log.Error(fmt.Sprintf("Failed to find user %s", userID), err)
		return nil, fmt.Errorf("%w: %v", appErrors.ErrDatabaseOperation, err)
	}

	s.log.Info(fmt.Sprintf("User %s not found, creating new user.", userID))
	user = &entity.User{ID: userID}
	if err := s.userRepo.Save(ctx, user); err != nil {
		s.log.Error("Failed to create user", err)
		return nil, fmt.Errorf("%w: %v", appErrors.ErrDatabaseOperation, err)
	}
	return user, nil
}

func (s *userService) GetUser(ctx context.Context, userID string) (*entity.User, error) {
	user, err := s.userRepo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, appErrors.ErrUserNotFound) {
			return nil, appErrors.ErrUserNotFound
		}
		s.log.Error(fmt.Sprintf("Failed to get user %s", userID), err)
		return nil, fmt.Errorf("%w: %v", appErrors.ErrDatabaseOperation, err)
	}
	return user, nil
}

func (s *userService) SetNotificationPermission(ctx context.Context, userID string, granted bool) (*entity.User, error) {
	user, err := s.GetOrCreateUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.NotificationsAllowed = granted
	if err := s.userRepo.Save(ctx, user); err != nil {
		s.log.Error(fmt.Sprintf("Failed to update notification permission for user %s", userID), err)
		return nil, fmt.Errorf("%w: %v", appErrors.ErrDatabaseOperation, err)
	}
	s.log.Info(fmt.Sprintf("Notification permission for user %s set to %t", userID, granted))
	return user, nil
}

// NotificationsAllowed reports false for unknown users.
func (s *userService) NotificationsAllowed(ctx context.Context, userID string) (bool, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, appErrors.ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.NotificationsAllowed, nil
}

func (s *userService) DeleteUser(ctx context.Context, userID string) error {
	// Delete reminders first
	if _, err := s.reminderRepo.ReplaceAll(ctx, userID, nil); err != nil {
		// Log error but continue to delete user session if possible
		s.log.Error(fmt.Sprintf("Failed to delete reminders for user %s", userID), err)
	} else {
		s.log.Info(fmt.Sprintf("Deleted reminders for user %s.", userID))
	}

	if err := s.userRepo.Delete(ctx, userID); err != nil {
		s.log.Error(fmt.Sprintf("Failed to delete user session for user %s", userID), err)
		return fmt.Errorf("%w: %v", appErrors.ErrDatabaseOperation, err)
	}
	s.log.Info(fmt.Sprintf("Deleted user session for user %s.", userID))
	return nil
}
