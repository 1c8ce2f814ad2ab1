package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"mealreminder/internal/application/dto"
	"mealreminder/internal/domain/constant"
	"mealreminder/internal/domain/entity"
	appErrors "mealreminder/internal/pkg/errors"
	"mealreminder/internal/pkg/logger"
)

// ReminderService exposes the reminder sessions of every signed-in user.
// Each user gets their own SyncEngine; nothing is shared between users.
type ReminderService interface {
	// Load replaces the user's working set with the stored reminders.
	Load(ctx context.Context, userID string) ([]dto.ReminderResponse, error)
	// List returns the user's working set and session state.
	List(userID string) (dto.ReminderListResponse, error)
	// Add appends a new, uncommitted reminder.
	Add(userID string, req dto.CreateReminderRequest) (dto.ReminderResponse, error)
	// Edit patches a reminder in the working set.
	Edit(userID string, id entity.ReminderID, req dto.EditReminderRequest) error
	// Toggle flips a reminder's enabled flag in the working set.
	Toggle(userID string, id entity.ReminderID) error
	// Remove drops a reminder from the working set.
	Remove(userID string, id entity.ReminderID) error
	// Commit saves the working set and rebuilds the user's triggers.
	Commit(ctx context.Context, userID string) (*dto.CommitResult, error)
	// Logout clears the user's session and cancels their triggers.
	Logout(ctx context.Context, userID string) error
	// RestoreSchedules re-creates triggers for every user with stored reminders.
	RestoreSchedules(ctx context.Context) error
}

type reminderService struct {
	engineCfg SyncEngineConfig
	log       logger.Logger

	mu      sync.Mutex
	engines map[string]*SyncEngine
}

// NewReminderService creates a session registry building engines from cfg.
func NewReminderService(cfg SyncEngineConfig) ReminderService {
	return &reminderService{
		engineCfg: cfg,
		log:       cfg.Log,
		engines:   make(map[string]*SyncEngine),
	}
}

func (s *reminderService) engine(userID string) (*SyncEngine, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id must not be empty", appErrors.ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.engines[userID]
	if !ok {
		e = NewSyncEngine(s.engineCfg)
		s.engines[userID] = e
		s.log.Debug(fmt.Sprintf("Created reminder session for user %s", userID))
	}
	return e, nil
}

func (s *reminderService) Load(ctx context.Context, userID string) ([]dto.ReminderResponse, error) {
	e, err := s.engine(userID)
	if err != nil {
		return nil, err
	}
	reminders, err := e.Load(ctx, userID)
	return dto.ToReminderResponseList(reminders), err
}

func (s *reminderService) List(userID string) (dto.ReminderListResponse, error) {
	e, err := s.engine(userID)
	if err != nil {
		return dto.ReminderListResponse{}, err
	}
	return dto.ReminderListResponse{
		State:     e.State().String(),
		Reminders: dto.ToReminderResponseList(e.Reminders()),
	}, nil
}

func (s *reminderService) Add(userID string, req dto.CreateReminderRequest) (dto.ReminderResponse, error) {
	e, err := s.engine(userID)
	if err != nil {
		return dto.ReminderResponse{}, err
	}
	t, err := entity.ParseTimeOfDay(req.Time)
	if err != nil {
		return dto.ReminderResponse{}, err
	}
	r, err := e.Add(req.Name, t)
	if err != nil {
		return dto.ReminderResponse{}, err
	}
	return dto.ToReminderResponse(r), nil
}

func (s *reminderService) Edit(userID string, id entity.ReminderID, req dto.EditReminderRequest) error {
	e, err := s.engine(userID)
	if err != nil {
		return err
	}
	patch, err := req.ToPatch()
	if err != nil {
		return err
	}
	return e.Edit(id, patch)
}

func (s *reminderService) Toggle(userID string, id entity.ReminderID) error {
	e, err := s.engine(userID)
	if err != nil {
		return err
	}
	return e.Toggle(id)
}

func (s *reminderService) Remove(userID string, id entity.ReminderID) error {
	e, err := s.engine(userID)
	if err != nil {
		return err
	}
	return e.Remove(id)
}

func (s *reminderService) Commit(ctx context.Context, userID string) (*dto.CommitResult, error) {
	e, err := s.engine(userID)
	if err != nil {
		return nil, err
	}
	return e.Commit(ctx, userID)
}

// Logout closes the user's engine and forgets it. The service lock is held
// throughout so no request can fetch the engine between the close and the
// delete; a request that fetched it earlier gets ErrSessionEnded.
func (s *reminderService) Logout(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: user id must not be empty", appErrors.ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.engines[userID]
	if !ok {
		// No session, but triggers restored at startup may still exist.
		e = NewSyncEngine(s.engineCfg)
	}
	if err := e.Close(ctx, userID); err != nil {
		return err
	}
	delete(s.engines, userID)
	s.log.Debug(fmt.Sprintf("Closed reminder session for user %s", userID))
	return nil
}

func (s *reminderService) RestoreSchedules(ctx context.Context) error {
	s.log.Info("Restoring reminder schedules from the store...")
	userIDs, err := s.engineCfg.Remote.ListUserIDs(ctx)
	if err != nil {
		s.log.Error("Failed to list users with reminders", err)
		return fmt.Errorf("%w: %v", appErrors.ErrRemoteUnavailable, err)
	}

	restored := 0
	for _, userID := range userIDs {
		e, err := s.engine(userID)
		if err != nil {
			continue
		}
		// A session that is already editing keeps its working set.
		if e.State() != constant.StateUninitialized {
			continue
		}
		if _, err := e.Load(ctx, userID); err != nil {
			continue
		}
		if _, err := e.Reschedule(ctx, userID); err != nil {
			if errors.Is(err, appErrors.ErrPermissionDenied) {
				s.log.Debug(fmt.Sprintf("Skipping triggers for user %s: notifications not allowed", userID))
				continue
			}
			s.log.Error(fmt.Sprintf("Failed to restore triggers for user %s", userID), err)
			continue
		}
		restored++
	}

	s.log.Info(fmt.Sprintf("Schedule restoration complete. Users restored: %d of %d", restored, len(userIDs)))
	return nil
}
