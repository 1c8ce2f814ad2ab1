package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"mealreminder/internal/application/dto"
	"mealreminder/internal/domain/constant"
	"mealreminder/internal/domain/entity"
	"mealreminder/internal/domain/repository"
	appErrors "mealreminder/internal/pkg/errors"
	"mealreminder/internal/pkg/logger"
)

// SyncEngineConfig holds the collaborators of a SyncEngine.
type SyncEngineConfig struct {
	Remote           repository.ReminderRepository
	Scheduler        LocalScheduler
	Permissions      PermissionSource // nil allows notifications unconditionally
	OwnedPrefix      string           // trigger id namespace owned by reminders
	NotificationBody string
	Log              logger.Logger
}

// SyncEngine keeps one user's reminders consistent across the in-memory
// working set, the remote store and the device scheduler.
//
// Edits only touch memory. Commit pushes the whole working set to the store,
// adopts the ids it returns, then rebuilds the triggers this engine owns.
// The three copies are only guaranteed to agree right after a successful commit.
type SyncEngine struct {
	remote      repository.ReminderRepository
	scheduler   LocalScheduler
	permissions PermissionSource
	ownedPrefix string
	body        string
	log         logger.Logger

	mu        sync.Mutex
	state     constant.EngineState
	reminders []*entity.Reminder
	lastErr   error
	closed    bool
}

// NewSyncEngine creates an engine in the uninitialized state.
func NewSyncEngine(cfg SyncEngineConfig) *SyncEngine {
	return &SyncEngine{
		remote:      cfg.Remote,
		scheduler:   cfg.Scheduler,
		permissions: cfg.Permissions,
		ownedPrefix: cfg.OwnedPrefix,
		body:        cfg.NotificationBody,
		log:         cfg.Log,
		state:       constant.StateUninitialized,
	}
}

// State returns the current lifecycle state.
func (e *SyncEngine) State() constant.EngineState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// LastCommitError returns the error of the last failed commit, nil after a success.
func (e *SyncEngine) LastCommitError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// Reminders returns a copy of the working set.
func (e *SyncEngine) Reminders() []entity.Reminder {
	e.mu.Lock()
	defer e.mu.Unlock()
	return copyReminders(e.reminders)
}

// TriggerID is the scheduler id of a committed reminder.
func (e *SyncEngine) TriggerID(userID string, id entity.ReminderID) string {
	return e.namespace(userID) + id.Token
}

// namespace is the trigger id prefix owned by userID. The user segment is
// escaped so no user's namespace can contain another's.
func (e *SyncEngine) namespace(userID string) string {
	return e.ownedPrefix + url.PathEscape(userID) + "/"
}

// setState must be called with e.mu held.
func (e *SyncEngine) setState(s constant.EngineState) {
	if e.state != s {
		e.log.Debug(fmt.Sprintf("Sync engine state %s -> %s", e.state, s))
	}
	e.state = s
}

// Load replaces the working set with the user's stored reminders, sorted by
// time of day. On failure the working set is emptied and the engine is still
// usable. The device scheduler is not touched.
func (e *SyncEngine) Load(ctx context.Context, userID string) ([]entity.Reminder, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, appErrors.ErrSessionEnded
	}
	if e.state == constant.StateCommitting {
		e.mu.Unlock()
		return nil, appErrors.ErrCommitInProgress
	}
	e.setState(constant.StateLoading)
	e.mu.Unlock()

	docs, err := e.remote.List(ctx, userID)
	if err != nil {
		e.log.Error(fmt.Sprintf("Failed to load reminders for user %s", userID), err)
		e.mu.Lock()
		e.reminders = nil
		e.setState(constant.StateReady)
		e.mu.Unlock()
		return []entity.Reminder{}, fmt.Errorf("%w: %v", appErrors.ErrRemoteUnavailable, err)
	}

	loaded := make([]*entity.Reminder, 0, len(docs))
	for _, d := range docs {
		loaded = append(loaded, fromDocument(d))
	}
	entity.SortByTime(loaded)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, appErrors.ErrSessionEnded
	}
	e.reminders = loaded
	e.setState(constant.StateReady)
	e.log.Info(fmt.Sprintf("Loaded %d reminders for user %s", len(loaded), userID))
	return copyReminders(loaded), nil
}

// Add appends a new local reminder to the working set.
func (e *SyncEngine) Add(name string, t entity.TimeOfDay) (entity.Reminder, error) {
	r, err := entity.CreateLocal(name, t)
	if err != nil {
		return entity.Reminder{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return entity.Reminder{}, appErrors.ErrSessionEnded
	}
	if e.state == constant.StateCommitting {
		return entity.Reminder{}, appErrors.ErrCommitInProgress
	}
	e.reminders = append(e.reminders, r)
	return *r, nil
}

// Edit applies patch to the reminder with the given id.
func (e *SyncEngine) Edit(id entity.ReminderID, patch entity.ReminderPatch) error {
	return e.mutate(id, func(i int) error {
		return e.reminders[i].Apply(patch)
	})
}

// Toggle flips the enabled flag. Triggers follow at the next commit.
func (e *SyncEngine) Toggle(id entity.ReminderID) error {
	return e.mutate(id, func(i int) error {
		e.reminders[i].Enabled = !e.reminders[i].Enabled
		return nil
	})
}

// Remove drops the reminder from the working set. A stored reminder is
// deleted from the store at the next commit.
func (e *SyncEngine) Remove(id entity.ReminderID) error {
	return e.mutate(id, func(i int) error {
		e.reminders = append(e.reminders[:i], e.reminders[i+1:]...)
		return nil
	})
}

func (e *SyncEngine) mutate(id entity.ReminderID, fn func(i int) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return appErrors.ErrSessionEnded
	}
	if e.state == constant.StateCommitting {
		return appErrors.ErrCommitInProgress
	}
	for i, r := range e.reminders {
		if r.ID.Equal(id) {
			return fn(i)
		}
	}
	return fmt.Errorf("%w: %s", appErrors.ErrReminderNotFound, id)
}

// Commit writes the working set to the store and rebuilds this user's triggers.
//
// Only the store write can fail the commit. In that case the working set is
// left exactly as the user edited it and no scheduler call is made. Scheduler
// failures after a successful write are logged and reported in the result.
// When notifications are not allowed the store is still written and the
// user's existing triggers are cancelled, but nothing is scheduled and the
// returned error wraps ErrPermissionDenied.
func (e *SyncEngine) Commit(ctx context.Context, userID string) (*dto.CommitResult, error) {
	snapshot, err := e.beginCommit()
	if err != nil {
		return nil, err
	}

	docs := make([]*entity.ReminderDocument, len(snapshot))
	for i, r := range snapshot {
		docs[i] = toDocument(r)
	}

	ids, err := e.remote.ReplaceAll(ctx, userID, docs)
	if err == nil && len(ids) != len(snapshot) {
		err = fmt.Errorf("store returned %d ids for %d reminders", len(ids), len(snapshot))
	}
	if err != nil {
		e.log.Error(fmt.Sprintf("Failed to save reminders for user %s", userID), err)
		e.failCommit(err)
		return nil, fmt.Errorf("%w: %v", appErrors.ErrRemoteUnavailable, err)
	}

	committed := make([]*entity.Reminder, len(snapshot))
	for i, r := range snapshot {
		c := *r
		c.ID = entity.NewRemoteID(ids[i])
		committed[i] = &c
	}
	e.mu.Lock()
	e.reminders = committed
	e.mu.Unlock()

	result := &dto.CommitResult{Success: true, Saved: len(committed)}
	syncErr := e.syncTriggers(ctx, userID, committed, result)
	result.Reminders = dto.ToReminderResponseList(copyReminders(committed))
	e.finishCommit()

	e.log.Info(fmt.Sprintf("Committed %d reminders for user %s: %s", len(committed), userID, result.Summary()))
	return result, syncErr
}

// Reschedule rebuilds this user's triggers from the stored reminders in the
// working set without writing to the store. Used to restore triggers after
// the scheduler lost them, e.g. on process start.
func (e *SyncEngine) Reschedule(ctx context.Context, userID string) (*dto.CommitResult, error) {
	snapshot, err := e.beginCommit()
	if err != nil {
		return nil, err
	}
	stored := make([]*entity.Reminder, 0, len(snapshot))
	for _, r := range snapshot {
		if r.ID.IsRemote() {
			stored = append(stored, r)
		}
	}

	result := &dto.CommitResult{Success: true}
	syncErr := e.syncTriggers(ctx, userID, stored, result)
	result.Reminders = dto.ToReminderResponseList(copyReminders(snapshot))
	e.finishCommit()

	e.log.Info(fmt.Sprintf("Rescheduled reminders for user %s: %s", userID, result.Summary()))
	return result, syncErr
}

// Reset clears the session and cancels the user's triggers. The engine can
// be loaded again afterwards.
func (e *SyncEngine) Reset(ctx context.Context, userID string) error {
	return e.reset(ctx, userID, false)
}

// Close resets the session for good: every later call on the engine fails
// with ErrSessionEnded, so a caller still holding it cannot revive the
// user's triggers after logout.
func (e *SyncEngine) Close(ctx context.Context, userID string) error {
	return e.reset(ctx, userID, true)
}

func (e *SyncEngine) reset(ctx context.Context, userID string, closing bool) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return appErrors.ErrSessionEnded
	}
	if e.state == constant.StateCommitting {
		e.mu.Unlock()
		return appErrors.ErrCommitInProgress
	}
	e.reminders = nil
	e.lastErr = nil
	e.closed = closing
	e.setState(constant.StateUninitialized)
	e.mu.Unlock()

	cancelled := e.cancelOwned(ctx, userID)
	e.log.Info(fmt.Sprintf("Reset reminder session for user %s, cancelled %d triggers", userID, cancelled))
	return nil
}

func (e *SyncEngine) beginCommit() ([]*entity.Reminder, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, appErrors.ErrSessionEnded
	}
	switch e.state {
	case constant.StateCommitting:
		return nil, appErrors.ErrCommitInProgress
	case constant.StateLoading:
		return nil, appErrors.ErrLoadInProgress
	case constant.StateUninitialized:
		return nil, appErrors.ErrNotLoaded
	}
	e.setState(constant.StateCommitting)

	snapshot := make([]*entity.Reminder, len(e.reminders))
	for i, r := range e.reminders {
		c := *r
		snapshot[i] = &c
	}
	return snapshot, nil
}

func (e *SyncEngine) failCommit(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastErr = err
	e.setState(constant.StateCommitFailed)
	e.setState(constant.StateReady)
}

func (e *SyncEngine) finishCommit() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastErr = nil
	e.setState(constant.StateReady)
}

// syncTriggers cancels the user's owned triggers and schedules every
// schedulable reminder. Each scheduler call is attempted independently.
// Without permission the old triggers are still cancelled and nothing is
// scheduled.
func (e *SyncEngine) syncTriggers(ctx context.Context, userID string, reminders []*entity.Reminder, result *dto.CommitResult) error {
	allowed := e.notificationsAllowed(ctx, userID)
	result.Cancelled = e.cancelOwned(ctx, userID)
	if !allowed {
		result.PermissionRequired = true
		e.log.Warn(fmt.Sprintf("Notifications not allowed for user %s, skipping scheduling", userID))
		return fmt.Errorf("%w: user %s", appErrors.ErrPermissionDenied, userID)
	}

	for _, r := range reminders {
		if !r.Schedulable() {
			continue
		}
		result.Attempted++
		trigger := entity.Trigger{
			ID:     e.TriggerID(userID, r.ID),
			UserID: userID,
			Hour:   r.Time.Hour,
			Minute: r.Time.Minute,
			Title:  r.Name,
			Body:   e.body,
		}
		if err := e.scheduler.ScheduleDaily(ctx, trigger); err != nil {
			e.log.Error(fmt.Sprintf("Failed to schedule reminder %s for user %s", r.ID, userID), err)
			result.Failures = append(result.Failures, dto.SchedulerFailure{
				ReminderID: r.ID.String(),
				Error:      fmt.Errorf("%w: %v", appErrors.ErrScheduling, err).Error(),
			})
			continue
		}
		result.ScheduledCount++
	}
	return nil
}

func (e *SyncEngine) notificationsAllowed(ctx context.Context, userID string) bool {
	if e.permissions == nil {
		return true
	}
	allowed, err := e.permissions.NotificationsAllowed(ctx, userID)
	if err != nil {
		e.log.Error(fmt.Sprintf("Failed to read notification permission for user %s", userID), err)
		return false
	}
	return allowed
}

// cancelOwned cancels exactly the triggers in this user's namespace. Triggers
// registered by other features or users are left alone.
func (e *SyncEngine) cancelOwned(ctx context.Context, userID string) int {
	ids, err := e.scheduler.ScheduledIDs(ctx)
	if err != nil {
		e.log.Error(fmt.Sprintf("Failed to list scheduled triggers for user %s", userID), err)
		return 0
	}
	ns := e.namespace(userID)
	cancelled := 0
	for _, id := range ids {
		if !strings.HasPrefix(id, ns) {
			continue
		}
		if err := e.scheduler.Cancel(ctx, id); err != nil {
			e.log.Error(fmt.Sprintf("Failed to cancel trigger %s", id), err)
			continue
		}
		cancelled++
	}
	return cancelled
}

func toDocument(r *entity.Reminder) *entity.ReminderDocument {
	doc := &entity.ReminderDocument{
		Name:    r.Name,
		Enabled: r.Enabled,
		Time:    r.Time.Timestamp(),
	}
	if r.ID.IsRemote() {
		doc.ID = r.ID.Token
	}
	return doc
}

func fromDocument(d *entity.ReminderDocument) *entity.Reminder {
	return &entity.Reminder{
		ID:      entity.NewRemoteID(d.ID),
		Name:    d.Name,
		Time:    entity.TimeOfDayFromTimestamp(d.Time),
		Enabled: d.Enabled,
	}
}

func copyReminders(rs []*entity.Reminder) []entity.Reminder {
	out := make([]entity.Reminder, len(rs))
	for i, r := range rs {
		out[i] = *r
	}
	return out
}
