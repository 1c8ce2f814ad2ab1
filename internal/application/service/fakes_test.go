package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"mealreminder/internal/domain/entity"
	"mealreminder/internal/pkg/logger"
)

// fakeRemote is an in-memory reminder store with the same id rules as the
// SQLite store: documents with an id keep it, others get a new one.
type fakeRemote struct {
	mu           sync.Mutex
	docs         map[string][]*entity.ReminderDocument
	nextID       int
	listErr      error
	replaceErr   error
	shortIDs     bool
	replaceCalls int

	started chan struct{} // closed when ReplaceAll is entered
	release chan struct{} // ReplaceAll waits on it when non-nil
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{docs: make(map[string][]*entity.ReminderDocument)}
}

func (f *fakeRemote) seed(userID string, docs ...*entity.ReminderDocument) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range docs {
		c := *d
		c.UserID = userID
		f.docs[userID] = append(f.docs[userID], &c)
	}
}

func (f *fakeRemote) stored(userID string) []*entity.ReminderDocument {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*entity.ReminderDocument(nil), f.docs[userID]...)
}

func (f *fakeRemote) List(_ context.Context, userID string) ([]*entity.ReminderDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*entity.ReminderDocument, 0, len(f.docs[userID]))
	for _, d := range f.docs[userID] {
		c := *d
		out = append(out, &c)
	}
	return out, nil
}

func (f *fakeRemote) ReplaceAll(_ context.Context, userID string, docs []*entity.ReminderDocument) ([]string, error) {
	if f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		<-f.release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.replaceCalls++
	if f.replaceErr != nil {
		return nil, f.replaceErr
	}
	ids := make([]string, len(docs))
	stored := make([]*entity.ReminderDocument, len(docs))
	for i, d := range docs {
		id := d.ID
		if id == "" {
			f.nextID++
			id = fmt.Sprintf("doc-%d", f.nextID)
		}
		c := *d
		c.ID = id
		c.UserID = userID
		c.Position = i
		stored[i] = &c
		ids[i] = id
	}
	f.docs[userID] = stored
	if f.shortIDs && len(ids) > 0 {
		return ids[:len(ids)-1], nil
	}
	return ids, nil
}

func (f *fakeRemote) ListUserIDs(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for id, docs := range f.docs {
		if len(docs) > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// fakeScheduler records triggers by id and counts every call.
type fakeScheduler struct {
	mu            sync.Mutex
	triggers      map[string]entity.Trigger
	failNames     map[string]bool // trigger titles that fail to schedule
	listErr       error
	calls         int
	scheduleCalls int
	cancelAll     int
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{triggers: make(map[string]entity.Trigger), failNames: make(map[string]bool)}
}

func (f *fakeScheduler) ScheduleDaily(_ context.Context, t entity.Trigger) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.scheduleCalls++
	if f.failNames[t.Title] {
		return errors.New("os scheduler rejected trigger")
	}
	f.triggers[t.ID] = t
	return nil
}

func (f *fakeScheduler) Cancel(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	delete(f.triggers, id)
	return nil
}

func (f *fakeScheduler) CancelAll(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.cancelAll++
	f.triggers = make(map[string]entity.Trigger)
	return nil
}

func (f *fakeScheduler) ScheduledIDs(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	ids := make([]string, 0, len(f.triggers))
	for id := range f.triggers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *fakeScheduler) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeScheduler) idsWithPrefix(prefix string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for id := range f.triggers {
		if strings.HasPrefix(id, prefix) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func (f *fakeScheduler) put(t entity.Trigger) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.triggers[t.ID] = t
}

type fakePermissions struct {
	allowed map[string]bool
	err     error
}

func (f *fakePermissions) NotificationsAllowed(_ context.Context, userID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.allowed[userID], nil
}

func testLogger() logger.Logger {
	return logger.New(io.Discard, logger.LevelError)
}

func testEngineConfig(remote *fakeRemote, sched *fakeScheduler, perms PermissionSource) SyncEngineConfig {
	return SyncEngineConfig{
		Remote:           remote,
		Scheduler:        sched,
		Permissions:      perms,
		OwnedPrefix:      "reminders/",
		NotificationBody: "食事を記録する時間です",
		Log:              testLogger(),
	}
}

func storedDoc(id, name string, hour, minute int, enabled bool) *entity.ReminderDocument {
	return &entity.ReminderDocument{
		ID:      id,
		Name:    name,
		Enabled: enabled,
		Time:    time.Date(2026, 1, 1, hour, minute, 0, 0, time.UTC),
	}
}
