package scheduler

import (
	"context"
	"fmt"
	"mealreminder/internal/domain/entity"
	appErrors "mealreminder/internal/pkg/errors"
	"mealreminder/internal/pkg/logger"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Deliverer sends a fired notification to the user.
type Deliverer interface {
	Deliver(ctx context.Context, n entity.Notification) error
}

type registeredTrigger struct {
	entryID cron.EntryID
	trigger entity.Trigger
}

// LocalNotifier is the device notification scheduler: daily triggers keyed by
// a string id, backed by the shared cron instance.
type LocalNotifier struct {
	cron      *Scheduler
	deliverer Deliverer
	log       logger.Logger
	now       func() time.Time

	mu       sync.Mutex
	triggers map[string]registeredTrigger
}

// NewLocalNotifier creates a notifier that hands fired triggers to deliverer.
func NewLocalNotifier(cronScheduler *Scheduler, deliverer Deliverer, log logger.Logger) *LocalNotifier {
	return &LocalNotifier{
		cron:      cronScheduler,
		deliverer: deliverer,
		log:       log,
		now:       time.Now,
		triggers:  make(map[string]registeredTrigger),
	}
}

// formatDailySpec generates a cron spec firing every day at hour:minute.
func formatDailySpec(hour, minute int) string {
	// Seconds Minutes Hours DayOfMonth Month DayOfWeek
	return fmt.Sprintf("0 %d %d * * *", minute, hour)
}

// ScheduleDaily registers t, replacing any trigger already registered under t.ID.
func (n *LocalNotifier) ScheduleDaily(ctx context.Context, t entity.Trigger) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", appErrors.ErrScheduling, err)
	}
	if t.ID == "" {
		return fmt.Errorf("%w: trigger id must not be empty", appErrors.ErrScheduling)
	}
	if !(entity.TimeOfDay{Hour: t.Hour, Minute: t.Minute}).Valid() {
		return fmt.Errorf("%w: trigger %s has invalid time %d:%d", appErrors.ErrScheduling, t.ID, t.Hour, t.Minute)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if existing, ok := n.triggers[t.ID]; ok {
		n.cron.RemoveJob(existing.entryID)
		delete(n.triggers, t.ID)
	}

	trigger := t
	entryID, err := n.cron.AddJob(formatDailySpec(t.Hour, t.Minute), func() {
		n.fire(trigger)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", appErrors.ErrScheduling, err)
	}
	n.triggers[t.ID] = registeredTrigger{entryID: entryID, trigger: t}
	n.log.Info(fmt.Sprintf("Scheduled daily trigger %s at %02d:%02d (Job ID: %d)", t.ID, t.Hour, t.Minute, entryID))
	return nil
}

func (n *LocalNotifier) fire(t entity.Trigger) {
	notification := entity.Notification{
		TriggerID: t.ID,
		UserID:    t.UserID,
		Title:     t.Title,
		Body:      t.Body,
		FiredAt:   n.now(),
	}
	if err := n.deliverer.Deliver(context.Background(), notification); err != nil {
		n.log.Error(fmt.Sprintf("Failed to deliver notification for trigger %s", t.ID), err)
		return
	}
	n.log.Debug(fmt.Sprintf("Delivered notification for trigger %s", t.ID))
}

// Cancel removes the trigger registered under id; no-op if absent.
func (n *LocalNotifier) Cancel(ctx context.Context, id string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	existing, ok := n.triggers[id]
	if !ok {
		n.log.Debug(fmt.Sprintf("No active trigger found for %s to cancel.", id))
		return nil
	}
	n.cron.RemoveJob(existing.entryID)
	delete(n.triggers, id)
	n.log.Info(fmt.Sprintf("Cancelled trigger %s (Job ID: %d)", id, existing.entryID))
	return nil
}

// CancelAll removes every trigger on the device, whichever feature owns it.
func (n *LocalNotifier) CancelAll(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	for id, existing := range n.triggers {
		n.cron.RemoveJob(existing.entryID)
		delete(n.triggers, id)
	}
	n.log.Info("Cancelled all triggers.")
	return nil
}

// ScheduledIDs lists the ids of every registered trigger, sorted.
func (n *LocalNotifier) ScheduledIDs(ctx context.Context) ([]string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	ids := make([]string, 0, len(n.triggers))
	for id := range n.triggers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Trigger returns the trigger registered under id and its next fire time.
func (n *LocalNotifier) Trigger(id string) (entity.Trigger, time.Time, bool) {
	n.mu.Lock()
	existing, ok := n.triggers[id]
	n.mu.Unlock()
	if !ok {
		return entity.Trigger{}, time.Time{}, false
	}
	return existing.trigger, n.cron.Entry(existing.entryID).Next, true
}
