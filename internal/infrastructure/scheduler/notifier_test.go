package scheduler

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mealreminder/internal/domain/entity"
	appErrors "mealreminder/internal/pkg/errors"
	"mealreminder/internal/pkg/logger"
)

type recordingDeliverer struct {
	mu   sync.Mutex
	got  []entity.Notification
	fail error
}

func (d *recordingDeliverer) Deliver(_ context.Context, n entity.Notification) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.got = append(d.got, n)
	return d.fail
}

func newTestNotifier(t *testing.T, d Deliverer) *LocalNotifier {
	t.Helper()
	log := logger.New(io.Discard, logger.LevelError)
	c := NewScheduler(time.UTC, log)
	t.Cleanup(c.Stop)
	return NewLocalNotifier(c, d, log)
}

func TestFormatDailySpec(t *testing.T) {
	assert.Equal(t, "0 30 15 * * *", formatDailySpec(15, 30))
	assert.Equal(t, "0 0 7 * * *", formatDailySpec(7, 0))
}

func TestScheduleDaily_RegistersTrigger(t *testing.T) {
	ctx := context.Background()
	n := newTestNotifier(t, &recordingDeliverer{})

	trig := entity.Trigger{ID: "reminders/u1/a", UserID: "u1", Hour: 15, Minute: 30, Title: "Snack", Body: "log it"}
	require.NoError(t, n.ScheduleDaily(ctx, trig))

	got, next, ok := n.Trigger("reminders/u1/a")
	require.True(t, ok)
	assert.Equal(t, trig, got)
	assert.Equal(t, 15, next.UTC().Hour())
	assert.Equal(t, 30, next.UTC().Minute())

	ids, err := n.ScheduledIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"reminders/u1/a"}, ids)
}

func TestScheduleDaily_ReplacesSameID(t *testing.T) {
	ctx := context.Background()
	n := newTestNotifier(t, &recordingDeliverer{})

	require.NoError(t, n.ScheduleDaily(ctx, entity.Trigger{ID: "x", Hour: 8, Minute: 0}))
	require.NoError(t, n.ScheduleDaily(ctx, entity.Trigger{ID: "x", Hour: 9, Minute: 15}))

	assert.Len(t, n.cron.Entries(), 1, "one cron entry per trigger id")
	got, _, ok := n.Trigger("x")
	require.True(t, ok)
	assert.Equal(t, 9, got.Hour)
	assert.Equal(t, 15, got.Minute)
}

func TestScheduleDaily_Rejects(t *testing.T) {
	ctx := context.Background()
	n := newTestNotifier(t, &recordingDeliverer{})

	err := n.ScheduleDaily(ctx, entity.Trigger{ID: "", Hour: 8})
	assert.ErrorIs(t, err, appErrors.ErrScheduling)

	err = n.ScheduleDaily(ctx, entity.Trigger{ID: "bad", Hour: 24})
	assert.ErrorIs(t, err, appErrors.ErrScheduling)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	err = n.ScheduleDaily(cancelled, entity.Trigger{ID: "late", Hour: 8})
	assert.ErrorIs(t, err, appErrors.ErrScheduling)

	ids, err := n.ScheduledIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestCancel(t *testing.T) {
	ctx := context.Background()
	n := newTestNotifier(t, &recordingDeliverer{})

	require.NoError(t, n.ScheduleDaily(ctx, entity.Trigger{ID: "a", Hour: 8}))
	require.NoError(t, n.ScheduleDaily(ctx, entity.Trigger{ID: "b", Hour: 9}))

	require.NoError(t, n.Cancel(ctx, "a"))
	require.NoError(t, n.Cancel(ctx, "missing"))

	ids, err := n.ScheduledIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids)
	assert.Len(t, n.cron.Entries(), 1)
}

func TestCancelAll(t *testing.T) {
	ctx := context.Background()
	n := newTestNotifier(t, &recordingDeliverer{})

	require.NoError(t, n.ScheduleDaily(ctx, entity.Trigger{ID: "reminders/u1/a", Hour: 8}))
	require.NoError(t, n.ScheduleDaily(ctx, entity.Trigger{ID: "water/u1", Hour: 10}))

	require.NoError(t, n.CancelAll(ctx))

	ids, err := n.ScheduledIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Empty(t, n.cron.Entries())
}

func TestFire_Delivers(t *testing.T) {
	d := &recordingDeliverer{}
	n := newTestNotifier(t, d)
	fixed := time.Date(2026, 5, 1, 15, 30, 0, 0, time.UTC)
	n.now = func() time.Time { return fixed }

	n.fire(entity.Trigger{ID: "reminders/u1/a", UserID: "u1", Title: "Snack", Body: "log it"})

	require.Len(t, d.got, 1)
	assert.Equal(t, entity.Notification{
		TriggerID: "reminders/u1/a",
		UserID:    "u1",
		Title:     "Snack",
		Body:      "log it",
		FiredAt:   fixed,
	}, d.got[0])
}

func TestFire_DeliveryErrorIsSwallowed(t *testing.T) {
	d := &recordingDeliverer{fail: errors.New("push failed")}
	n := newTestNotifier(t, d)

	assert.NotPanics(t, func() {
		n.fire(entity.Trigger{ID: "a", UserID: "u1"})
	})
	assert.Len(t, d.got, 1)
}
