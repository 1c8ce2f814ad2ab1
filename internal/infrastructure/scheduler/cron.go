package scheduler

import (
	"fmt"
	"mealreminder/internal/pkg/logger"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler manages the device-wide cron jobs. Every trigger on the device,
// whichever feature registered it, lives in this one cron instance.
type Scheduler struct {
	cron *cron.Cron
	log  logger.Logger
	mu   sync.Mutex
}

// NewScheduler creates and starts a cron scheduler evaluating specs in loc.
func NewScheduler(loc *time.Location, log logger.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds(), cron.WithLocation(loc))
	c.Start()
	log.Info(fmt.Sprintf("Cron scheduler started (location %s).", loc))
	return &Scheduler{
		cron: c,
		log:  log,
	}
}

// AddJob registers cmd under a six-field spec, e.g. "0 30 15 * * *".
func (s *Scheduler) AddJob(spec string, cmd func()) (cron.EntryID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entryID, err := s.cron.AddFunc(spec, cmd)
	if err != nil {
		return 0, fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}
	s.log.Debug(fmt.Sprintf("Cron entry %d registered (%s)", entryID, spec))
	return entryID, nil
}

// RemoveJob drops the entry; unknown ids are ignored by cron.
func (s *Scheduler) RemoveJob(entryID cron.EntryID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cron.Remove(entryID)
	s.log.Debug(fmt.Sprintf("Cron entry %d removed", entryID))
}

// Entry returns the scheduled entry for id; the zero Entry when absent.
func (s *Scheduler) Entry(id cron.EntryID) cron.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cron.Entry(id)
}

// Stop halts the scheduler and waits for deliveries already in flight.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.log.Info("Cron scheduler stopped.")
}

// Entries lists every registered cron entry.
func (s *Scheduler) Entries() []cron.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cron.Entries()
}
