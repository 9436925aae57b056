// Package scheduler runs periodic maintenance jobs with robfig/cron.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"vividplate/internal/middleware"
	"vividplate/internal/observability"

	"github.com/robfig/cron/v3"
)

// JobFunc is the body of a scheduled job. It returns the number of rows
// it touched.
type JobFunc func(ctx context.Context) (int64, error)

// Job names used for registration and metrics.
const (
	JobResetTokenPurge    = "reset-token-purge"
	JobSubscriptionExpiry = "subscription-expiry"
)

// Default schedules.
const (
	ResetTokenPurgeSpec    = "@every 30m"
	SubscriptionExpirySpec = "@hourly"
)

const jobTimeout = 2 * time.Minute

// Scheduler wraps a cron runner and guards jobs against overlapping runs.
type Scheduler struct {
	cron *cron.Cron

	mu      sync.Mutex
	running map[string]bool
	entries map[string]cron.EntryID
}

func New() *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		running: make(map[string]bool),
		entries: make(map[string]cron.EntryID),
	}
}

// Add registers fn under name with a cron spec.
func (s *Scheduler) Add(name, spec string, fn JobFunc) error {
	id, err := s.cron.AddFunc(spec, func() {
		s.RunNow(context.Background(), name, fn)
	})
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.entries[name] = id
	s.mu.Unlock()
	return nil
}

// RunNow executes fn immediately. A run is skipped when the previous run
// of the same job has not finished.
func (s *Scheduler) RunNow(ctx context.Context, name string, fn JobFunc) {
	s.mu.Lock()
	if s.running[name] {
		s.mu.Unlock()
		observability.SchedulerRuns.WithLabelValues(name, "skipped").Inc()
		middleware.Logger.Warn("scheduler job still running, skipping", slog.String("job", name))
		return
	}
	s.running[name] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.running, name)
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	start := time.Now()
	n, err := fn(ctx)
	if err != nil {
		observability.SchedulerRuns.WithLabelValues(name, "error").Inc()
		middleware.Logger.Error("scheduler job failed",
			slog.String("job", name), slog.String("error", err.Error()))
		return
	}
	observability.SchedulerRuns.WithLabelValues(name, "ok").Inc()
	middleware.Logger.Info("scheduler job finished",
		slog.String("job", name),
		slog.Int64("affected", n),
		slog.Duration("took", time.Since(start)))
}

// Next reports the next activation of a registered job.
func (s *Scheduler) Next(name string) (time.Time, bool) {
	s.mu.Lock()
	id, ok := s.entries[name]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	return s.cron.Entry(id).Next, true
}

func (s *Scheduler) Start() {
	s.cron.Start()
	middleware.Logger.Info("scheduler started", slog.Int("jobs", len(s.cron.Entries())))
}

// Stop halts the cron runner and waits for in-flight jobs until ctx ends.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
