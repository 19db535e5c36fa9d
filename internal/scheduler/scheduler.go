// Package scheduler runs the periodic reminder scan on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kipper0508/escape-bot/internal/logging"
	"github.com/kipper0508/escape-bot/internal/syncutil"
)

// DefaultReminderSpec runs the reminder scan at the top of every hour.
const DefaultReminderSpec = "0 0 * * * *"

// Scheduler manages scheduled jobs using cron. Specs carry a seconds field.
type Scheduler struct {
	cron     *cron.Cron
	spec     string
	checker  *ReminderChecker
	timeout  time.Duration
	mu       syncutil.Mutex
	lastScan time.Time
	running  bool
}

// NewScheduler creates a scheduler that runs checker on spec.
func NewScheduler(spec string, checker *ReminderChecker) *Scheduler {
	if spec == "" {
		spec = DefaultReminderSpec
	}
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(cronLogger{}), cron.SkipIfStillRunning(cronLogger{})),
		),
		spec:    spec,
		checker: checker,
		timeout: 5 * time.Minute,
	}
}

// Start registers the reminder job and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.runReminderScan); err != nil {
		return fmt.Errorf("failed to add reminder scan %q: %w", s.spec, err)
	}
	s.cron.Start()

	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	logging.Info("scheduler started", "spec", s.spec, "next_run", s.NextRun())
	return nil
}

// Stop stops the scheduler and waits for a running scan to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	wasRunning := s.running
	s.running = false
	s.mu.Unlock()

	if !wasRunning {
		return
	}
	<-s.cron.Stop().Done()
	logging.Info("scheduler stopped")
}

// runReminderScan is the cron job body. A tick that fires while the previous
// scan is still running is skipped.
func (s *Scheduler) runReminderScan() {
	if s.checker == nil {
		return
	}

	ctx, cancel := context.WithTimeout(logging.NewRequestContext(context.Background()), s.timeout)
	defer cancel()

	report, err := s.checker.Check(ctx)
	if err != nil {
		logging.ErrorContext(ctx, "reminder scan failed", logging.KeyError, err)
		return
	}

	s.mu.Lock()
	s.lastScan = report.At
	s.mu.Unlock()
}

// LastScan returns when the last successful scan ran.
func (s *Scheduler) LastScan() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastScan
}

// NextRun returns when the reminder scan next fires, or zero before Start.
func (s *Scheduler) NextRun() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}

	next := entries[0].Next
	for _, e := range entries[1:] {
		if e.Next.Before(next) {
			next = e.Next
		}
	}
	return next
}

// cronLogger routes cron's own messages to the bot logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	logging.DebugLog("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	logging.Error("cron: "+msg, append([]any{logging.KeyError, err}, keysAndValues...)...)
}
