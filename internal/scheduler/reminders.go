package scheduler

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/kipper0508/escape-bot/internal/logging"
	"github.com/kipper0508/escape-bot/internal/metrics"
	"github.com/kipper0508/escape-bot/internal/model"
	"github.com/kipper0508/escape-bot/internal/notify"
)

// ReminderStore is the part of the event store the scan needs.
type ReminderStore interface {
	FindNeedingReminder(ctx context.Context, now time.Time) ([]*model.Event, error)
	MarkReminded(ctx context.Context, id string) error
}

// Formatter renders the reminder text for an event.
type Formatter func(e *model.Event) string

// ScanReport summarizes one reminder scan.
type ScanReport struct {
	At         time.Time
	Candidates int
	Due        int
	Sent       int
	Failed     int
}

// ReminderChecker pushes reminders for group events entering their lead time.
type ReminderChecker struct {
	store      ReminderStore
	dispatcher *notify.Dispatcher
	format     Formatter
	clock      clockwork.Clock
	metrics    *metrics.Metrics
}

// NewReminderChecker creates a reminder checker.
func NewReminderChecker(store ReminderStore, dispatcher *notify.Dispatcher, format Formatter) *ReminderChecker {
	return &ReminderChecker{
		store:      store,
		dispatcher: dispatcher,
		format:     format,
		clock:      clockwork.NewRealClock(),
	}
}

// SetClock overrides the clock used for "now".
func (c *ReminderChecker) SetClock(clock clockwork.Clock) {
	c.clock = clock
}

// SetMetrics records scan results.
func (c *ReminderChecker) SetMetrics(m *metrics.Metrics) {
	c.metrics = m
}

// Check runs one scan: every pending event whose start is within its
// reminder lead time gets a push to its group, and is marked reminded once
// the push succeeds. A failed push leaves the event for the next scan.
func (c *ReminderChecker) Check(ctx context.Context) (*ScanReport, error) {
	now := c.clock.Now()
	report := &ScanReport{At: now}

	pending, err := c.store.FindNeedingReminder(ctx, now)
	if err != nil {
		return nil, err
	}
	report.Candidates = len(pending)

	due := make(map[string]*model.Event)
	var msgs []notify.Outbound
	for _, e := range pending {
		if !e.DueForReminder(now) {
			continue
		}
		due[e.ID()] = e
		msgs = append(msgs, notify.Outbound{
			Ref:  e.ID(),
			To:   e.CreatorID,
			Text: c.format(e),
		})
	}
	report.Due = len(msgs)

	if len(msgs) > 0 {
		for _, r := range c.dispatcher.Dispatch(ctx, msgs) {
			if !r.Success {
				report.Failed++
				logging.WarnContext(ctx, "reminder push failed",
					logging.KeyEventID, r.Ref, logging.KeyError, r.Error)
				continue
			}

			if err := c.store.MarkReminded(ctx, r.Ref); err != nil {
				// Sent but not marked: the next scan repeats this reminder.
				report.Failed++
				logging.ErrorContext(ctx, "failed to mark event reminded",
					logging.KeyEventID, r.Ref, logging.KeyError, err)
				continue
			}

			report.Sent++
			logging.InfoContext(ctx, "reminder sent",
				logging.KeyEventID, r.Ref,
				logging.KeyTitle, due[r.Ref].Title,
				logging.KeyDuration, r.Duration.Milliseconds())
		}
	}

	c.metrics.ObserveReminderScan(now, report.Sent, report.Failed)
	logging.DebugContext(ctx, "reminder scan finished",
		"candidates", report.Candidates, "due", report.Due,
		"sent", report.Sent, "failed", report.Failed)
	return report, nil
}
