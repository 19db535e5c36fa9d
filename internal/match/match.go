// Package match selects stored events by title, date and location, and
// detects scheduling conflicts.
package match

import (
	"sort"
	"time"

	"github.com/kipper0508/escape-bot/internal/model"
)

// DefaultConflictWindow is how close two events of one creator may be.
const DefaultConflictWindow = time.Hour

// Criteria selects events. EventTime is nil when no date was given;
// HasHour distinguishes an exact instant from a whole calendar day.
// An empty Location means no location filter.
type Criteria struct {
	Creator   model.Creator
	Title     string
	EventTime *time.Time
	HasHour   bool
	Location  string
}

// Outcome classifies a match.
type Outcome int

// Match outcomes.
const (
	NotFound Outcome = iota
	Resolved
	Ambiguous
)

// Result holds the matching events. Event is set when Resolved.
type Result struct {
	Outcome Outcome
	Event   *model.Event
	Matches []*model.Event
}

// Events filters events by the criteria. Title and location compare exactly.
// A day-only criterion keeps events from midnight up to, but not including,
// the next midnight of that day in the criterion's zone.
func Events(c Criteria, events []*model.Event) Result {
	var matches []*model.Event
	for _, e := range events {
		if matchesCriteria(c, e) {
			matches = append(matches, e)
		}
	}

	switch len(matches) {
	case 0:
		return Result{Outcome: NotFound}
	case 1:
		return Result{Outcome: Resolved, Event: matches[0], Matches: matches}
	default:
		return Result{Outcome: Ambiguous, Matches: matches}
	}
}

func matchesCriteria(c Criteria, e *model.Event) bool {
	if e.Title != c.Title {
		return false
	}

	if c.EventTime != nil {
		if c.HasHour {
			if !e.EventTime.Equal(*c.EventTime) {
				return false
			}
		} else {
			start, end := DayRange(*c.EventTime)
			if e.EventTime.Before(start) || !e.EventTime.Before(end) {
				return false
			}
		}
	}

	if c.Location != "" && e.Location != c.Location {
		return false
	}
	return true
}

// DayRange returns [midnight, next midnight) of t's calendar day in t's zone.
func DayRange(t time.Time) (time.Time, time.Time) {
	y, m, d := t.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}

// Upcoming returns events strictly after now, earliest first.
func Upcoming(events []*model.Event, now time.Time) []*model.Event {
	var out []*model.Event
	for _, e := range events {
		if e.EventTime.After(now) {
			out = append(out, e)
		}
	}
	sortByTime(out)
	return out
}

// History returns events strictly before now, earliest first.
func History(events []*model.Event, now time.Time) []*model.Event {
	var out []*model.Event
	for _, e := range events {
		if e.EventTime.Before(now) {
			out = append(out, e)
		}
	}
	sortByTime(out)
	return out
}

func sortByTime(events []*model.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].EventTime.Before(events[j].EventTime)
	})
}

// FindConflict returns the first existing event strictly closer than window
// to at, or nil. Events exactly window apart do not conflict.
func FindConflict(existing []*model.Event, at time.Time, window time.Duration) *model.Event {
	for _, e := range existing {
		delta := e.EventTime.Sub(at)
		if delta < 0 {
			delta = -delta
		}
		if delta < window {
			return e
		}
	}
	return nil
}
