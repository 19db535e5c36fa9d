package model

import (
	"fmt"
	"strings"
	"time"
)

// CreatorKind identifies what kind of chat context created an event.
type CreatorKind string

// Creator kinds.
const (
	CreatorUser  CreatorKind = "user"
	CreatorGroup CreatorKind = "group"
)

// Valid returns true for the known creator kinds.
func (k CreatorKind) Valid() bool {
	return k == CreatorUser || k == CreatorGroup
}

// Creator is the chat context that owns a set of events.
// Events are scoped to a creator: no operation sees another creator's events.
type Creator struct {
	ID   string      `json:"id" validate:"required"`
	Kind CreatorKind `json:"kind" validate:"required,oneof=user group"`
}

// String returns "kind:id".
func (c Creator) String() string {
	return fmt.Sprintf("%s:%s", c.Kind, c.ID)
}

// DefaultRemindBefore is the default reminder lead time.
const DefaultRemindBefore = 24 * time.Hour

// Event represents a scheduled escape-room outing.
type Event struct {
	Key                 string      `json:"key"`
	Title               string      `json:"title" validate:"required,max=200"`
	Description         string      `json:"description,omitempty"`
	Location            string      `json:"location" validate:"required,max=100"`
	EventTime           time.Time   `json:"event_time" validate:"required"`
	RemindBeforeMinutes int         `json:"remind_before_minutes" validate:"gte=0"`
	Reminded            bool        `json:"reminded"`
	CreatedAt           time.Time   `json:"created_at"`
	CreatorID           string      `json:"creator_id" validate:"required"`
	CreatorKind         CreatorKind `json:"creator_kind" validate:"required,oneof=user group"`
}

// SetKey sets the database key for this event.
func (e *Event) SetKey(key string) {
	e.Key = key
}

// GetKey returns the database key for this event.
func (e *Event) GetKey() string {
	return e.Key
}

// ID returns the event identifier without the key prefix.
func (e *Event) ID() string {
	return strings.TrimPrefix(e.Key, PrefixEvent+":")
}

// ShortID returns the first 6 characters of the identifier for display.
func (e *Event) ShortID() string {
	id := e.ID()
	if len(id) > 6 {
		return id[:6]
	}
	return id
}

// Creator returns the owning chat context.
func (e *Event) Creator() Creator {
	return Creator{ID: e.CreatorID, Kind: e.CreatorKind}
}

// OwnedBy reports whether the event belongs to the given creator.
func (e *Event) OwnedBy(c Creator) bool {
	return e.CreatorID == c.ID && e.CreatorKind == c.Kind
}

// RemindBefore returns the reminder lead time.
func (e *Event) RemindBefore() time.Duration {
	return time.Duration(e.RemindBeforeMinutes) * time.Minute
}

// DueForReminder reports whether a reminder should be sent at now:
// the event is still in the future and within its reminder lead time.
func (e *Event) DueForReminder(now time.Time) bool {
	if e.Reminded {
		return false
	}
	until := e.EventTime.Sub(now)
	return until > 0 && until <= e.RemindBefore()
}

// GenerateEventKey generates a database key for an event using UUID.
func GenerateEventKey(uuid string) string {
	return fmt.Sprintf("%s:%s", PrefixEvent, uuid)
}

// NewEvent creates a new event with the default reminder lead time.
func NewEvent(title, location string, at time.Time, creator Creator) *Event {
	return &Event{
		Title:               title,
		Location:            location,
		EventTime:           at,
		RemindBeforeMinutes: int(DefaultRemindBefore / time.Minute),
		CreatorID:           creator.ID,
		CreatorKind:         creator.Kind,
	}
}
