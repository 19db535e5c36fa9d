package parser

import "time"

// Kind identifies a command variant.
type Kind string

// Command kinds, in grammar order.
const (
	KindAdd            Kind = "add"
	KindQueryUpcomings Kind = "queryUpcomings"
	KindQueryHistory   Kind = "queryHistory"
	KindQuery          Kind = "query"
	KindDelete         Kind = "delete"
	KindSearch         Kind = "search"
	KindComment        Kind = "comment"
	KindHelp           Kind = "help"
	KindNone           Kind = "none"
)

// Command is a parsed chat command. The concrete type carries only the
// fields its kind needs.
type Command interface {
	Kind() Kind
}

// GameRef refers to a catalog game by title with optional qualifiers.
// An empty Location means none was given.
type GameRef struct {
	Title       string `json:"title"`
	Location    string `json:"location,omitempty"`
	ChoiceIndex *int   `json:"choiceIndex,omitempty"`
}

// When is a resolved instant and whether the user named an hour or only a day.
type When struct {
	Time    time.Time `json:"time"`
	HasHour bool      `json:"hasHour"`
}

// EventRef refers to a stored event by title with optional date and location.
type EventRef struct {
	Title    string `json:"title"`
	When     *When  `json:"when,omitempty"`
	Location string `json:"location,omitempty"`
}

// Add schedules a new outing.
type Add struct {
	GameRef
	EventTime time.Time `json:"eventTime"`
}

// QueryUpcomings lists future events.
type QueryUpcomings struct{}

// QueryHistory lists past events.
type QueryHistory struct{}

// Query looks up one stored event.
type Query struct {
	EventRef
}

// Delete removes one stored event.
type Delete struct {
	EventRef
}

// Search shows catalog details for a game.
type Search struct {
	GameRef
}

// Comment summarizes player reviews for a game.
type Comment struct {
	GameRef
}

// Help shows the command guide.
type Help struct{}

// None is any text that did not match a command shape.
type None struct{}

func (Add) Kind() Kind            { return KindAdd }
func (QueryUpcomings) Kind() Kind { return KindQueryUpcomings }
func (QueryHistory) Kind() Kind   { return KindQueryHistory }
func (Query) Kind() Kind          { return KindQuery }
func (Delete) Kind() Kind         { return KindDelete }
func (Search) Kind() Kind         { return KindSearch }
func (Comment) Kind() Kind        { return KindComment }
func (Help) Kind() Kind           { return KindHelp }
func (None) Kind() Kind           { return KindNone }
