package output

import (
	"time"

	"github.com/kipper0508/escape-bot/internal/model"
	"github.com/kipper0508/escape-bot/internal/parser"
)

// JSONFormatter provides JSON-specific formatting.
type JSONFormatter struct {
	*Formatter
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(f *Formatter) *JSONFormatter {
	return &JSONFormatter{Formatter: f}
}

// EventOutput is the JSON shape of an event.
type EventOutput struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Location    string    `json:"location"`
	EventTime   time.Time `json:"event_time"`
	Reminded    bool      `json:"reminded"`
	RemindAt    time.Time `json:"remind_at"`
	Creator     string    `json:"creator"`
	Description string    `json:"description,omitempty"`
}

// NewEventOutput creates an EventOutput in loc.
func NewEventOutput(e *model.Event, loc *time.Location) *EventOutput {
	return &EventOutput{
		ID:          e.ID(),
		Title:       e.Title,
		Location:    e.Location,
		EventTime:   e.EventTime.In(loc),
		Reminded:    e.Reminded,
		RemindAt:    e.EventTime.Add(-e.RemindBefore()).In(loc),
		Creator:     e.Creator().String(),
		Description: e.Description,
	}
}

// EventsResponse is the JSON response for event listings.
type EventsResponse struct {
	Events []*EventOutput `json:"events"`
	Total  int            `json:"total"`
}

// CommandResponse is the JSON response for a parsed chat line.
type CommandResponse struct {
	Input   string         `json:"input"`
	Kind    parser.Kind    `json:"kind"`
	Command parser.Command `json:"command,omitempty"`
}

// ErrorResponse is the JSON response for errors.
type ErrorResponse struct {
	Status     string `json:"status"`
	Error      string `json:"error"`
	Suggestion string `json:"suggestion,omitempty"`
}

// PrintEvents prints events as JSON.
func (j *JSONFormatter) PrintEvents(events []*model.Event) error {
	resp := &EventsResponse{Events: make([]*EventOutput, 0, len(events)), Total: len(events)}
	for _, e := range events {
		resp.Events = append(resp.Events, NewEventOutput(e, j.location()))
	}
	return j.JSON(resp)
}

// PrintCommand prints a parsed command as JSON.
func (j *JSONFormatter) PrintCommand(input string, cmd parser.Command) error {
	resp := &CommandResponse{Input: input, Kind: cmd.Kind()}
	switch cmd.(type) {
	case parser.None, parser.Help, parser.QueryUpcomings, parser.QueryHistory:
	default:
		resp.Command = cmd
	}
	return j.JSON(resp)
}

// PrintError prints an error as JSON.
func (j *JSONFormatter) PrintError(err error, suggestion string) error {
	return j.JSON(&ErrorResponse{Status: "error", Error: err.Error(), Suggestion: suggestion})
}
