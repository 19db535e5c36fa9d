// Package service handles parsed chat commands.
//
// Each flow resolves its references through the catalog or the creator's
// stored events, runs the add-time checks, and renders the outcome as the
// reply text. Failures are rendered too: Handle never returns an error.
package service

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/kipper0508/escape-bot/internal/errors"
	"github.com/kipper0508/escape-bot/internal/logging"
	"github.com/kipper0508/escape-bot/internal/match"
	"github.com/kipper0508/escape-bot/internal/metrics"
	"github.com/kipper0508/escape-bot/internal/model"
	"github.com/kipper0508/escape-bot/internal/parser"
	"github.com/kipper0508/escape-bot/internal/syncutil"
)

// EventStore is the durable event store used by the command flows.
type EventStore interface {
	Create(ctx context.Context, event *model.Event) error
	FindByCreator(ctx context.Context, creator model.Creator) ([]*model.Event, error)
	FindUpcoming(ctx context.Context, creator model.Creator, now time.Time) ([]*model.Event, error)
	FindHistory(ctx context.Context, creator model.Creator, now time.Time) ([]*model.Event, error)
	Delete(ctx context.Context, id string) error
}

// Catalog looks games up in the venue catalog.
type Catalog interface {
	SearchGames(ctx context.Context, title string) ([]model.Game, error)
	GetDescription(ctx context.Context, gameID string) (string, error)
	GetTags(ctx context.Context, gameID string) ([]string, error)
}

// Summarizer produces the AI review summary for a game.
type Summarizer interface {
	SummarizeReviews(ctx context.Context, gameID string) (string, error)
}

// Options tunes the add flow.
type Options struct {
	Location       *time.Location
	RemindBefore   time.Duration
	ConflictWindow time.Duration
	Trigger        string
}

// Service runs command flows against its collaborators.
type Service struct {
	store      EventStore
	catalog    Catalog
	summarizer Summarizer
	clock      clockwork.Clock
	metrics    *metrics.Metrics
	opts       Options

	// Serializes read-check-create per creator.
	creatorLocks *syncutil.KeyedMutex
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the clock used for "now".
func WithClock(clock clockwork.Clock) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

// WithMetrics records command outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New creates a Service. Zero option fields fall back to the defaults.
func New(store EventStore, catalog Catalog, summarizer Summarizer, opts Options, options ...Option) *Service {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.RemindBefore <= 0 {
		opts.RemindBefore = model.DefaultRemindBefore
	}
	if opts.ConflictWindow <= 0 {
		opts.ConflictWindow = match.DefaultConflictWindow
	}
	if opts.Trigger == "" {
		opts.Trigger = parser.DefaultTrigger
	}

	s := &Service{
		store:        store,
		catalog:      catalog,
		summarizer:   summarizer,
		clock:        clockwork.NewRealClock(),
		opts:         opts,
		creatorLocks: syncutil.NewKeyedMutex(),
	}
	for _, o := range options {
		o(s)
	}
	return s
}

// Handle runs cmd for creator and returns the reply text.
func (s *Service) Handle(ctx context.Context, creator model.Creator, cmd parser.Command) (reply string) {
	start := s.clock.Now()
	ctx = logging.WithCreator(ctx, creator.String())
	log := logging.LoggerFromContext(ctx).With(logging.KeyCommand, string(cmd.Kind()))

	var err error
	defer func() {
		if r := recover(); r != nil {
			log.Error("command panicked", "panic", r)
			reply = MsgSystemError
			err = errors.New("panic")
		}
		outcome := outcomeOf(err)
		s.metrics.ObserveCommand(string(cmd.Kind()), outcome)
		log.Debug("command handled",
			logging.KeyOutcome, outcome,
			logging.KeyDuration, s.clock.Since(start).Milliseconds())
	}()

	switch c := cmd.(type) {
	case parser.Add:
		reply, err = s.add(ctx, creator, c)
	case parser.QueryUpcomings:
		reply, err = s.upcoming(ctx, creator)
	case parser.QueryHistory:
		reply, err = s.history(ctx, creator)
	case parser.Query:
		reply, err = s.query(ctx, creator, c.EventRef)
	case parser.Delete:
		reply, err = s.delete(ctx, creator, c.EventRef)
	case parser.Search:
		reply, err = s.search(ctx, c.GameRef)
	case parser.Comment:
		reply, err = s.comment(ctx, c.GameRef)
	case parser.Help:
		reply = CommandGuide(s.opts.Trigger)
	default:
		reply, err = MsgUnknownCommand, errors.ErrParseFailure
	}

	if err != nil && errors.Classify(err) == errors.CategoryUpstream {
		log.Error("command failed", logging.KeyError, err, "root_cause", errors.RootCause(err))
		if ue, ok := errors.AsUpstream(err); ok {
			s.metrics.ObserveUpstreamFailure(ue.Service)
		}
	}
	return reply
}

// Now returns the service clock's current time in the event zone.
func (s *Service) Now() time.Time {
	return s.clock.Now().In(s.opts.Location)
}

func outcomeOf(err error) string {
	if err == nil {
		return "ok"
	}
	return errors.Classify(err).String()
}
