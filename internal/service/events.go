package service

import (
	"context"

	"github.com/kipper0508/escape-bot/internal/errors"
	"github.com/kipper0508/escape-bot/internal/logging"
	"github.com/kipper0508/escape-bot/internal/match"
	"github.com/kipper0508/escape-bot/internal/model"
	"github.com/kipper0508/escape-bot/internal/parser"
)

// Criteria converts an event reference into matcher criteria for creator.
func Criteria(creator model.Creator, ref parser.EventRef) match.Criteria {
	c := match.Criteria{
		Creator:  creator,
		Title:    ref.Title,
		Location: ref.Location,
	}
	if ref.When != nil {
		t := ref.When.Time
		c.EventTime = &t
		c.HasHour = ref.When.HasHour
	}
	return c
}

// FindEvent matches ref against the creator's stored events. The Result
// is returned alongside ErrNotFound and ErrAmbiguous so callers can list
// the matches.
func (s *Service) FindEvent(ctx context.Context, creator model.Creator, ref parser.EventRef) (match.Result, error) {
	events, err := s.store.FindByCreator(ctx, creator)
	if err != nil {
		return match.Result{}, errors.Upstream("store", "find_by_creator", err)
	}

	res := match.Events(Criteria(creator, ref), events)
	switch res.Outcome {
	case match.NotFound:
		return res, &errors.NotFoundError{Subject: ref.Title}
	case match.Ambiguous:
		titles := make([]string, len(res.Matches))
		for i, e := range res.Matches {
			titles[i] = e.Title
		}
		return res, &errors.AmbiguousError{Subject: ref.Title, Options: titles}
	}
	return res, nil
}

func (s *Service) query(ctx context.Context, creator model.Creator, ref parser.EventRef) (string, error) {
	res, err := s.FindEvent(ctx, creator, ref)
	if err != nil {
		return s.renderMatchError(res, err, parser.KeywordQuery, ref.Title), err
	}
	return eventInfo(res.Event, s.opts.Location), nil
}

func (s *Service) delete(ctx context.Context, creator model.Creator, ref parser.EventRef) (string, error) {
	unlock := s.creatorLocks.Lock(creator.String())
	defer unlock()

	res, err := s.FindEvent(ctx, creator, ref)
	if err != nil {
		return s.renderMatchError(res, err, parser.KeywordDelete, ref.Title), err
	}

	if err := s.store.Delete(ctx, res.Event.ID()); err != nil {
		return MsgDeleteFailed, errors.Upstream("store", "delete", err)
	}

	s.metrics.ObserveEventDeleted()
	logging.LoggerFromContext(ctx).Info("event deleted",
		logging.KeyEventID, res.Event.ID(),
		logging.KeyTitle, res.Event.Title)
	return eventDeleted(res.Event), nil
}

func (s *Service) renderMatchError(res match.Result, err error, keyword, title string) string {
	switch {
	case errors.Is(err, errors.ErrNotFound):
		return withExample(MsgEventNotFound, s.opts.Trigger+" "+keyword+" "+title+" (6/20 16:00 台北)")
	case errors.Is(err, errors.ErrAmbiguous):
		return eventsAmbiguous(res.Matches, s.opts.Location)
	default:
		return MsgSystemError
	}
}

func (s *Service) upcoming(ctx context.Context, creator model.Creator) (string, error) {
	events, err := s.store.FindUpcoming(ctx, creator, s.clock.Now())
	if err != nil {
		return MsgSystemError, errors.Upstream("store", "find_upcoming", err)
	}
	if len(events) == 0 {
		return MsgNoUpcoming, nil
	}
	return upcomingList(events, s.opts.Location), nil
}

func (s *Service) history(ctx context.Context, creator model.Creator) (string, error) {
	events, err := s.store.FindHistory(ctx, creator, s.clock.Now())
	if err != nil {
		return MsgSystemError, errors.Upstream("store", "find_history", err)
	}
	if len(events) == 0 {
		return MsgNoHistory, nil
	}
	return historyList(events, s.opts.Location), nil
}
