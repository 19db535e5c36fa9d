package service

import (
	"context"
	"time"

	"github.com/kipper0508/escape-bot/internal/errors"
	"github.com/kipper0508/escape-bot/internal/logging"
	"github.com/kipper0508/escape-bot/internal/match"
	"github.com/kipper0508/escape-bot/internal/model"
	"github.com/kipper0508/escape-bot/internal/parser"
	"github.com/kipper0508/escape-bot/internal/resolve"
)

// AddResult is the outcome of AddEvent. Event is set on success. On
// ErrAmbiguous or ErrNotFound Candidates holds the catalog list, and on
// ErrConflict Conflict holds the existing event.
type AddResult struct {
	Event      *model.Event
	Candidates []model.Game
	Conflict   *model.Event
}

// AddEvent resolves the game, checks the creator's schedule and stores the
// event. Steps run strictly in that order; the check and the write hold the
// creator's lock.
func (s *Service) AddEvent(ctx context.Context, creator model.Creator, cmd parser.Add) (*AddResult, error) {
	if !cmd.EventTime.After(s.clock.Now()) {
		return nil, &errors.UserError{Message: MsgPastEvent, Cause: errors.ErrPastTime}
	}

	game, candidates, err := s.ResolveGame(ctx, cmd.GameRef)
	if err != nil {
		return &AddResult{Candidates: candidates}, err
	}

	unlock := s.creatorLocks.Lock(creator.String())
	defer unlock()

	existing, err := s.store.FindByCreator(ctx, creator)
	if err != nil {
		return nil, errors.Upstream("store", "find_by_creator", err)
	}
	if other := match.FindConflict(existing, cmd.EventTime, s.opts.ConflictWindow); other != nil {
		return &AddResult{Conflict: other}, &errors.ConflictError{
			Existing: other.EventTime,
			Window:   s.opts.ConflictWindow,
		}
	}

	description, err := s.catalog.GetDescription(ctx, game.GameID)
	if err != nil {
		logging.LoggerFromContext(ctx).Warn("description unavailable",
			logging.KeyGameID, game.GameID, logging.KeyError, err)
		description = MsgDescriptionLost
	}

	event := model.NewEvent(game.Title, resolve.VenueName(game.VenueID), cmd.EventTime, creator)
	event.Description = description
	event.RemindBeforeMinutes = int(s.opts.RemindBefore / time.Minute)

	if err := s.store.Create(ctx, event); err != nil {
		if errors.Is(err, errors.ErrInvalidInput) {
			return nil, err
		}
		return nil, errors.Upstream("store", "create", err)
	}

	s.metrics.ObserveEventCreated()
	logging.LoggerFromContext(ctx).Info("event created",
		logging.KeyEventID, event.ID(),
		logging.KeyTitle, event.Title,
		logging.KeyGameID, game.GameID)
	return &AddResult{Event: event}, nil
}

func (s *Service) add(ctx context.Context, creator model.Creator, cmd parser.Add) (string, error) {
	res, err := s.AddEvent(ctx, creator, cmd)
	switch {
	case err == nil:
		return eventCreated(res.Event, s.opts.Location), nil
	case errors.Is(err, errors.ErrPastTime):
		return MsgPastEvent, err
	case errors.Is(err, errors.ErrAmbiguous):
		return gamesAmbiguous(cmd.Title, res.Candidates, s.gameExample(parser.KeywordAdd, cmd.Title)), err
	case errors.Is(err, errors.ErrNotFound):
		return s.renderGameError(cmd.GameRef, res.Candidates, err, parser.KeywordAdd, MsgSearchFailed), err
	case errors.Is(err, errors.ErrConflict):
		return eventConflict(res.Conflict.EventTime, s.opts.ConflictWindow, s.opts.Location), err
	case errors.Classify(err) == errors.CategoryUpstream:
		if ue, ok := errors.AsUpstream(err); ok && ue.Service != "store" {
			return MsgSearchFailed, err
		}
		return MsgSystemError, err
	default:
		return MsgSystemError, err
	}
}

func gameTitles(games []model.Game) []string {
	titles := make([]string, len(games))
	for i, g := range games {
		titles[i] = g.Title
	}
	return titles
}
