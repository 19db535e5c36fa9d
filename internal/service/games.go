package service

import (
	"context"
	"slices"

	"github.com/kipper0508/escape-bot/internal/catalog"
	"github.com/kipper0508/escape-bot/internal/errors"
	"github.com/kipper0508/escape-bot/internal/model"
	"github.com/kipper0508/escape-bot/internal/parser"
	"github.com/kipper0508/escape-bot/internal/resolve"
)

// ResolveGame searches the catalog and narrows the candidates to one game.
// On ErrAmbiguous the full candidate list is returned with the error.
func (s *Service) ResolveGame(ctx context.Context, ref parser.GameRef) (model.Game, []model.Game, error) {
	games, err := s.catalog.SearchGames(ctx, ref.Title)
	if err != nil {
		return model.Game{}, nil, err
	}

	res := resolve.Disambiguate(games, ref.Location, ref.ChoiceIndex)
	switch res.Outcome {
	case resolve.NotFound:
		return model.Game{}, games, &errors.NotFoundError{Subject: ref.Title}
	case resolve.Ambiguous:
		return model.Game{}, res.Candidates, &errors.AmbiguousError{
			Subject: ref.Title,
			Options: gameTitles(res.Candidates),
		}
	}
	return res.Game, nil, nil
}

// renderGameError renders a ResolveGame failure. keyword picks the command
// shown in the narrowing example.
func (s *Service) renderGameError(ref parser.GameRef, games []model.Game, err error, keyword, failed string) string {
	switch {
	case errors.Is(err, errors.ErrNotFound):
		// Candidates existed but the qualifiers removed them all.
		if len(games) > 0 {
			return withExample(MsgNoMatchingGame, s.gameExample(keyword, ref.Title))
		}
		return gameNotFound(ref.Title, s.gameExample(keyword, ref.Title))
	case errors.Is(err, errors.ErrAmbiguous):
		return gamesAmbiguous(ref.Title, games, s.gameExample(keyword, ref.Title))
	default:
		return failed
	}
}

// gameExample is keyword's command for title narrowed by location and choice.
func (s *Service) gameExample(keyword, title string) string {
	if keyword == parser.KeywordAdd {
		return s.opts.Trigger + " " + keyword + " 6/20 16:00 " + title + " (台北 1)"
	}
	return s.opts.Trigger + " " + keyword + " " + title + " (台北 1)"
}

func (s *Service) search(ctx context.Context, ref parser.GameRef) (string, error) {
	game, games, err := s.ResolveGame(ctx, ref)
	if err != nil {
		return s.renderGameError(ref, games, err, parser.KeywordSearch, MsgSearchFailed), err
	}

	tags, err := s.catalog.GetTags(ctx, game.GameID)
	if err != nil {
		return MsgSearchFailed, err
	}
	description, err := s.catalog.GetDescription(ctx, game.GameID)
	if err != nil {
		return MsgSearchFailed, err
	}

	return gameInfo(game, slices.Contains(tags, catalog.ScaryTag), description), nil
}

func (s *Service) comment(ctx context.Context, ref parser.GameRef) (string, error) {
	game, games, err := s.ResolveGame(ctx, ref)
	if err != nil {
		return s.renderGameError(ref, games, err, parser.KeywordComment, MsgCommentFailed), err
	}

	tags, err := s.catalog.GetTags(ctx, game.GameID)
	if err != nil {
		return MsgCommentFailed, err
	}
	summary, err := s.summarizer.SummarizeReviews(ctx, game.GameID)
	if err != nil {
		return MsgCommentFailed, err
	}

	return gameComment(tags, summary), nil
}
