// Package resolve narrows catalog search results to a single game.
package resolve

import "github.com/kipper0508/escape-bot/internal/model"

// Outcome classifies a disambiguation.
type Outcome int

// Disambiguation outcomes.
const (
	NotFound Outcome = iota
	Resolved
	Ambiguous
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case Resolved:
		return "resolved"
	case Ambiguous:
		return "ambiguous"
	default:
		return "not_found"
	}
}

// Result is the outcome of Disambiguate. Game is set when Resolved;
// Candidates holds the original catalog list, in catalog order, when Ambiguous.
type Result struct {
	Outcome    Outcome
	Game       model.Game
	Candidates []model.Game
}

// Disambiguate picks one game from candidates using an optional region name
// and an optional 1-based choice.
//
// A single candidate always resolves. With several, location and choice
// together index into the candidates at that location; location alone keeps
// that location's candidates; choice alone indexes the full list. One
// survivor resolves, several (or an out-of-range choice) are ambiguous over
// the full list, and none is not found.
func Disambiguate(candidates []model.Game, location string, choice *int) Result {
	switch len(candidates) {
	case 0:
		return Result{Outcome: NotFound}
	case 1:
		return Result{Outcome: Resolved, Game: candidates[0]}
	}

	ambiguous := Result{Outcome: Ambiguous, Candidates: candidates}

	subset := candidates
	if location != "" {
		subset = atVenue(candidates, location)
	}

	if choice != nil {
		if len(subset) == 0 {
			return Result{Outcome: NotFound}
		}
		n := *choice
		if n < 1 || n > len(subset) {
			return ambiguous
		}
		return Result{Outcome: Resolved, Game: subset[n-1]}
	}

	switch len(subset) {
	case 0:
		return Result{Outcome: NotFound}
	case 1:
		return Result{Outcome: Resolved, Game: subset[0]}
	default:
		return ambiguous
	}
}

// atVenue keeps candidates whose venue matches the region name. Unknown
// names match nothing.
func atVenue(candidates []model.Game, location string) []model.Game {
	id, ok := VenueFor(location)
	if !ok {
		return nil
	}

	var out []model.Game
	for _, g := range candidates {
		if g.VenueID == id {
			out = append(out, g)
		}
	}
	return out
}
