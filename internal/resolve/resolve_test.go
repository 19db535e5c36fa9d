package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/kipper0508/escape-bot/internal/model"
)

func intPtr(n int) *int {
	return &n
}

// precedenceCandidates has two games in 台北 and one in 新北.
var precedenceCandidates = []model.Game{
	{Title: "A", VenueID: 101, GameID: "g1"},
	{Title: "A", VenueID: 101, GameID: "g2"},
	{Title: "A", VenueID: 102, GameID: "g3"},
}

func TestDisambiguate(t *testing.T) {
	tests := []struct {
		name       string
		candidates []model.Game
		location   string
		choice     *int
		outcome    Outcome
		gameID     string
	}{
		{"empty_list", nil, "台北", intPtr(1), NotFound, ""},
		{"single_ignores_qualifiers", precedenceCandidates[2:], "台北", intPtr(9), Resolved, "g3"},
		{"location_keeps_two", precedenceCandidates, "台北", nil, Ambiguous, ""},
		{"location_and_choice", precedenceCandidates, "台北", intPtr(1), Resolved, "g1"},
		{"location_and_second_choice", precedenceCandidates, "台北", intPtr(2), Resolved, "g2"},
		{"location_choice_indexes_subset", precedenceCandidates, "新北", intPtr(1), Resolved, "g3"},
		{"location_choice_out_of_subset", precedenceCandidates, "新北", intPtr(2), Ambiguous, ""},
		{"location_unique", precedenceCandidates, "新北", nil, Resolved, "g3"},
		{"location_matches_nothing", precedenceCandidates, "高雄", nil, NotFound, ""},
		{"unknown_location", precedenceCandidates, "火星", nil, NotFound, ""},
		{"unknown_location_with_choice", precedenceCandidates, "火星", intPtr(1), NotFound, ""},
		{"choice_indexes_full_list", precedenceCandidates, "", intPtr(3), Resolved, "g3"},
		{"choice_zero", precedenceCandidates, "", intPtr(0), Ambiguous, ""},
		{"choice_out_of_range", precedenceCandidates, "", intPtr(4), Ambiguous, ""},
		{"no_qualifiers", precedenceCandidates, "", nil, Ambiguous, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Disambiguate(tt.candidates, tt.location, tt.choice)
			assert.Equal(t, tt.outcome, got.Outcome)
			if tt.outcome == Resolved {
				assert.Equal(t, tt.gameID, got.Game.GameID)
			}
			if tt.outcome == Ambiguous {
				assert.Equal(t, tt.candidates, got.Candidates, "ambiguous results list the original candidates")
			}
		})
	}
}

func TestDisambiguateProperties(t *testing.T) {
	gen := rapid.Custom(func(t *rapid.T) model.Game {
		return model.Game{
			Title:   "A",
			VenueID: rapid.SampledFrom([]int{101, 102, 500}).Draw(t, "venue"),
			GameID:  rapid.StringMatching(`g[0-9]{3}`).Draw(t, "id"),
		}
	})

	rapid.Check(t, func(t *rapid.T) {
		candidates := rapid.SliceOf(gen).Draw(t, "candidates")
		location := rapid.SampledFrom([]string{"", "台北", "新北", "金門", "火星"}).Draw(t, "location")
		var choice *int
		if rapid.Bool().Draw(t, "has_choice") {
			choice = intPtr(rapid.IntRange(-1, 6).Draw(t, "choice"))
		}

		got := Disambiguate(candidates, location, choice)

		switch {
		case len(candidates) == 0 && got.Outcome != NotFound:
			t.Fatalf("empty list gave %v", got.Outcome)
		case len(candidates) == 1 && (got.Outcome != Resolved || got.Game != candidates[0]):
			t.Fatalf("single candidate gave %v", got.Outcome)
		case got.Outcome == Ambiguous && len(got.Candidates) != len(candidates):
			t.Fatalf("ambiguous listed %d of %d", len(got.Candidates), len(candidates))
		}
	})
}

func TestVenues(t *testing.T) {
	id, ok := VenueFor("台北")
	assert.True(t, ok)
	assert.Equal(t, 101, id)

	for _, name := range []string{"澎湖", "金門", "馬祖"} {
		id, ok := VenueFor(name)
		assert.True(t, ok)
		assert.Equal(t, 500, id)
	}

	_, ok = VenueFor("火星")
	assert.False(t, ok)

	assert.Equal(t, "台中", VenueName(202))
	assert.Equal(t, "澎湖", VenueName(500))
	assert.Equal(t, "999", VenueName(999))
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "resolved", Resolved.String())
	assert.Equal(t, "ambiguous", Ambiguous.String())
	assert.Equal(t, "not_found", NotFound.String())
}
