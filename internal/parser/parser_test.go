package parser

import (
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var taipei = time.FixedZone("Asia/Taipei", 8*60*60)

func newTestParser() *Parser {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, taipei)
	return New(WithClock(clockwork.NewFakeClockAt(now)), WithLocation(taipei))
}

func intPtr(n int) *int {
	return &n
}

// =============================================================================
// Normalizer Tests
// =============================================================================

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"full_width_parens", "小精靈 查詢 A（台北）", "小精靈 查詢 A(台北)"},
		{"trims_whitespace", "  小精靈 幫助 \n", "小精靈 幫助"},
		{"keeps_other_full_width", "ＡＢＣ（１）", "ＡＢＣ(１)"},
		{"ascii_untouched", "小精靈 查詢 A (台北)", "小精靈 查詢 A (台北)"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

// =============================================================================
// Date/Time Resolver Tests
// =============================================================================

func TestResolveDateTime(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, taipei)

	t.Run("short_form_uses_current_year", func(t *testing.T) {
		got, ok := ResolveDateTime("6/20 16:00", now, taipei)
		require.True(t, ok)
		assert.Equal(t, time.Date(2025, 6, 20, 16, 0, 0, 0, taipei), got)
	})

	t.Run("full_form", func(t *testing.T) {
		got, ok := ResolveDateTime("2026/1/2 9:05", now, taipei)
		require.True(t, ok)
		assert.Equal(t, time.Date(2026, 1, 2, 9, 5, 0, 0, taipei), got)
	})

	t.Run("year_taken_in_location", func(t *testing.T) {
		// 2024-12-31 20:00 UTC is already 2025 in Taipei.
		utcNow := time.Date(2024, 12, 31, 20, 0, 0, 0, time.UTC)
		got, ok := ResolveDateTime("1/1 10:00", utcNow, taipei)
		require.True(t, ok)
		assert.Equal(t, 2025, got.Year())
	})

	invalid := []string{
		"2/30 10:00",
		"2025/2/29 10:00",
		"6/20 25:00",
		"6/20 16:60",
		"13/1 10:00",
		"6/20",
		"16:00",
		"6-20 16:00",
		"25/6/20 16:00",
		"",
	}
	for _, raw := range invalid {
		t.Run("invalid_"+raw, func(t *testing.T) {
			_, ok := ResolveDateTime(raw, now, taipei)
			assert.False(t, ok)
		})
	}

	t.Run("leap_day_in_leap_year", func(t *testing.T) {
		_, ok := ResolveDateTime("2024/2/29 10:00", now, taipei)
		assert.True(t, ok)
	})
}

func TestResolveDateTimeShortFormProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		year := rapid.IntRange(2000, 2100).Draw(t, "year")
		month := rapid.IntRange(1, 12).Draw(t, "month")
		day := rapid.IntRange(1, 28).Draw(t, "day")
		hour := rapid.IntRange(0, 23).Draw(t, "hour")
		minute := rapid.IntRange(0, 59).Draw(t, "minute")

		now := time.Date(year, 7, 15, 12, 0, 0, 0, taipei)
		raw := fmt.Sprintf("%d/%d %d:%02d", month, day, hour, minute)

		got, ok := ResolveDateTime(raw, now, taipei)
		if !ok {
			t.Fatalf("%q did not resolve", raw)
		}
		if got.Year() != year || int(got.Month()) != month || got.Day() != day ||
			got.Hour() != hour || got.Minute() != minute {
			t.Fatalf("%q resolved to %v", raw, got)
		}
	})
}

func TestResolveDateTimeRoundTripProperty(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, taipei)

	rapid.Check(t, func(t *rapid.T) {
		year := rapid.IntRange(1970, 2999).Draw(t, "year")
		month := rapid.IntRange(1, 12).Draw(t, "month")
		day := rapid.IntRange(1, 28).Draw(t, "day")
		hour := rapid.IntRange(0, 23).Draw(t, "hour")
		minute := rapid.IntRange(0, 59).Draw(t, "minute")

		raw := fmt.Sprintf("%d/%d/%d %02d:%02d", year, month, day, hour, minute)
		got, ok := ResolveDateTime(raw, now, taipei)
		if !ok {
			t.Fatalf("%q did not resolve", raw)
		}
		if formatted := FormatDateTime(got, taipei); formatted != raw {
			t.Fatalf("round trip %q -> %q", raw, formatted)
		}
	})
}

// =============================================================================
// Command Parser Tests
// =============================================================================

func TestParseAdd(t *testing.T) {
	p := newTestParser()
	at := time.Date(2025, 6, 20, 16, 0, 0, 0, taipei)

	tests := []struct {
		name  string
		input string
		want  Command
	}{
		{
			name:  "bare_location",
			input: "小精靈 新增 6/20 16:00 奪命鎖鏈1 台北",
			want:  Add{GameRef: GameRef{Title: "奪命鎖鏈1", Location: "台北"}, EventTime: at},
		},
		{
			name:  "title_only",
			input: "小精靈 新增 6/20 16:00 奪命鎖鏈1",
			want:  Add{GameRef: GameRef{Title: "奪命鎖鏈1"}, EventTime: at},
		},
		{
			name:  "bare_location_and_choice",
			input: "小精靈 新增 6/20 16:00 奪命鎖鏈1 台北 2",
			want:  Add{GameRef: GameRef{Title: "奪命鎖鏈1", Location: "台北", ChoiceIndex: intPtr(2)}, EventTime: at},
		},
		{
			name:  "bare_choice_only",
			input: "小精靈 新增 6/20 16:00 奪命鎖鏈1 3",
			want:  Add{GameRef: GameRef{Title: "奪命鎖鏈1", ChoiceIndex: intPtr(3)}, EventTime: at},
		},
		{
			name:  "parenthesized_meta",
			input: "小精靈 新增 6/20 16:00 奪命鎖鏈1 (台北 1)",
			want:  Add{GameRef: GameRef{Title: "奪命鎖鏈1", Location: "台北", ChoiceIndex: intPtr(1)}, EventTime: at},
		},
		{
			name:  "sole_parenthesized_choice",
			input: "小精靈 新增 6/20 16:00 奪命鎖鏈1 (2)",
			want:  Add{GameRef: GameRef{Title: "奪命鎖鏈1", ChoiceIndex: intPtr(2)}, EventTime: at},
		},
		{
			name:  "full_width_parens_without_space",
			input: "小精靈 新增 6/20 16:00 奪命鎖鏈1（台北）",
			want:  Add{GameRef: GameRef{Title: "奪命鎖鏈1", Location: "台北"}, EventTime: at},
		},
		{
			name:  "multi_word_title_with_meta",
			input: "小精靈 新增 2025/6/20 16:00 偶像 出道 (新北)",
			want:  Add{GameRef: GameRef{Title: "偶像 出道", Location: "新北"}, EventTime: at},
		},
		{
			name:  "non_numeric_trailing_is_location",
			input: "小精靈 新增 6/20 16:00 奪命鎖鏈1 台北 二",
			want:  Add{GameRef: GameRef{Title: "奪命鎖鏈1", Location: "台北 二"}, EventTime: at},
		},
		{
			name:  "invalid_date_downgrades",
			input: "小精靈 新增 2/30 16:00 奪命鎖鏈1",
			want:  None{},
		},
		{
			name:  "invalid_time_downgrades",
			input: "小精靈 新增 6/20 25:00 奪命鎖鏈1",
			want:  None{},
		},
		{
			name:  "missing_title",
			input: "小精靈 新增 6/20 16:00",
			want:  None{},
		},
		{
			name:  "missing_time",
			input: "小精靈 新增 6/20 奪命鎖鏈1",
			want:  None{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Parse(tt.input))
		})
	}
}

func TestParseQueryAndDelete(t *testing.T) {
	p := newTestParser()

	tests := []struct {
		name  string
		input string
		want  Command
	}{
		{
			name:  "query_full_meta",
			input: "小精靈 查詢 奪命鎖鏈1 (6/20 16:00 台北)",
			want: Query{EventRef{
				Title:    "奪命鎖鏈1",
				When:     &When{Time: time.Date(2025, 6, 20, 16, 0, 0, 0, taipei), HasHour: true},
				Location: "台北",
			}},
		},
		{
			name:  "query_date_only",
			input: "小精靈 查詢 奪命鎖鏈1 (6/20)",
			want: Query{EventRef{
				Title: "奪命鎖鏈1",
				When:  &When{Time: time.Date(2025, 6, 20, 0, 0, 0, 0, taipei), HasHour: false},
			}},
		},
		{
			name:  "query_date_and_location",
			input: "小精靈 查詢 奪命鎖鏈1 (2025/6/20 新北)",
			want: Query{EventRef{
				Title:    "奪命鎖鏈1",
				When:     &When{Time: time.Date(2025, 6, 20, 0, 0, 0, 0, taipei), HasHour: false},
				Location: "新北",
			}},
		},
		{
			name:  "query_title_only",
			input: "小精靈 查詢 奪命鎖鏈1",
			want:  Query{EventRef{Title: "奪命鎖鏈1"}},
		},
		{
			name:  "query_multi_word_title",
			input: "小精靈 查詢 偶像 出道",
			want:  Query{EventRef{Title: "偶像 出道"}},
		},
		{
			name:  "delete_location_only",
			input: "小精靈 刪除 奪命鎖鏈1 (台北)",
			want:  Delete{EventRef{Title: "奪命鎖鏈1", Location: "台北"}},
		},
		{
			name:  "delete_invalid_date_downgrades",
			input: "小精靈 刪除 奪命鎖鏈1 (2/30 台北)",
			want:  None{},
		},
		{
			name:  "query_invalid_time_downgrades",
			input: "小精靈 查詢 奪命鎖鏈1 (6/20 24:00)",
			want:  None{},
		},
		{
			name:  "query_without_title",
			input: "小精靈 查詢 (台北)",
			want:  None{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Parse(tt.input))
		})
	}
}

func TestParseSearchAndComment(t *testing.T) {
	p := newTestParser()

	tests := []struct {
		name  string
		input string
		want  Command
	}{
		{
			name:  "search_location_and_choice",
			input: "小精靈 找主題 奪命鎖鏈1 (台北 1)",
			want:  Search{GameRef{Title: "奪命鎖鏈1", Location: "台北", ChoiceIndex: intPtr(1)}},
		},
		{
			name:  "search_title_only",
			input: "小精靈 找主題 奪命鎖鏈1",
			want:  Search{GameRef{Title: "奪命鎖鏈1"}},
		},
		{
			name:  "comment_title_only",
			input: "小精靈 看評論 奪命鎖鏈1",
			want:  Comment{GameRef{Title: "奪命鎖鏈1"}},
		},
		{
			name:  "comment_choice_zero",
			input: "小精靈 看評論 奪命鎖鏈1 (0)",
			want:  Comment{GameRef{Title: "奪命鎖鏈1", ChoiceIndex: intPtr(0)}},
		},
		{
			name:  "overflowing_choice_is_location",
			input: "小精靈 找主題 A (99999999999999999999)",
			want:  Search{GameRef{Title: "A", Location: "99999999999999999999"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Parse(tt.input))
		})
	}
}

func TestParseExactCommands(t *testing.T) {
	p := newTestParser()

	tests := []struct {
		name  string
		input string
		want  Kind
	}{
		{"query_upcomings", "小精靈 查詢所有", KindQueryUpcomings},
		{"query_history", "小精靈 查詢歷史", KindQueryHistory},
		{"help_exact", "小精靈 幫助", KindHelp},
		{"help_surrounding_space", "  小精靈   幫助  ", KindHelp},
		{"help_trailing_content", "小精靈 幫助 我", KindNone},
		{"help_trailing_meta", "小精靈 幫助 (我)", KindNone},
		{"help_glued", "小精靈幫助", KindNone},
		{"upcomings_trailing_content", "小精靈 查詢所有 奪命鎖鏈1", KindNone},
		{"history_trailing_meta", "小精靈 查詢歷史 (台北)", KindNone},
		{"help_empty_parens", "小精靈 幫助 ()", KindNone},
		{"help_glued_empty_parens", "小精靈 幫助()", KindNone},
		{"upcomings_empty_parens", "小精靈 查詢所有 ()", KindNone},
		{"history_glued_empty_parens", "小精靈 查詢歷史()", KindNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Parse(tt.input).Kind())
		})
	}
}

func TestParseNone(t *testing.T) {
	p := newTestParser()

	inputs := []string{
		"",
		"小精靈",
		"hello",
		"小精靈 跳舞",
		"小精靈 查詢 奪命鎖鏈1 (台北",
		"小精靈 查詢 奪命(鎖鏈)1",
		"小精靈 找主題 A(B) (台北)",
		"小精靈 看評論 A ((台北))",
		"其他人 查詢 奪命鎖鏈1",
	}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			assert.Equal(t, None{}, p.Parse(input))
		})
	}
}

func TestParseCustomTrigger(t *testing.T) {
	p := New(WithTrigger("bot"), WithLocation(taipei))

	assert.Equal(t, KindHelp, p.Parse("bot 幫助").Kind())
	assert.Equal(t, KindNone, p.Parse("小精靈 幫助").Kind())
	assert.True(t, p.HasTrigger(" bot 幫助"))
	assert.Equal(t, "bot", p.Trigger())
}

func TestParseNeverPanics(t *testing.T) {
	p := newTestParser()

	rapid.Check(t, func(t *rapid.T) {
		keyword := rapid.SampledFrom([]string{
			KeywordAdd, KeywordQuery, KeywordDelete, KeywordSearch, KeywordComment, KeywordHelp,
		}).Draw(t, "keyword")
		rest := rapid.StringMatching(`[0-9/: ()（）台北A]{0,20}`).Draw(t, "rest")

		cmd := p.Parse(DefaultTrigger + " " + keyword + " " + rest)
		if cmd == nil {
			t.Fatalf("nil command")
		}
	})
}

// FuzzParse feeds arbitrary chat lines to the parser.
// Run with: go test ./internal/parser -fuzz=FuzzParse -fuzztime=30s
func FuzzParse(f *testing.F) {
	seeds := []string{
		"小精靈 新增 6/20 16:00 籠中鳥 (台北 1)",
		"小精靈 新增 2025/6/20 16:00 A",
		"小精靈 查詢 A 明天 (台北)",
		"小精靈 刪除 A 6/20",
		"小精靈 找主題 A (2)",
		"小精靈 評論 A",
		"小精靈 查詢所有",
		"小精靈 幫助",
		"小精靈",
		"小精靈 新增 13/40 25:61 A",
		"hello",
		"",
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	p := newTestParser()
	f.Fuzz(func(t *testing.T, input string) {
		cmd := p.Parse(input)
		require.NotNil(t, cmd)
		if !p.HasTrigger(input) {
			assert.Equal(t, KindNone, cmd.Kind())
		}
	})
}
