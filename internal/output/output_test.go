package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kipper0508/escape-bot/internal/model"
	"github.com/kipper0508/escape-bot/internal/parser"
)

var (
	taipei = time.FixedZone("Asia/Taipei", 8*60*60)
	now    = time.Date(2025, 6, 19, 12, 0, 0, 0, taipei)
)

func newBuffered(format Format) (*Formatter, *bytes.Buffer) {
	var buf bytes.Buffer
	return &Formatter{Writer: &buf, Format: format, ColorMode: ColorNever, Location: taipei}, &buf
}

func sampleEvent(title string, at time.Time) *model.Event {
	e := model.NewEvent(title, "台北", at, model.Creator{ID: "G1", Kind: model.CreatorGroup})
	e.SetKey(model.GenerateEventKey("abcdef123456"))
	return e
}

// =============================================================================
// Formatter Tests
// =============================================================================

func TestNewFormatter(t *testing.T) {
	f := NewFormatter()
	assert.Equal(t, FormatCLI, f.Format)
	assert.Equal(t, ColorAuto, f.ColorMode)
	assert.False(t, f.IsJSON())
}

func TestParseFlags(t *testing.T) {
	assert.Equal(t, FormatJSON, ParseFormat("json"))
	assert.Equal(t, FormatCLI, ParseFormat("yaml"))
	assert.Equal(t, ColorNever, ParseColorMode("never"))
	assert.Equal(t, ColorAuto, ParseColorMode("sometimes"))
}

func TestFormatterIsColorEnabled(t *testing.T) {
	t.Run("color_always", func(t *testing.T) {
		f := &Formatter{ColorMode: ColorAlways}
		assert.True(t, f.IsColorEnabled())
	})

	t.Run("color_never", func(t *testing.T) {
		f := &Formatter{ColorMode: ColorNever}
		assert.False(t, f.IsColorEnabled())
	})

	t.Run("color_auto_non_terminal", func(t *testing.T) {
		f := &Formatter{Writer: &bytes.Buffer{}, ColorMode: ColorAuto}
		assert.False(t, f.IsColorEnabled())
	})
}

func TestFormatterFormatTime(t *testing.T) {
	f, _ := newBuffered(FormatCLI)
	assert.Equal(t, "2025-06-19 12:00", f.FormatTime(now.UTC()))
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name string
		d    time.Duration
		want string
	}{
		{"seconds", 30 * time.Second, "30s"},
		{"minutes", 45 * time.Minute, "45m"},
		{"hours", 3 * time.Hour, "3h"},
		{"hours_minutes", 3*time.Hour + 5*time.Minute, "3h 5m"},
		{"days", 48 * time.Hour, "2d"},
		{"days_hours", 50 * time.Hour, "2d 2h"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDuration(tt.d))
		})
	}
}

func TestFormatUntil(t *testing.T) {
	assert.Equal(t, "in 1d", FormatUntil(now, now.Add(24*time.Hour)))
	assert.Equal(t, "2h ago", FormatUntil(now, now.Add(-2*time.Hour)))
}

// =============================================================================
// CLIFormatter Tests
// =============================================================================

func TestCLIFormatterMessages(t *testing.T) {
	f, buf := newBuffered(FormatCLI)
	cli := NewCLIFormatter(f)

	cli.Success("sent")
	cli.Warning("late")
	cli.Error("failed")
	cli.Muted("quiet")

	assert.Equal(t, "✓ sent\n⚠ late\n✗ failed\nquiet\n", buf.String())
}

func TestCLIFormatterPrintEvents(t *testing.T) {
	t.Run("with_events", func(t *testing.T) {
		f, buf := newBuffered(FormatCLI)
		e := sampleEvent("籠中鳥", now.Add(26*time.Hour))
		e.Reminded = true

		NewCLIFormatter(f).PrintEvents("Upcoming", []*model.Event{e}, now)
		out := buf.String()

		assert.Contains(t, out, "Upcoming")
		assert.Contains(t, out, "abcdef")
		assert.Contains(t, out, "2025-06-20 14:00")
		assert.Contains(t, out, "in 1d 2h")
		assert.Contains(t, out, "籠中鳥")
		assert.Contains(t, out, "✓")
	})

	t.Run("empty", func(t *testing.T) {
		f, buf := newBuffered(FormatCLI)
		NewCLIFormatter(f).PrintEvents("History", nil, now)
		assert.Equal(t, "History\nNo events.\n", buf.String())
	})
}

func TestCLIFormatterPrintTableAlignsWideRunes(t *testing.T) {
	f, buf := newBuffered(FormatCLI)
	NewCLIFormatter(f).PrintTable([]string{"GAME", "ID"}, []TableRow{
		{Columns: []string{"籠中鳥", "a"}},
		{Columns: []string{"Lost", "b"}},
	})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	// "籠中鳥" is six columns wide, so both IDs start at column 8.
	assert.Equal(t, "籠中鳥  a", lines[2])
	assert.Equal(t, "Lost    b", lines[3])
}

func TestCLIFormatterPrintTableEmpty(t *testing.T) {
	f, buf := newBuffered(FormatCLI)
	NewCLIFormatter(f).PrintTable([]string{"GAME"}, nil)
	assert.Empty(t, buf.String())
}

// =============================================================================
// JSONFormatter Tests
// =============================================================================

func TestJSONFormatterPrintEvents(t *testing.T) {
	f, buf := newBuffered(FormatJSON)
	e := sampleEvent("籠中鳥", now.Add(26*time.Hour))

	require.NoError(t, NewJSONFormatter(f).PrintEvents([]*model.Event{e}))

	var resp EventsResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
	require.Len(t, resp.Events, 1)
	assert.Equal(t, "abcdef123456", resp.Events[0].ID)
	assert.Equal(t, "group:G1", resp.Events[0].Creator)
	assert.True(t, resp.Events[0].RemindAt.Equal(now.Add(2*time.Hour)))
	assert.Contains(t, buf.String(), "籠中鳥")
}

func TestJSONFormatterPrintCommand(t *testing.T) {
	t.Run("add", func(t *testing.T) {
		f, buf := newBuffered(FormatJSON)
		cmd := parser.Add{GameRef: parser.GameRef{Title: "籠中鳥", Location: "台北"}, EventTime: now}
		require.NoError(t, NewJSONFormatter(f).PrintCommand("小精靈 新增 ...", cmd))

		var got map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, "add", got["kind"])
		command := got["command"].(map[string]any)
		assert.Equal(t, "籠中鳥", command["title"])
		assert.Equal(t, "台北", command["location"])
	})

	t.Run("none_has_no_body", func(t *testing.T) {
		f, buf := newBuffered(FormatJSON)
		require.NoError(t, NewJSONFormatter(f).PrintCommand("hi", parser.None{}))
		assert.NotContains(t, buf.String(), `"command"`)
	})
}

func TestJSONFormatterPrintError(t *testing.T) {
	f, buf := newBuffered(FormatJSON)
	require.NoError(t, NewJSONFormatter(f).PrintError(errors.New("boom"), "retry"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, ErrorResponse{Status: "error", Error: "boom", Suggestion: "retry"}, resp)
}
