package output

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/kipper0508/escape-bot/internal/model"
)

// Styles for CLI output.
var (
	colorPrimary = lipgloss.Color("#7C3AED")
	colorMuted   = lipgloss.Color("#6B7280")
	colorWarning = lipgloss.Color("#F59E0B")
	colorError   = lipgloss.Color("#EF4444")
	colorSuccess = lipgloss.Color("#10B981")

	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	styleSuccess = lipgloss.NewStyle().
			Foreground(colorSuccess)

	styleWarning = lipgloss.NewStyle().
			Foreground(colorWarning)

	styleError = lipgloss.NewStyle().
			Foreground(colorError)

	styleMuted = lipgloss.NewStyle().
			Foreground(colorMuted)

	styleBold = lipgloss.NewStyle().
			Bold(true)
)

// CLIFormatter provides CLI-specific formatting.
type CLIFormatter struct {
	*Formatter
}

// NewCLIFormatter creates a new CLI formatter.
func NewCLIFormatter(f *Formatter) *CLIFormatter {
	return &CLIFormatter{Formatter: f}
}

func (c *CLIFormatter) render(style lipgloss.Style, text string) string {
	if c.IsColorEnabled() {
		return style.Render(text)
	}
	return text
}

// Title prints a title.
func (c *CLIFormatter) Title(text string) {
	c.Println(c.render(styleTitle, text))
}

// Success prints a success message.
func (c *CLIFormatter) Success(text string) {
	c.Println(c.render(styleSuccess, "✓ "+text))
}

// Warning prints a warning message.
func (c *CLIFormatter) Warning(text string) {
	c.Println(c.render(styleWarning, "⚠ "+text))
}

// Error prints an error message.
func (c *CLIFormatter) Error(text string) {
	c.Println(c.render(styleError, "✗ "+text))
}

// Muted prints muted text.
func (c *CLIFormatter) Muted(text string) {
	c.Println(c.render(styleMuted, text))
}

// PrintEvents prints events as a table, with the time until each one.
func (c *CLIFormatter) PrintEvents(title string, events []*model.Event, now time.Time) {
	c.Title(title)
	if len(events) == 0 {
		c.Muted("No events.")
		return
	}

	rows := make([]TableRow, 0, len(events))
	for _, e := range events {
		reminded := "-"
		if e.Reminded {
			reminded = "✓"
		}
		rows = append(rows, TableRow{Columns: []string{
			e.ShortID(),
			c.FormatTime(e.EventTime),
			FormatUntil(now, e.EventTime),
			e.Title,
			e.Location,
			reminded,
		}})
	}
	c.PrintTable([]string{"ID", "TIME", "WHEN", "GAME", "LOCATION", "REMINDED"}, rows)
}

// TableRow is one table line.
type TableRow struct {
	Columns []string
}

// PrintTable prints a table padded by display width, so CJK titles line up.
func (c *CLIFormatter) PrintTable(headers []string, rows []TableRow) {
	if len(rows) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, col := range row.Columns {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(col))
			}
		}
	}

	c.Println(c.render(styleBold, line(headers, widths)))

	var sep strings.Builder
	for _, w := range widths {
		sep.WriteString(strings.Repeat("─", w) + "  ")
	}
	c.Println(strings.TrimRight(sep.String(), " "))

	for _, row := range rows {
		c.Println(line(row.Columns, widths))
	}
}

func line(cols []string, widths []int) string {
	var b strings.Builder
	for i, col := range cols {
		if i >= len(widths) {
			break
		}
		b.WriteString(col)
		b.WriteString(strings.Repeat(" ", widths[i]-lipgloss.Width(col)+2))
	}
	return strings.TrimRight(b.String(), " ")
}
