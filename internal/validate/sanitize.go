package validate

import (
	"strings"
	"unicode"
)

// StripControlChars removes control characters except newlines and tabs.
func StripControlChars(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if !unicode.IsControl(r) || r == '\n' || r == '\t' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// TruncateRunes shortens s to at most maxRunes runes, ending with "..." when cut.
func TruncateRunes(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}

// CollapseSpaces trims s and joins its fields with single spaces.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
