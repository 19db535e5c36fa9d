package parser

import (
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/width"
)

// fullWidthParens narrows only the full-width parentheses; every other rune,
// including full-width digits and letters, passes through untouched.
var fullWidthParens = runes.If(runes.Predicate(func(r rune) bool {
	return r == '（' || r == '）'
}), width.Narrow, nil)

// Normalize replaces full-width parentheses with ASCII ones and trims
// surrounding whitespace.
func Normalize(s string) string {
	out, _, err := transform.String(fullWidthParens, s)
	if err != nil {
		out = strings.NewReplacer("（", "(", "）", ")").Replace(s)
	}
	return strings.TrimSpace(out)
}
