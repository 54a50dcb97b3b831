package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

var folder = cases.Fold()

// Prepare case-folds text, drops apostrophes, turns any other non-alphanumeric
// rune into a separator, and collapses whitespace.
func Prepare(text string) string {
	folded := folder.String(text)
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '\'' || r == '’':
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Tokenize returns the prepared tokens of text.
func Tokenize(text string) []string {
	return strings.Fields(Prepare(text))
}
