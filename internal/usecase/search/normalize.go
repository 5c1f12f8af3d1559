package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// fold applies Unicode case folding. A Caser is stateful, so one is built per call.
func fold(s string) string {
	return cases.Fold().String(s)
}

// normalize folds case and drops every whitespace rune, including
// non-breaking and figure spaces, so "CSDS 101" and "csds101" compare equal.
func normalize(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, fold(s))
}

func isBlank(s string) bool {
	return strings.TrimFunc(s, unicode.IsSpace) == ""
}
