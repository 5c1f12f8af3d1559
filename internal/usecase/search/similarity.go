package search

import (
	"strings"
	"unicode"
)

// Similarity scores two strings in [0, 1]. Blank input scores 0.
type Similarity func(a, b string) float64

// JaccardTokens is the Jaccard index of the case-folded whitespace-separated token sets.
func JaccardTokens(a, b string) float64 {
	return jaccard(strings.FieldsFunc(fold(a), unicode.IsSpace), strings.FieldsFunc(fold(b), unicode.IsSpace))
}

// JaccardRunes is the Jaccard index of the case-folded character sets,
// whitespace included. It rewards shared letters rather than shared words.
func JaccardRunes(a, b string) float64 {
	if isBlank(a) || isBlank(b) {
		return 0
	}
	return jaccard([]rune(fold(a)), []rune(fold(b)))
}

func jaccard[T comparable](a, b []T) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[T]uint8, len(a)+len(b))
	for _, x := range a {
		set[x] |= 1
	}
	for _, x := range b {
		set[x] |= 2
	}
	var inter int
	for _, m := range set {
		if m == 3 {
			inter++
		}
	}
	return float64(inter) / float64(len(set))
}
