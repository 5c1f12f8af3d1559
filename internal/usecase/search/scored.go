package search

import (
	"slices"

	domcourse "github.com/makoye224/cwru-courses-backend/internal/domain/course"
)

// DefaultThreshold is the minimum score a course must exceed to be returned.
const DefaultThreshold = 0.25

// Weights combine per-field similarities into a course score.
// Professor and Major weigh the fields of a single review.
type Weights struct {
	Title       float64
	Description float64
	Alias       float64
	Review      float64
	Professor   float64
	Major       float64
}

// DefaultWeights returns the stock weighting.
func DefaultWeights() Weights {
	return Weights{
		Title:       0.4,
		Description: 0.1,
		Alias:       0.2,
		Review:      0.3,
		Professor:   0.6,
		Major:       0.4,
	}
}

// ScoredMatcher ranks every course by weighted field similarity and keeps the
// ones scoring strictly above Threshold, best first. Ties keep scan order.
type ScoredMatcher struct {
	Weights    Weights
	Threshold  float64
	Similarity Similarity
}

// NewScoredMatcher returns a matcher with default weights, threshold and token similarity.
func NewScoredMatcher() ScoredMatcher {
	return ScoredMatcher{Weights: DefaultWeights(), Threshold: DefaultThreshold, Similarity: JaccardTokens}
}

// Name identifies the strategy in metrics and logs.
func (m ScoredMatcher) Name() string { return "scored" }

// Match implements Matcher.
func (m ScoredMatcher) Match(corpus []domcourse.Course, query string) []domcourse.Course {
	if isBlank(query) {
		return []domcourse.Course{}
	}

	type scoredCourse struct {
		course domcourse.Course
		score  float64
	}
	kept := make([]scoredCourse, 0, len(corpus))
	for _, c := range corpus {
		if s := m.Score(c, query); s > m.Threshold {
			kept = append(kept, scoredCourse{course: c, score: s})
		}
	}

	slices.SortStableFunc(kept, func(a, b scoredCourse) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		default:
			return 0
		}
	})

	out := make([]domcourse.Course, len(kept))
	for i, k := range kept {
		out[i] = k.course
	}
	return out
}

// Score computes the weighted relevance of c for query.
func (m ScoredMatcher) Score(c domcourse.Course, query string) float64 {
	sim := m.Similarity
	if sim == nil {
		sim = JaccardTokens
	}
	w := m.Weights

	var alias float64
	for _, a := range c.Aliases() {
		alias = max(alias, sim(a, query))
	}
	var review float64
	for _, r := range c.Reviews() {
		review = max(review, sim(r.Professor, query)*w.Professor+sim(r.Major, query)*w.Major)
	}

	return sim(c.Title(), query)*w.Title +
		sim(c.Description(), query)*w.Description +
		alias*w.Alias +
		review*w.Review
}
