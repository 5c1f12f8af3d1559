package search

import (
	"slices"
	"strings"

	domcourse "github.com/makoye224/cwru-courses-backend/internal/domain/course"
)

// TieredMatcher returns the first non-empty tier of substring matches on the
// normalized query: code, then name, then any professor. Scan order is kept.
type TieredMatcher struct{}

// Name identifies the strategy in metrics and logs.
func (TieredMatcher) Name() string { return "tiered" }

// Match implements Matcher.
func (TieredMatcher) Match(corpus []domcourse.Course, query string) []domcourse.Course {
	q := normalize(query)
	if q == "" {
		return []domcourse.Course{}
	}

	tiers := []func(domcourse.Course) bool{
		func(c domcourse.Course) bool { return strings.Contains(normalize(c.Code()), q) },
		func(c domcourse.Course) bool { return strings.Contains(normalize(c.Name()), q) },
		func(c domcourse.Course) bool {
			return slices.ContainsFunc(c.Professors(), func(p string) bool {
				return strings.Contains(normalize(p), q)
			})
		},
	}

	for _, match := range tiers {
		var out []domcourse.Course
		for _, c := range corpus {
			if match(c) {
				out = append(out, c)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return []domcourse.Course{}
}
