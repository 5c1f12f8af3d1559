package search

import (
	"context"

	domcourse "github.com/makoye224/cwru-courses-backend/internal/domain/course"
)

// CorpusReader returns the full course corpus in scan order.
type CorpusReader interface {
	List(ctx context.Context) ([]domcourse.Course, error)
}

// Matcher filters and orders a corpus for a query. Implementations are pure
// and safe for concurrent use; a blank query yields an empty result.
type Matcher interface {
	Match(corpus []domcourse.Course, query string) []domcourse.Course
	Name() string
}
