package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	domcourse "github.com/makoye224/cwru-courses-backend/internal/domain/course"
	"github.com/makoye224/cwru-courses-backend/internal/metrics"
)

// Strategy names accepted by NewMatcher.
const (
	StrategyTiered = "tiered"
	StrategyScored = "scored"
)

// Similarity names accepted by NewMatcher.
const (
	SimilarityTokens = "tokens"
	SimilarityRunes  = "runes"
)

// NewMatcher builds a matcher from configuration values. Empty strategy means tiered.
func NewMatcher(strategy, similarity string, threshold float64) (Matcher, error) {
	switch strategy {
	case "", StrategyTiered:
		return TieredMatcher{}, nil
	case StrategyScored:
		m := NewScoredMatcher()
		m.Threshold = threshold
		switch similarity {
		case "", SimilarityTokens:
			m.Similarity = JaccardTokens
		case SimilarityRunes:
			m.Similarity = JaccardRunes
		default:
			return nil, fmt.Errorf("unknown similarity %q", similarity)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown search strategy %q", strategy)
	}
}

// Service answers free-text course searches over the whole corpus.
type Service struct {
	corpus  CorpusReader
	matcher Matcher
	logger  *zap.Logger
}

// New creates a search service.
func New(corpus CorpusReader, matcher Matcher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{corpus: corpus, matcher: matcher, logger: logger}
}

// Search returns the courses matching query. A blank query returns an empty
// list without reading the corpus.
func (s *Service) Search(ctx context.Context, query string) ([]domcourse.Course, error) {
	if isBlank(query) {
		return []domcourse.Course{}, nil
	}

	start := time.Now()
	corpus, err := s.corpus.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}

	out := s.matcher.Match(corpus, query)

	strategy := s.matcher.Name()
	metrics.SearchDuration.WithLabelValues(strategy).Observe(time.Since(start).Seconds())
	metrics.SearchResults.WithLabelValues(strategy).Observe(float64(len(out)))
	s.logger.Debug("search",
		zap.String("strategy", strategy),
		zap.Int("corpus", len(corpus)),
		zap.Int("results", len(out)),
	)
	return out, nil
}
