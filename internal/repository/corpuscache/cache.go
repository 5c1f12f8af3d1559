// Package corpuscache keeps the last full course scan in memory for a bounded time.
package corpuscache

import (
	"context"
	"sync"
	"time"

	domcourse "github.com/makoye224/cwru-courses-backend/internal/domain/course"
	"github.com/makoye224/cwru-courses-backend/internal/metrics"
)

// lister is the consumer interface for the full corpus (ISP).
type lister interface {
	List(ctx context.Context) ([]domcourse.Course, error)
}

// Cache decorates a lister with a TTL snapshot. Invalidate drops the snapshot
// and also discards any load that started before the call.
type Cache struct {
	inner lister
	ttl   time.Duration
	now   func() time.Time

	mu         sync.RWMutex
	corpus     []domcourse.Course
	expiresAt  time.Time
	generation uint64
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides time.Now (tests).
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New wraps inner. A non-positive ttl disables caching.
func New(inner lister, ttl time.Duration, opts ...Option) *Cache {
	c := &Cache{inner: inner, ttl: ttl, now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c
}

// List returns the cached corpus, reloading it when expired.
// Callers must not mutate the returned slice.
func (c *Cache) List(ctx context.Context) ([]domcourse.Course, error) {
	if c.ttl <= 0 {
		return c.inner.List(ctx)
	}

	c.mu.RLock()
	corpus, fresh, gen := c.corpus, c.corpus != nil && c.now().Before(c.expiresAt), c.generation
	c.mu.RUnlock()

	if fresh {
		metrics.CorpusCacheTotal.WithLabelValues("hit").Inc()
		return corpus, nil
	}
	metrics.CorpusCacheTotal.WithLabelValues("miss").Inc()

	corpus, err := c.inner.List(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.generation == gen {
		c.corpus = corpus
		c.expiresAt = c.now().Add(c.ttl)
	}
	c.mu.Unlock()

	return corpus, nil
}

// Invalidate forgets the snapshot. Called after every successful write.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.corpus = nil
	c.generation++
	c.mu.Unlock()
}
