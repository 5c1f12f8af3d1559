// Package memory is an in-process db.Store used by tests and single-instance runs.
package memory

import (
	"cmp"
	"context"
	"iter"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/makoye224/cwru-courses-backend/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Store keeps items in a map guarded by a mutex. Preconditions are evaluated
// under the write lock, giving the same atomicity as the remote backends.
type Store struct {
	mu    sync.RWMutex
	items map[db.Key]db.Item
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{items: make(map[db.Key]db.Item)}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() {}

func (s *Store) WaitForReady(context.Context, time.Duration) error { return nil }

func (s *Store) Get(_ context.Context, key db.Key) (db.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.items[key]
	if !ok {
		return db.Item{}, db.ErrKeyNotFound
	}
	return clone(it), nil
}

func (s *Store) Put(_ context.Context, item db.Item, cond db.Precondition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, exists := s.items[item.Key]
	if !cond.Allows(exists, cur.Version) {
		return db.ErrVersionConflict
	}
	s.items[item.Key] = clone(item)
	return nil
}

func (s *Store) Delete(_ context.Context, key db.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[key]; !ok {
		return db.ErrKeyNotFound
	}
	delete(s.items, key)
	return nil
}

func (s *Store) QueryByIndex(_ context.Context, index, value string) iter.Seq2[db.Item, error] {
	return func(yield func(db.Item, error) bool) {
		if index != db.IndexCreatedBy {
			yield(db.Item{}, db.ErrIndexNotFound)
			return
		}
		for _, it := range s.snapshot() {
			if it.Attr(index) != value {
				continue
			}
			if !yield(it, nil) {
				return
			}
		}
	}
}

func (s *Store) ScanAll(context.Context) iter.Seq2[db.Item, error] {
	return func(yield func(db.Item, error) bool) {
		for _, it := range s.snapshot() {
			if !yield(it, nil) {
				return
			}
		}
	}
}

// snapshot copies items ordered by key so iteration is deterministic and
// never holds the lock while yielding.
func (s *Store) snapshot() []db.Item {
	s.mu.RLock()
	out := make([]db.Item, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, clone(it))
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b db.Item) int {
		return cmp.Or(cmp.Compare(a.Key.Name, b.Key.Name), cmp.Compare(a.Key.Code, b.Key.Code))
	})
	return out
}

func clone(it db.Item) db.Item {
	it.Attributes = maps.Clone(it.Attributes)
	return it
}
