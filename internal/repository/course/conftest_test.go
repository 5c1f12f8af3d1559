package course

import (
	"context"
	"iter"
	"testing"

	"github.com/makoye224/cwru-courses-backend/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	getFn    func(ctx context.Context, key db.Key) (db.Item, error)
	putFn    func(ctx context.Context, item db.Item, cond db.Precondition) error
	queryFn  func(ctx context.Context, index, value string) iter.Seq2[db.Item, error]
	scanFn   func(ctx context.Context) iter.Seq2[db.Item, error]
	deleteFn func(ctx context.Context, key db.Key) error
}

func (m *mockStore) Get(ctx context.Context, key db.Key) (db.Item, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return db.Item{}, db.ErrKeyNotFound
}

func (m *mockStore) Put(ctx context.Context, item db.Item, cond db.Precondition) error {
	if m.putFn != nil {
		return m.putFn(ctx, item, cond)
	}
	return nil
}

func (m *mockStore) QueryByIndex(ctx context.Context, index, value string) iter.Seq2[db.Item, error] {
	if m.queryFn != nil {
		return m.queryFn(ctx, index, value)
	}
	return items()
}

func (m *mockStore) ScanAll(ctx context.Context) iter.Seq2[db.Item, error] {
	if m.scanFn != nil {
		return m.scanFn(ctx)
	}
	return items()
}

func (m *mockStore) Delete(ctx context.Context, key db.Key) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, key)
	}
	return nil
}

// items yields the given items in order.
func items(in ...db.Item) iter.Seq2[db.Item, error] {
	return func(yield func(db.Item, error) bool) {
		for _, it := range in {
			if !yield(it, nil) {
				return
			}
		}
	}
}

// failing yields one item and then err.
func failing(first db.Item, err error) iter.Seq2[db.Item, error] {
	return func(yield func(db.Item, error) bool) {
		if !yield(first, nil) {
			return
		}
		yield(db.Item{}, err)
	}
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms), ms
}
