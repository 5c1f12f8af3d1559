package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/makoye224/cwru-courses-backend/internal/db"
)

func TestPut_Preconditions(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	key := db.Key{Name: "Discrete Math", Code: "CSDS101"}

	if err := s.Put(ctx, db.Item{Key: key, Version: 1}, db.Absent()); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Put(ctx, db.Item{Key: key, Version: 1}, db.Absent()); !errors.Is(err, db.ErrVersionConflict) {
		t.Fatalf("second create: expected ErrVersionConflict, got %v", err)
	}
	if err := s.Put(ctx, db.Item{Key: key, Version: 2}, db.AtVersion(1)); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := s.Put(ctx, db.Item{Key: key, Version: 2}, db.AtVersion(1)); !errors.Is(err, db.ErrVersionConflict) {
		t.Fatalf("stale update: expected ErrVersionConflict, got %v", err)
	}
	if err := s.Put(ctx, db.Item{Key: db.Key{Name: "x", Code: "y"}, Version: 2}, db.AtVersion(1)); !errors.Is(err, db.ErrVersionConflict) {
		t.Fatalf("update of missing key: expected ErrVersionConflict, got %v", err)
	}
	if err := s.Put(ctx, db.Item{Key: key, Version: 7}, db.Any()); err != nil {
		t.Fatalf("unconditional: %v", err)
	}

	got, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Version != 7 {
		t.Errorf("version = %d, want 7", got.Version)
	}
}

func TestGet_ReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	key := db.Key{Name: "a", Code: "b"}
	_ = s.Put(ctx, db.Item{Key: key, Version: 1, Attributes: map[string]string{"title": "t"}}, db.Any())

	got, _ := s.Get(ctx, key)
	got.Attributes["title"] = "mutated"

	again, _ := s.Get(ctx, key)
	if again.Attr("title") != "t" {
		t.Errorf("stored item was mutated through Get result")
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	key := db.Key{Name: "a", Code: "b"}
	_ = s.Put(ctx, db.Item{Key: key, Version: 1}, db.Any())

	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, key); !errors.Is(err, db.ErrKeyNotFound) {
		t.Fatalf("second delete: expected ErrKeyNotFound, got %v", err)
	}
	if _, err := s.Get(ctx, key); !errors.Is(err, db.ErrKeyNotFound) {
		t.Fatalf("get after delete: expected ErrKeyNotFound, got %v", err)
	}
}

func TestQueryByIndex(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	for _, k := range []struct{ name, by string }{{"b", "u1"}, {"a", "u1"}, {"c", "u2"}} {
		_ = s.Put(ctx, db.Item{
			Key:        db.Key{Name: k.name, Code: "1"},
			Version:    1,
			Attributes: map[string]string{db.IndexCreatedBy: k.by},
		}, db.Any())
	}

	items, err := db.Collect(s.QueryByIndex(ctx, db.IndexCreatedBy, "u1"))
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(items) != 2 || items[0].Key.Name != "a" || items[1].Key.Name != "b" {
		t.Errorf("unexpected items: %+v", items)
	}

	if _, err := db.Collect(s.QueryByIndex(ctx, "title", "x")); !errors.Is(err, db.ErrIndexNotFound) {
		t.Errorf("expected ErrIndexNotFound, got %v", err)
	}
}

func TestScanAll_EarlyStop(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	for _, n := range []string{"a", "b", "c"} {
		_ = s.Put(ctx, db.Item{Key: db.Key{Name: n, Code: "1"}, Version: 1}, db.Any())
	}

	var seen int
	for _, err := range s.ScanAll(ctx) {
		if err != nil {
			t.Fatal(err)
		}
		seen++
		if seen == 2 {
			break
		}
	}
	if seen != 2 {
		t.Errorf("seen = %d, want 2", seen)
	}
}

func TestPut_ConcurrentAbsent_OneWinner(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	key := db.Key{Name: "a", Code: "b"}

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Put(ctx, db.Item{Key: key, Version: 1}, db.Absent()); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("wins = %d, want 1", wins)
	}
}
