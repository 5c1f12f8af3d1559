package course

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/makoye224/cwru-courses-backend/internal/db"
	"github.com/makoye224/cwru-courses-backend/internal/domain"
	domcourse "github.com/makoye224/cwru-courses-backend/internal/domain/course"
)

// store is the consumer interface for course items (ISP).
type store interface {
	Get(ctx context.Context, key db.Key) (db.Item, error)
	Put(ctx context.Context, item db.Item, cond db.Precondition) error
	QueryByIndex(ctx context.Context, index, value string) iter.Seq2[db.Item, error]
	ScanAll(ctx context.Context) iter.Seq2[db.Item, error]
	Delete(ctx context.Context, key db.Key) error
}

// Repo implements usecase/course.Repository and usecase/search.CorpusReader.
type Repo struct {
	store store
}

// New creates a course repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Create stores a new course. An existing key yields domain.ErrAlreadyExists.
func (r *Repo) Create(ctx context.Context, c domcourse.Course) error {
	item, err := toItem(c)
	if err != nil {
		return err
	}
	if err := r.store.Put(ctx, item, db.Absent()); err != nil {
		if errors.Is(err, db.ErrVersionConflict) {
			return fmt.Errorf("course %s: %w", c.Key(), domain.ErrAlreadyExists)
		}
		return fmt.Errorf("put %s: %w", c.Key(), err)
	}
	return nil
}

// Get returns a course by key.
func (r *Repo) Get(ctx context.Context, key domcourse.Key) (domcourse.Course, error) {
	item, err := r.store.Get(ctx, dbKey(key))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domcourse.Course{}, fmt.Errorf("course %s: %w", key, domain.ErrNotFound)
		}
		return domcourse.Course{}, fmt.Errorf("get %s: %w", key, err)
	}
	return fromItem(item)
}

// Update writes c back if the stored version still equals c.Version(), and
// returns the course at its new version. A lost race yields domain.ErrRevisionConflict.
func (r *Repo) Update(ctx context.Context, c domcourse.Course) (domcourse.Course, error) {
	expected := c.Version()
	next := c.WithVersion(expected + 1)

	item, err := toItem(next)
	if err != nil {
		return domcourse.Course{}, err
	}
	if err := r.store.Put(ctx, item, db.AtVersion(expected)); err != nil {
		if errors.Is(err, db.ErrVersionConflict) {
			return domcourse.Course{}, fmt.Errorf("course %s at version %d: %w", c.Key(), expected, domain.ErrRevisionConflict)
		}
		return domcourse.Course{}, fmt.Errorf("put %s: %w", c.Key(), err)
	}
	return next, nil
}

// List returns every course in scan order.
func (r *Repo) List(ctx context.Context) ([]domcourse.Course, error) {
	out, err := collect(r.store.ScanAll(ctx))
	if err != nil {
		return nil, fmt.Errorf("scan courses: %w", err)
	}
	return out, nil
}

// ListByCreator returns the courses created by createdBy via the secondary index.
func (r *Repo) ListByCreator(ctx context.Context, createdBy string) ([]domcourse.Course, error) {
	out, err := collect(r.store.QueryByIndex(ctx, db.IndexCreatedBy, createdBy))
	if err != nil {
		return nil, fmt.Errorf("query courses by %s: %w", createdBy, err)
	}
	return out, nil
}

// Delete removes a course and its reviews.
func (r *Repo) Delete(ctx context.Context, key domcourse.Key) error {
	if err := r.store.Delete(ctx, dbKey(key)); err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return fmt.Errorf("course %s: %w", key, domain.ErrNotFound)
		}
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func collect(seq iter.Seq2[db.Item, error]) ([]domcourse.Course, error) {
	out := []domcourse.Course{}
	for item, err := range seq {
		if err != nil {
			return nil, err
		}
		c, err := fromItem(item)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func dbKey(k domcourse.Key) db.Key {
	return db.Key{Name: k.Name, Code: k.Code}
}
