package course

import (
	"context"

	"github.com/makoye224/cwru-courses-backend/internal/domain"
	domcourse "github.com/makoye224/cwru-courses-backend/internal/domain/course"
)

// Repository defines the storage contract for courses.
type Repository interface {
	Create(ctx context.Context, c domcourse.Course) error
	Get(ctx context.Context, key domcourse.Key) (domcourse.Course, error)
	// Update writes c if the stored version equals c.Version() and returns the course at its new version.
	Update(ctx context.Context, c domcourse.Course) (domcourse.Course, error)
	List(ctx context.Context) ([]domcourse.Course, error)
	ListByCreator(ctx context.Context, createdBy string) ([]domcourse.Course, error)
	Delete(ctx context.Context, key domcourse.Key) error
}

// Validator checks request payloads.
type Validator interface {
	ForCreateCourse(p domcourse.CoursePayload) []domain.Violation
	ForCreateReview(p domcourse.ReviewPayload) []domain.Violation
	ForUpdateReview(p domcourse.ReviewPayload) []domain.Violation
}

// Invalidator drops derived read state after a write (corpus cache).
type Invalidator interface {
	Invalidate()
}

// CreateMode selects what CreateCourse does when the key already exists.
type CreateMode string

const (
	// CreateReject fails with domain.ErrAlreadyExists.
	CreateReject CreateMode = "reject"
	// CreateUpsert replaces the stored course, reviews included, at the next version.
	CreateUpsert CreateMode = "upsert"
)
