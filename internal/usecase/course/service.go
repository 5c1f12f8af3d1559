package course

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/makoye224/cwru-courses-backend/internal/domain"
	domcourse "github.com/makoye224/cwru-courses-backend/internal/domain/course"
	"github.com/makoye224/cwru-courses-backend/internal/metrics"
)

// Retry defaults for review mutations.
const (
	DefaultMaxAttempts  = 5
	DefaultRetryBackoff = 10 * time.Millisecond
)

// Service orchestrates course CRUD and review mutations. Review mutations are
// read-modify-write cycles guarded by the store's conditional write; no
// in-process locks are taken.
type Service struct {
	repo        Repository
	validator   Validator
	invalidator Invalidator
	logger      *zap.Logger

	mode        CreateMode
	maxAttempts int
	backoff     time.Duration
	now         func() time.Time
	newID       func() string
}

// New creates a course service.
func New(repo Repository, validator Validator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:        repo,
		validator:   validator,
		logger:      logger,
		mode:        CreateReject,
		maxAttempts: DefaultMaxAttempts,
		backoff:     DefaultRetryBackoff,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// WithCreateMode configures duplicate-key handling on create.
func (s *Service) WithCreateMode(m CreateMode) *Service {
	if m != "" {
		s.mode = m
	}
	return s
}

// WithRetry configures the attempt ceiling and base backoff of review mutations.
func (s *Service) WithRetry(maxAttempts int, backoff time.Duration) *Service {
	if maxAttempts > 0 {
		s.maxAttempts = maxAttempts
	}
	if backoff >= 0 {
		s.backoff = backoff
	}
	return s
}

// WithInvalidator registers read state to drop after every successful write.
func (s *Service) WithInvalidator(inv Invalidator) *Service {
	s.invalidator = inv
	return s
}

// WithClock overrides time.Now.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithIDGenerator overrides review ID generation.
func (s *Service) WithIDGenerator(gen func() string) *Service {
	s.newID = gen
	return s
}

// Create validates and stores a new course.
func (s *Service) Create(ctx context.Context, p domcourse.CoursePayload) (domcourse.Course, error) {
	if err := domain.NewValidationError(s.validator.ForCreateCourse(p)); err != nil {
		return domcourse.Course{}, err
	}

	createdAt := p.CreatedAt
	if createdAt == "" {
		createdAt = s.timestamp()
	}
	c := domcourse.New(p.Key(), p.Description, p.CreatedBy, createdAt, p.Aliases, p.Prerequisites)

	if s.mode == CreateUpsert {
		return s.upsert(ctx, c)
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return domcourse.Course{}, fmt.Errorf("create course: %w", err)
	}
	s.invalidate()
	return c, nil
}

// upsert replaces an existing course at the next version, or creates it.
func (s *Service) upsert(ctx context.Context, c domcourse.Course) (domcourse.Course, error) {
	var current int64
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		existing, err := s.repo.Get(ctx, c.Key())
		switch {
		case errors.Is(err, domain.ErrNotFound):
			err = s.repo.Create(ctx, c)
			if err == nil {
				s.invalidate()
				return c, nil
			}
			if !errors.Is(err, domain.ErrAlreadyExists) {
				return domcourse.Course{}, fmt.Errorf("create course: %w", err)
			}
		case err != nil:
			return domcourse.Course{}, fmt.Errorf("get course: %w", err)
		default:
			current = existing.Version()
			saved, err := s.repo.Update(ctx, c.WithVersion(current))
			if err == nil {
				s.invalidate()
				return saved, nil
			}
			if !errors.Is(err, domain.ErrRevisionConflict) {
				return domcourse.Course{}, fmt.Errorf("replace course: %w", err)
			}
		}
		if err := s.wait(ctx, attempt); err != nil {
			return domcourse.Course{}, err
		}
	}
	return domcourse.Course{}, domain.NewRevisionConflict(current)
}

// Get returns a course by key.
func (s *Service) Get(ctx context.Context, key domcourse.Key) (domcourse.Course, error) {
	c, err := s.repo.Get(ctx, key)
	if err != nil {
		return domcourse.Course{}, fmt.Errorf("get course: %w", err)
	}
	return c, nil
}

// List returns every course.
func (s *Service) List(ctx context.Context) ([]domcourse.Course, error) {
	courses, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// ListByCreator returns the courses created by one user.
func (s *Service) ListByCreator(ctx context.Context, createdBy string) ([]domcourse.Course, error) {
	if strings.TrimSpace(createdBy) == "" {
		return nil, domain.NewValidationError([]domain.Violation{
			{Field: "createdBy", Message: "createdBy is required"},
		})
	}
	courses, err := s.repo.ListByCreator(ctx, createdBy)
	if err != nil {
		return nil, fmt.Errorf("list courses by creator: %w", err)
	}
	return courses, nil
}

// Delete removes a course with all its reviews.
func (s *Service) Delete(ctx context.Context, key domcourse.Key) error {
	if err := s.repo.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	s.invalidate()
	return nil
}

// AddReview appends a review. A missing reviewId is generated; a missing
// createdAt is set to now.
func (s *Service) AddReview(
	ctx context.Context, key domcourse.Key, p domcourse.ReviewPayload,
) (domcourse.Course, domcourse.Review, error) {
	if err := domain.NewValidationError(s.validator.ForCreateReview(p)); err != nil {
		return domcourse.Course{}, domcourse.Review{}, err
	}

	id := p.ReviewID
	if strings.TrimSpace(id) == "" {
		id = s.newID()
	}
	createdAt := p.CreatedAt
	if createdAt == "" {
		createdAt = s.timestamp()
	}
	r := p.Review(id, createdAt)

	c, err := s.mutate(ctx, "add_review", key, func(c domcourse.Course) (domcourse.Course, error) {
		return c.WithReview(r)
	})
	if err != nil {
		return domcourse.Course{}, domcourse.Review{}, err
	}
	return c, r, nil
}

// UpdateReview replaces the review named by reviewID. The ID from the path
// wins over any ID in the body; createdAt is kept when the body omits it.
func (s *Service) UpdateReview(
	ctx context.Context, key domcourse.Key, reviewID string, p domcourse.ReviewPayload,
) (domcourse.Course, domcourse.Review, error) {
	p.ReviewID = reviewID
	if err := domain.NewValidationError(s.validator.ForUpdateReview(p)); err != nil {
		return domcourse.Course{}, domcourse.Review{}, err
	}

	var updated domcourse.Review
	c, err := s.mutate(ctx, "update_review", key, func(c domcourse.Course) (domcourse.Course, error) {
		existing, ok := c.Review(reviewID)
		if !ok {
			return domcourse.Course{}, fmt.Errorf("review %s: %w", reviewID, domain.ErrReviewNotFound)
		}
		createdAt := p.CreatedAt
		if createdAt == "" {
			createdAt = existing.CreatedAt
		}
		updated = p.Review(reviewID, createdAt)
		return c.WithReviewReplaced(updated)
	})
	if err != nil {
		return domcourse.Course{}, domcourse.Review{}, err
	}
	return c, updated, nil
}

// DeleteReview removes the review named by reviewID.
func (s *Service) DeleteReview(ctx context.Context, key domcourse.Key, reviewID string) (domcourse.Course, error) {
	return s.mutate(ctx, "delete_review", key, func(c domcourse.Course) (domcourse.Course, error) {
		return c.WithoutReview(reviewID)
	})
}

// mutate runs get → edit → conditional update until the write lands or the
// attempt ceiling is reached. Edit errors (missing or duplicate review) fail fast.
func (s *Service) mutate(
	ctx context.Context, op string, key domcourse.Key,
	edit func(domcourse.Course) (domcourse.Course, error),
) (domcourse.Course, error) {
	var current int64
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		c, err := s.repo.Get(ctx, key)
		if err != nil {
			return domcourse.Course{}, fmt.Errorf("get course: %w", err)
		}
		current = c.Version()

		edited, err := edit(c)
		if err != nil {
			return domcourse.Course{}, err
		}

		saved, err := s.repo.Update(ctx, edited)
		if err == nil {
			metrics.CASAttemptsTotal.WithLabelValues(op, "ok").Inc()
			s.invalidate()
			return saved, nil
		}
		if !errors.Is(err, domain.ErrRevisionConflict) {
			metrics.CASAttemptsTotal.WithLabelValues(op, "error").Inc()
			return domcourse.Course{}, fmt.Errorf("update course: %w", err)
		}

		metrics.CASAttemptsTotal.WithLabelValues(op, "conflict").Inc()
		s.logger.Debug("Version conflict, retrying",
			zap.String("op", op),
			zap.String("course", key.String()),
			zap.Int64("version", current),
			zap.Int("attempt", attempt),
		)
		if attempt < s.maxAttempts {
			if err := s.wait(ctx, attempt); err != nil {
				return domcourse.Course{}, err
			}
		}
	}

	metrics.CASExhaustedTotal.WithLabelValues(op).Inc()
	s.logger.Warn("Review mutation exhausted attempts",
		zap.String("op", op),
		zap.String("course", key.String()),
		zap.Int("attempts", s.maxAttempts),
	)
	return domcourse.Course{}, domain.NewRevisionConflict(current)
}

// wait sleeps attempt² × backoff, returning early when ctx is done.
func (s *Service) wait(ctx context.Context, attempt int) error {
	d := time.Duration(attempt*attempt) * s.backoff
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (s *Service) invalidate() {
	if s.invalidator != nil {
		s.invalidator.Invalidate()
	}
}

func (s *Service) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}
