package course

import (
	"fmt"
	"slices"

	"github.com/makoye224/cwru-courses-backend/internal/domain"
)

// Key is the composite identity of a course.
type Key struct {
	Name string
	Code string
}

func (k Key) String() string { return k.Name + "/" + k.Code }

// Course is the course aggregate. Reviews are owned by the course and only
// change through the With* methods, which keep Professors in sync.
type Course struct {
	key           Key
	description   string
	createdBy     string
	createdAt     string
	aliases       []string
	prerequisites []string
	professors    []string
	reviews       []Review
	version       int64
}

// New creates a course at version 1 with no reviews. Aliases are deduplicated
// keeping first occurrence order.
func New(key Key, description, createdBy, createdAt string, aliases, prerequisites []string) Course {
	return Course{
		key:           key,
		description:   description,
		createdBy:     createdBy,
		createdAt:     createdAt,
		aliases:       dedupe(aliases),
		prerequisites: append([]string{}, prerequisites...),
		professors:    []string{},
		reviews:       []Review{},
		version:       1,
	}
}

// Reconstruct creates a Course without normalization (storage hydration).
func Reconstruct(
	key Key, description, createdBy, createdAt string,
	aliases, prerequisites, professors []string, reviews []Review, version int64,
) Course {
	return Course{
		key: key, description: description, createdBy: createdBy, createdAt: createdAt,
		aliases: aliases, prerequisites: prerequisites, professors: professors,
		reviews: reviews, version: version,
	}
}

func (c Course) Key() Key                { return c.key }
func (c Course) Name() string            { return c.key.Name }
func (c Course) Code() string            { return c.key.Code }
func (c Course) Description() string     { return c.description }
func (c Course) CreatedBy() string       { return c.createdBy }
func (c Course) CreatedAt() string       { return c.createdAt }
func (c Course) Aliases() []string       { return c.aliases }
func (c Course) Prerequisites() []string { return c.prerequisites }
func (c Course) Professors() []string    { return c.professors }
func (c Course) Reviews() []Review       { return c.reviews }
func (c Course) Version() int64          { return c.version }

// Title is derived from the key: "<code> <name>".
func (c Course) Title() string { return c.key.Code + " " + c.key.Name }

// Review returns the review with the given ID.
func (c Course) Review(id string) (Review, bool) {
	i := c.reviewIndex(id)
	if i < 0 {
		return Review{}, false
	}
	return c.reviews[i], true
}

// WithReview returns a copy with r appended.
func (c Course) WithReview(r Review) (Course, error) {
	if c.reviewIndex(r.ID) >= 0 {
		return Course{}, fmt.Errorf("review %s: %w", r.ID, domain.ErrAlreadyExists)
	}
	reviews := make([]Review, 0, len(c.reviews)+1)
	reviews = append(reviews, c.reviews...)
	reviews = append(reviews, r)
	return c.withReviews(reviews), nil
}

// WithReviewReplaced returns a copy where the review with r.ID is replaced in place.
func (c Course) WithReviewReplaced(r Review) (Course, error) {
	i := c.reviewIndex(r.ID)
	if i < 0 {
		return Course{}, fmt.Errorf("review %s: %w", r.ID, domain.ErrReviewNotFound)
	}
	reviews := slices.Clone(c.reviews)
	reviews[i] = r
	return c.withReviews(reviews), nil
}

// WithoutReview returns a copy with the review removed.
func (c Course) WithoutReview(id string) (Course, error) {
	i := c.reviewIndex(id)
	if i < 0 {
		return Course{}, fmt.Errorf("review %s: %w", id, domain.ErrReviewNotFound)
	}
	return c.withReviews(slices.Delete(slices.Clone(c.reviews), i, i+1)), nil
}

// WithVersion returns a copy carrying version v.
func (c Course) WithVersion(v int64) Course {
	c.version = v
	return c
}

func (c Course) withReviews(reviews []Review) Course {
	c.reviews = reviews
	c.professors = Professors(reviews)
	return c
}

func (c Course) reviewIndex(id string) int {
	return slices.IndexFunc(c.reviews, func(r Review) bool { return r.ID == id })
}

// Professors derives the distinct non-empty professor names in review order.
func Professors(reviews []Review) []string {
	out := make([]string, 0, len(reviews))
	for _, r := range reviews {
		if r.Professor == "" || slices.Contains(out, r.Professor) {
			continue
		}
		out = append(out, r.Professor)
	}
	return out
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}
