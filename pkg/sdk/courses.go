package courses

import (
	"context"
	"time"

	domcourse "github.com/makoye224/cwru-courses-backend/internal/domain/course"
)

// CreateCourse stores a new course at version 1.
// Returns ErrAlreadyExists for a known key unless the client was built WithUpsert.
func (c *Client) CreateCourse(ctx context.Context, in CourseInput) (_ Course, err error) {
	start := time.Now()
	defer func() { c.obs.observe("create_course", start, err) }()

	created, err := c.courses.Create(ctx, in.payload())
	if err != nil {
		return Course{}, err //nolint:wrapcheck // domain sentinels are part of the API
	}
	return courseFromDomain(created), nil
}

// Course returns one course by name and code.
func (c *Client) Course(ctx context.Context, name, code string) (_ Course, err error) {
	start := time.Now()
	defer func() { c.obs.observe("get_course", start, err) }()

	found, err := c.courses.Get(ctx, domcourse.Key{Name: name, Code: code})
	if err != nil {
		return Course{}, err //nolint:wrapcheck // domain sentinels are part of the API
	}
	return courseFromDomain(found), nil
}

// Courses returns every course in storage scan order.
func (c *Client) Courses(ctx context.Context) (_ []Course, err error) {
	start := time.Now()
	defer func() { c.obs.observe("list_courses", start, err) }()

	all, err := c.courses.List(ctx)
	if err != nil {
		return nil, err //nolint:wrapcheck // domain sentinels are part of the API
	}
	return coursesFromDomain(all), nil
}

// CoursesBy returns the courses created by createdBy.
func (c *Client) CoursesBy(ctx context.Context, createdBy string) (_ []Course, err error) {
	start := time.Now()
	defer func() { c.obs.observe("list_by_creator", start, err) }()

	found, err := c.courses.ListByCreator(ctx, createdBy)
	if err != nil {
		return nil, err //nolint:wrapcheck // domain sentinels are part of the API
	}
	return coursesFromDomain(found), nil
}

// DeleteCourse removes a course and its reviews.
func (c *Client) DeleteCourse(ctx context.Context, name, code string) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("delete_course", start, err) }()

	return c.courses.Delete(ctx, domcourse.Key{Name: name, Code: code}) //nolint:wrapcheck // domain sentinels are part of the API
}

// AddReview appends a review and returns it with its final ID.
func (c *Client) AddReview(ctx context.Context, name, code string, in ReviewInput) (_ Review, err error) {
	start := time.Now()
	defer func() { c.obs.observe("add_review", start, err) }()

	_, r, err := c.courses.AddReview(ctx, domcourse.Key{Name: name, Code: code}, in.payload())
	if err != nil {
		return Review{}, err //nolint:wrapcheck // domain sentinels are part of the API
	}
	return reviewFromDomain(r), nil
}

// UpdateReview replaces the review reviewID. in.ID is ignored.
func (c *Client) UpdateReview(
	ctx context.Context, name, code, reviewID string, in ReviewInput,
) (_ Review, err error) {
	start := time.Now()
	defer func() { c.obs.observe("update_review", start, err) }()

	_, r, err := c.courses.UpdateReview(ctx, domcourse.Key{Name: name, Code: code}, reviewID, in.payload())
	if err != nil {
		return Review{}, err //nolint:wrapcheck // domain sentinels are part of the API
	}
	return reviewFromDomain(r), nil
}

// DeleteReview removes the review reviewID.
func (c *Client) DeleteReview(ctx context.Context, name, code, reviewID string) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("delete_review", start, err) }()

	_, err = c.courses.DeleteReview(ctx, domcourse.Key{Name: name, Code: code}, reviewID)
	return err //nolint:wrapcheck // domain sentinels are part of the API
}

// Search returns the courses matching query. A blank query matches nothing.
func (c *Client) Search(ctx context.Context, query string) (_ []Course, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err) }()

	found, err := c.search.Search(ctx, query)
	if err != nil {
		return nil, err //nolint:wrapcheck // domain sentinels are part of the API
	}
	return coursesFromDomain(found), nil
}
