package courses

import domcourse "github.com/makoye224/cwru-courses-backend/internal/domain/course"

// Course is a catalog course with its embedded reviews.
type Course struct {
	Name          string
	Code          string
	Title         string
	Description   string
	Aliases       []string
	Prerequisites []string
	Professors    []string
	Reviews       []Review
	CreatedBy     string
	CreatedAt     string
	Version       int64
}

// Review is one student's review of a course.
type Review struct {
	ID                 string
	CreatedBy          string
	Overall            int
	Difficulty         int
	Usefulness         int
	Major              string
	Anonymous          bool
	AdditionalComments string
	Tips               string
	CreatedAt          string
	Professor          string
}

// CourseInput creates a course. CreatedAt defaults to now.
type CourseInput struct {
	Name          string
	Code          string
	Description   string
	Aliases       []string
	Prerequisites []string
	CreatedBy     string
	CreatedAt     string
}

// ReviewInput adds or replaces a review. An empty ID is generated on add.
// Ratings must be within [1, 10].
type ReviewInput struct {
	ID                 string
	CreatedBy          string
	Overall            int
	Difficulty         int
	Usefulness         int
	Major              string
	Anonymous          bool
	AdditionalComments string
	Tips               string
	CreatedAt          string
	Professor          string
}

func (in CourseInput) payload() domcourse.CoursePayload {
	return domcourse.CoursePayload{
		Name:          in.Name,
		Code:          in.Code,
		Description:   in.Description,
		Aliases:       in.Aliases,
		Prerequisites: in.Prerequisites,
		CreatedBy:     in.CreatedBy,
		CreatedAt:     in.CreatedAt,
	}
}

func (in ReviewInput) payload() domcourse.ReviewPayload {
	return domcourse.ReviewPayload{
		ReviewID:           in.ID,
		CreatedBy:          in.CreatedBy,
		Overall:            &in.Overall,
		Difficulty:         &in.Difficulty,
		Usefulness:         &in.Usefulness,
		Major:              in.Major,
		Anonymous:          &in.Anonymous,
		AdditionalComments: in.AdditionalComments,
		Tips:               in.Tips,
		CreatedAt:          in.CreatedAt,
		Professor:          in.Professor,
	}
}

func reviewFromDomain(r domcourse.Review) Review {
	return Review{
		ID:                 r.ID,
		CreatedBy:          r.CreatedBy,
		Overall:            r.Overall,
		Difficulty:         r.Difficulty,
		Usefulness:         r.Usefulness,
		Major:              r.Major,
		Anonymous:          r.Anonymous,
		AdditionalComments: r.AdditionalComments,
		Tips:               r.Tips,
		CreatedAt:          r.CreatedAt,
		Professor:          r.Professor,
	}
}

func courseFromDomain(c domcourse.Course) Course {
	reviews := make([]Review, len(c.Reviews()))
	for i, r := range c.Reviews() {
		reviews[i] = reviewFromDomain(r)
	}
	return Course{
		Name:          c.Name(),
		Code:          c.Code(),
		Title:         c.Title(),
		Description:   c.Description(),
		Aliases:       c.Aliases(),
		Prerequisites: c.Prerequisites(),
		Professors:    c.Professors(),
		Reviews:       reviews,
		CreatedBy:     c.CreatedBy(),
		CreatedAt:     c.CreatedAt(),
		Version:       c.Version(),
	}
}

func coursesFromDomain(cs []domcourse.Course) []Course {
	out := make([]Course, len(cs))
	for i, c := range cs {
		out[i] = courseFromDomain(c)
	}
	return out
}
