package chi

import (
	"github.com/makoye224/cwru-courses-backend/internal/domain"
	domcourse "github.com/makoye224/cwru-courses-backend/internal/domain/course"
)

// ErrorCode is the machine-readable error kind in an ErrorResponse.
type ErrorCode string

// Error codes returned by the API.
const (
	ErrorCodeBadRequest       ErrorCode = "bad_request"
	ErrorCodeValidationFailed ErrorCode = "validation_failed"
	ErrorCodeUnauthorized     ErrorCode = "unauthorized"
	ErrorCodeNotFound         ErrorCode = "not_found"
	ErrorCodeReviewNotFound   ErrorCode = "review_not_found"
	ErrorCodeAlreadyExists    ErrorCode = "already_exists"
	ErrorCodeRevisionConflict ErrorCode = "revision_conflict"
	ErrorCodeMethodNotAllowed ErrorCode = "method_not_allowed"
	ErrorCodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code            ErrorCode          `json:"code"`
	Message         string             `json:"message"`
	Violations      []domain.Violation `json:"violations,omitempty"`
	CurrentRevision *int64             `json:"current_revision,omitempty"`
}

// ReviewResponse is the wire form of a review.
type ReviewResponse struct {
	ReviewID           string `json:"reviewId"`
	CreatedBy          string `json:"createdBy"`
	Overall            int    `json:"overall"`
	Difficulty         int    `json:"difficulty"`
	Usefulness         int    `json:"usefulness"`
	Major              string `json:"major,omitempty"`
	Anonymous          bool   `json:"anonymous"`
	AdditionalComments string `json:"additionalComments,omitempty"`
	Tips               string `json:"tips,omitempty"`
	CreatedAt          string `json:"createdAt"`
	Professor          string `json:"professor,omitempty"`
}

// CourseResponse is the wire form of a course.
type CourseResponse struct {
	Name          string           `json:"name"`
	Code          string           `json:"code"`
	Title         string           `json:"title"`
	Description   string           `json:"description"`
	Aliases       []string         `json:"aliases"`
	Prerequisites []string         `json:"prerequisites"`
	Professors    []string         `json:"professors"`
	Reviews       []ReviewResponse `json:"reviews"`
	CreatedBy     string           `json:"createdBy"`
	CreatedAt     string           `json:"createdAt"`
	Version       int64            `json:"version"`
}

// CourseListResponse wraps list and search results.
type CourseListResponse struct {
	Items []CourseResponse `json:"items"`
	Total int              `json:"total"`
}

// SearchRequest is the body of POST /search.
type SearchRequest struct {
	Query string `json:"query"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func reviewToResponse(r domcourse.Review) ReviewResponse {
	return ReviewResponse{
		ReviewID:           r.ID,
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

func courseToResponse(c domcourse.Course) CourseResponse {
	reviews := make([]ReviewResponse, len(c.Reviews()))
	for i, r := range c.Reviews() {
		reviews[i] = reviewToResponse(r)
	}
	return CourseResponse{
		Name:          c.Name(),
		Code:          c.Code(),
		Title:         c.Title(),
		Description:   c.Description(),
		Aliases:       nonNil(c.Aliases()),
		Prerequisites: nonNil(c.Prerequisites()),
		Professors:    nonNil(c.Professors()),
		Reviews:       reviews,
		CreatedBy:     c.CreatedBy(),
		CreatedAt:     c.CreatedAt(),
		Version:       c.Version(),
	}
}

func coursesToResponse(cs []domcourse.Course) CourseListResponse {
	items := make([]CourseResponse, len(cs))
	for i, c := range cs {
		items[i] = courseToResponse(c)
	}
	return CourseListResponse{Items: items, Total: len(items)}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
