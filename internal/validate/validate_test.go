package validate

import (
	"testing"

	"github.com/makoye224/cwru-courses-backend/internal/domain"
	"github.com/makoye224/cwru-courses-backend/internal/domain/course"
)

func ptr[T any](v T) *T { return &v }

func validReview() course.ReviewPayload {
	return course.ReviewPayload{
		CreatedBy:  "u1",
		Overall:    ptr(8),
		Difficulty: ptr(6),
		Usefulness: ptr(9),
		Anonymous:  ptr(false),
		Professor:  "Smith",
	}
}

func fields(vs []domain.Violation) map[string]string {
	m := make(map[string]string, len(vs))
	for _, v := range vs {
		m[v.Field] = v.Message
	}
	return m
}

func TestForCreateCourse(t *testing.T) {
	v := New()

	ok := course.CoursePayload{Name: "Discrete Math", Code: "CSDS101", CreatedBy: "u1"}
	if got := v.ForCreateCourse(ok); len(got) != 0 {
		t.Fatalf("valid course rejected: %v", got)
	}

	got := fields(v.ForCreateCourse(course.CoursePayload{Name: "  ", Description: "x"}))
	for _, f := range []string{"name", "code", "createdBy"} {
		if got[f] != f+" is required" {
			t.Errorf("violation for %s = %q", f, got[f])
		}
	}
	if len(got) != 3 {
		t.Errorf("expected 3 violations, got %v", got)
	}
}

func TestForCreateReview_Valid(t *testing.T) {
	if got := New().ForCreateReview(validReview()); len(got) != 0 {
		t.Fatalf("valid review rejected: %v", got)
	}
}

func TestForCreateReview_AnonymousFalseIsPresent(t *testing.T) {
	p := validReview()
	p.Anonymous = ptr(false)
	if got := New().ForCreateReview(p); len(got) != 0 {
		t.Fatalf("anonymous=false rejected: %v", got)
	}
}

func TestForCreateReview_RatingBounds(t *testing.T) {
	tests := []struct {
		value int
		ok    bool
	}{
		{0, false}, {1, true}, {5, true}, {10, true}, {11, false}, {-3, false},
	}
	v := New()
	for _, tc := range tests {
		p := validReview()
		p.Difficulty = ptr(tc.value)
		got := fields(v.ForCreateReview(p))
		if tc.ok && len(got) != 0 {
			t.Errorf("difficulty=%d rejected: %v", tc.value, got)
		}
		if !tc.ok && got["difficulty"] != "difficulty must be between 1 and 10" {
			t.Errorf("difficulty=%d: violations = %v", tc.value, got)
		}
	}
}

func TestForCreateReview_MissingFields(t *testing.T) {
	got := fields(New().ForCreateReview(course.ReviewPayload{}))
	want := map[string]string{
		"createdBy":  "createdBy is required",
		"overall":    "overall is required",
		"difficulty": "difficulty is required",
		"usefulness": "usefulness is required",
		"anonymous":  "anonymous is required",
	}
	if len(got) != len(want) {
		t.Fatalf("violations = %v", got)
	}
	for f, msg := range want {
		if got[f] != msg {
			t.Errorf("%s: got %q, want %q", f, got[f], msg)
		}
	}
}

func TestForCreateReview_NoReviewIDNeeded(t *testing.T) {
	p := validReview()
	p.ReviewID = ""
	if got := New().ForCreateReview(p); len(got) != 0 {
		t.Fatalf("violations = %v", got)
	}
}

func TestForUpdateReview(t *testing.T) {
	v := New()

	p := validReview()
	got := fields(v.ForUpdateReview(p))
	if got["reviewId"] != "reviewId is required" || len(got) != 1 {
		t.Errorf("violations = %v", got)
	}

	p.ReviewID = "r1"
	if got := v.ForUpdateReview(p); len(got) != 0 {
		t.Errorf("valid update rejected: %v", got)
	}

	p.Overall = nil
	got = fields(v.ForUpdateReview(p))
	if got["overall"] != "overall is required" {
		t.Errorf("violations = %v", got)
	}
}

func TestNew_RegistersCustomTags(t *testing.T) {
	type tagged struct {
		Label string `json:"label" validate:"notblank"`
		Score int    `json:"score" validate:"rating"`
	}

	got := fields(New().check(tagged{Label: " \t", Score: 11}))
	if got["label"] != "label is required" {
		t.Errorf("notblank: got %q", got["label"])
	}
	if got["score"] != "score must be between 1 and 10" {
		t.Errorf("rating: got %q", got["score"])
	}
}
