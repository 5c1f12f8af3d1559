package course

// CoursePayload is the decoded body of a create-course request.
type CoursePayload struct {
	Name          string   `json:"name" validate:"notblank"`
	Code          string   `json:"code" validate:"notblank"`
	Description   string   `json:"description"`
	Aliases       []string `json:"aliases"`
	Prerequisites []string `json:"prerequisites"`
	CreatedBy     string   `json:"createdBy" validate:"notblank"`
	CreatedAt     string   `json:"createdAt"`
}

// Key returns the identity named by the payload.
func (p CoursePayload) Key() Key { return Key{Name: p.Name, Code: p.Code} }

// ReviewPayload is the decoded body of an add- or update-review request.
// Ratings and Anonymous are pointers so a missing field is distinguishable from zero.
type ReviewPayload struct {
	ReviewID           string `json:"reviewId"`
	CreatedBy          string `json:"createdBy" validate:"notblank"`
	Overall            *int   `json:"overall" validate:"required,rating"`
	Difficulty         *int   `json:"difficulty" validate:"required,rating"`
	Usefulness         *int   `json:"usefulness" validate:"required,rating"`
	Major              string `json:"major"`
	Anonymous          *bool  `json:"anonymous" validate:"required"`
	AdditionalComments string `json:"additionalComments"`
	Tips               string `json:"tips"`
	CreatedAt          string `json:"createdAt"`
	Professor          string `json:"professor"`
}

// Review builds a Review from a validated payload. The caller supplies the
// final ID and creation time.
func (p ReviewPayload) Review(id, createdAt string) Review {
	return Review{
		ID:                 id,
		CreatedBy:          p.CreatedBy,
		Overall:            deref(p.Overall),
		Difficulty:         deref(p.Difficulty),
		Usefulness:         deref(p.Usefulness),
		Major:              p.Major,
		Anonymous:          deref(p.Anonymous),
		AdditionalComments: p.AdditionalComments,
		Tips:               p.Tips,
		CreatedAt:          createdAt,
		Professor:          p.Professor,
	}
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
