package course

// Rating bounds, inclusive.
const (
	MinRating = 1
	MaxRating = 10
)

// Review is one student's review of a course. ID is unique within its course.
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
