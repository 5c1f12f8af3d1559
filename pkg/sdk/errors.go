package courses

import (
	"errors"

	"github.com/makoye224/cwru-courses-backend/internal/domain"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound         = domain.ErrNotFound
	ErrReviewNotFound   = domain.ErrReviewNotFound
	ErrAlreadyExists    = domain.ErrAlreadyExists
	ErrValidation       = domain.ErrValidation
	ErrRevisionConflict = domain.ErrRevisionConflict
)

// Violation is one rejected input field.
type Violation struct {
	Field   string
	Message string
}

// Violations returns the rejected fields carried by a validation error, or nil.
func Violations(err error) []Violation {
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		return nil
	}
	out := make([]Violation, len(ve.Violations))
	for i, v := range ve.Violations {
		out[i] = Violation{Field: v.Field, Message: v.Message}
	}
	return out
}
