// Package validate checks request payloads before any storage call.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/makoye224/cwru-courses-backend/internal/domain"
	"github.com/makoye224/cwru-courses-backend/internal/domain/course"
)

// Validator is safe for concurrent use.
type Validator struct {
	v *validator.Validate
}

// New builds a Validator that reports fields by their JSON names.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	for tag, fn := range map[string]validator.Func{"notblank": notBlank, "rating": rating} {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic("validate: register " + tag + ": " + err.Error())
		}
	}

	return &Validator{v: v}
}

// ForCreateCourse returns the violations of a create-course body.
func (val *Validator) ForCreateCourse(p course.CoursePayload) []domain.Violation {
	return val.check(p)
}

// ForCreateReview returns the violations of an add-review body.
// A missing reviewId is not a violation: the service generates one.
func (val *Validator) ForCreateReview(p course.ReviewPayload) []domain.Violation {
	return val.check(p)
}

// ForUpdateReview is ForCreateReview plus a required reviewId.
func (val *Validator) ForUpdateReview(p course.ReviewPayload) []domain.Violation {
	var out []domain.Violation
	if strings.TrimSpace(p.ReviewID) == "" {
		out = append(out, domain.Violation{Field: "reviewId", Message: "reviewId is required"})
	}
	return append(out, val.check(p)...)
}

func (val *Validator) check(s any) []domain.Violation {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []domain.Violation{{Message: err.Error()}}
	}

	out := make([]domain.Violation, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, domain.Violation{Field: fe.Field(), Message: message(fe)})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("%s is required", fe.Field())
	case "rating":
		return fmt.Sprintf("%s must be between %d and %d", fe.Field(), course.MinRating, course.MaxRating)
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func rating(fl validator.FieldLevel) bool {
	n := fl.Field().Int()
	return n >= course.MinRating && n <= course.MaxRating
}
