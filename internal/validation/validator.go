// Package validation checks command requests with validator/v10 and turns
// failures into field-level errors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/genrewiki/genrewiki-server/internal/errors"
)

// FieldError is one failed rule, keyed by the field's JSON name.
type FieldError struct {
	Field  string
	Reason string
}

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator configured for our domain.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" {
			return fld.Name
		}
		return name
	})

	return &Validator{v: v}
}

// Check validates s and returns the failing fields in declaration order, or
// nil when s is valid.
func (v *Validator) Check(s any) []FieldError {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return []FieldError{{Field: "request", Reason: err.Error()}}
	}

	fields := make([]FieldError, 0, len(validationErrs))
	for _, e := range validationErrs {
		fields = append(fields, FieldError{Field: e.Field(), Reason: friendlyMessage(e)})
	}
	return fields
}

// Validate validates a struct and returns an *errors.Error with one detail
// per failing field.
func (v *Validator) Validate(s any) error {
	fields := v.Check(s)
	if fields == nil {
		return nil
	}

	details := make(map[string]string, len(fields))
	for _, f := range fields {
		details[f.Field] = f.Reason
	}
	return apperrors.ValidationWithDetails("validation failed", details)
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		if e.Kind() == reflect.Slice {
			return fmt.Sprintf("must have at least %s entries", e.Param())
		}
		return fmt.Sprintf("must be at least %s characters", e.Param())
	case "max":
		if e.Kind() == reflect.Slice {
			return fmt.Sprintf("must not have more than %s entries", e.Param())
		}
		return fmt.Sprintf("must not exceed %s characters", e.Param())
	case "oneof":
		return "must be one of: " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	default:
		return "is invalid"
	}
}
