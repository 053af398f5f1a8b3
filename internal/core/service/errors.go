package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnauthorized         = errors.New("unauthorized")
	ErrNotFound             = errors.New("not found")
	ErrDuplicateRequest     = errors.New("duplicate request")
	ErrGeocodingUnavailable = errors.New("geocoding unavailable")
)

// ValidationError lists every problem found in a create or replace payload.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) add(format string, args ...any) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

// orNil keeps a typed nil from escaping as a non-nil error.
func (e *ValidationError) orNil() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}

// DependencyConflictError blocks a delete while meal plans still use the item.
type DependencyConflictError struct {
	ItemName  string
	MealPlans []string
}

func (e *DependencyConflictError) Error() string {
	return fmt.Sprintf(
		"Cannot delete %s as it is used in the following meal plans: %s. Please delete these meal plans first.",
		e.ItemName, strings.Join(e.MealPlans, ", "),
	)
}

// MissingFieldError is raised when a patch omits a field that must always be sent.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field %q", e.Field)
}

// InvalidFieldError is raised when a strict patch field cannot be applied.
type InvalidFieldError struct {
	Field  string
	Value  string
	Reason string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("invalid value %q for field %q: %s", e.Value, e.Field, e.Reason)
}
