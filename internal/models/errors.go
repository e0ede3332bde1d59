package models

import (
	"errors"
	"fmt"
)

// ErrDependencyUnavailable marks an external service that is not configured
// (missing credentials). Callers degrade gracefully instead of failing.
var ErrDependencyUnavailable = errors.New("dependency unavailable")

// ValidationError rejects malformed input before any side effect happens.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidationError creates a validation error for a single field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// DependencyFailure wraps an error from an external call that was made but
// failed. Recovered locally where a fallback exists, otherwise logged.
type DependencyFailure struct {
	Service string
	Err     error
}

func (e *DependencyFailure) Error() string {
	return fmt.Sprintf("%s call failed: %v", e.Service, e.Err)
}

func (e *DependencyFailure) Unwrap() error {
	return e.Err
}

// PersistenceFailure is the only error class that surfaces as a 5xx: the
// session state transition must be durable.
type PersistenceFailure struct {
	Op  string
	Err error
}

func (e *PersistenceFailure) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceFailure) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is a validation error
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsPersistence reports whether err is a persistence failure
func IsPersistence(err error) bool {
	var pe *PersistenceFailure
	return errors.As(err, &pe)
}
