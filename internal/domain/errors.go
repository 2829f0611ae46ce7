package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an id does not match any stored entity
	ErrNotFound = errors.New("entity not found")

	// ErrStorageUnavailable is returned when the backing store cannot be read or written
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrCorruptData is returned when a stored value cannot be decoded
	ErrCorruptData = errors.New("stored data is corrupt")

	// ErrInvalidTransition is returned when a status change is not allowed
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrValidation is the parent of every ValidationError
	ErrValidation = errors.New("validation failed")

	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoSession          = errors.New("no active session")
)

// ValidationError reports a single rejected field
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Invalid is a shorthand for building a ValidationError
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
