// Package errors provides sentinel errors and the wrapped error type shared by
// the dispatcher, the stores and the transport adapters.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors. Use errors.Is() to check them.
var (
	// ErrNotFound indicates a requested resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates an inbound payload the core cannot use.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoReply indicates the event was handled and nothing should be sent back.
	ErrNoReply = errors.New("no reply")

	// ErrCardNotFound indicates a card asset is missing from the catalog.
	ErrCardNotFound = errors.New("card not found")

	// ErrStoreUnavailable indicates the availability store could not be used.
	ErrStoreUnavailable = errors.New("availability store unavailable")
)

// ValidationError represents a malformed inbound field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// Unwrap makes every ValidationError match ErrInvalidInput.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// IsInternalFault reports whether err should be surfaced as a server-side
// failure rather than an expected outcome.
func IsInternalFault(err error) bool {
	return err != nil && !errors.Is(err, ErrNoReply) && !errors.Is(err, ErrInvalidInput)
}
