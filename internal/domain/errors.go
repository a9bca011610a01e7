package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound signals that an explicitly requested catalog item does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation signals malformed caller input.
	ErrValidation = errors.New("validation failed")
	// ErrStoreUnavailable signals that the catalog store cannot be reached or timed out.
	ErrStoreUnavailable = errors.New("catalog store unavailable")
	// ErrRateLimited signals a rate limit hit on the AI provider.
	ErrRateLimited = errors.New("rate limited")
	// ErrAIProviderError signals any other AI provider failure.
	ErrAIProviderError = errors.New("ai provider error")
	// ErrMalformedAIResponse signals AI output that could not be parsed.
	ErrMalformedAIResponse = errors.New("malformed ai response")
)

// ValidationError describes which caller field was rejected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrValidation.Error(), e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a validation error for a single field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// NotFoundError lists the identifiers that did not resolve.
type NotFoundError struct {
	IDs []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s", ErrNotFound.Error(), strings.Join(e.IDs, ", "))
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewNotFound creates a not-found error for the given identifiers.
func NewNotFound(ids ...string) error {
	return &NotFoundError{IDs: ids}
}
