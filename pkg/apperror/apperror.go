// Package apperror defines the error kinds services return and how they map
// onto HTTP responses.
package apperror

import (
	"errors"
	"net/http"
	"sort"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("authentication required")
)

// ValidationError carries field-level messages keyed by input field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Field builds a ValidationError with a single message.
func Field(name, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{name: message}}
}

// Forbidden wraps ErrForbidden with a user-facing message.
func Forbidden(message string) error {
	return &statusError{kind: ErrForbidden, message: message}
}

// NotFound wraps ErrNotFound with a user-facing message.
func NotFound(message string) error {
	return &statusError{kind: ErrNotFound, message: message}
}

// Unauthorized wraps ErrUnauthorized with a user-facing message.
func Unauthorized(message string) error {
	return &statusError{kind: ErrUnauthorized, message: message}
}

type statusError struct {
	kind    error
	message string
}

func (e *statusError) Error() string { return e.message }
func (e *statusError) Unwrap() error { return e.kind }

// Status maps err to an HTTP status code.
func Status(err error) int {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the text safe to show to the caller.
func Message(err error) string {
	var verr *ValidationError
	var serr *statusError
	switch {
	case errors.As(err, &verr):
		return "Validation failed"
	case errors.As(err, &serr):
		return serr.message
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, ErrNotFound):
		return "Not found"
	case errors.Is(err, ErrUnauthorized):
		return "Authentication required"
	case errors.Is(err, ErrForbidden):
		return "Access denied"
	default:
		return "Internal server error"
	}
}
