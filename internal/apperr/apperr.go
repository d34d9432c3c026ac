// Package apperr defines the error kinds shared by the stores, the services and the
// HTTP layer. Stores and services return them; only the HTTP layer maps them to status
// codes.
package apperr

import (
	"errors"
	"net/http"
)

// Sentinel kinds. Anything that does not match one of them is an internal fault.
var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrConflict        = errors.New("conflict")
	ErrNotFound        = errors.New("not found")
)

// Error carries a user-facing message alongside its kind.
type Error struct {
	Kind    error
	Message string
	Field   string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return e.Kind.Error() + ": " + e.Field + ": " + e.Message
	}
	return e.Kind.Error() + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Kind }

// New returns an error of the given kind with a user-facing message.
func New(kind error, message string) error {
	return &Error{Kind: kind, Message: message}
}

// Validation returns an ErrValidation error pointing at a single input field.
func Validation(field, message string) error {
	return &Error{Kind: ErrValidation, Message: message, Field: field}
}

// Status maps an error onto the HTTP status code it should be reported with.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Code returns the stable machine-readable code for an error.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "VALIDATION_FAILED"
	case errors.Is(err, ErrUnauthenticated):
		return "UNAUTHENTICATED"
	case errors.Is(err, ErrForbidden):
		return "FORBIDDEN"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrConflict):
		return "CONFLICT"
	default:
		return "INTERNAL"
	}
}

// Message returns the user-facing message of err, or fallback when err carries none.
func Message(err error, fallback string) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}

// FieldOf returns the offending input field, if any.
func FieldOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}
