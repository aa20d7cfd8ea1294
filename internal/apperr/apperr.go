// Package apperr defines the error kinds shared by every layer and their
// HTTP status mapping.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Error kinds. Domain errors wrap exactly one of these.
var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrDuplicate    = errors.New("already exists")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrStorage      = errors.New("storage error")
	ErrTimeout      = errors.New("operation timed out")
)

// Error carries a kind, a client-facing message and an optional cause.
type Error struct {
	Kind      error
	Msg       string
	Retryable bool
	Cause     error
}

func (e *Error) Error() string {
	if e.Cause != nil && e.Kind == ErrStorage && !e.Retryable {
		return fmt.Sprintf("%s: %v", e.Msg, e.Cause)
	}
	return e.Msg
}

// Is reports whether target is the kind of e.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an error of the given kind.
func New(kind error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Storage wraps a driver error as a storage failure.
func Storage(op string, cause error) error {
	if cause == nil {
		return nil
	}
	if errors.Is(cause, context.DeadlineExceeded) {
		return Timeout(op)
	}
	return &Error{Kind: ErrStorage, Msg: op, Cause: cause}
}

// Timeout reports that op did not finish before its deadline.
func Timeout(op string) error {
	return &Error{Kind: ErrTimeout, Msg: op + ": operation timed out", Retryable: true}
}

// Aborted reports a transaction rolled back because a concurrent writer won
// a race. Nothing was persisted and the caller may retry.
func Aborted(msg string, cause error) error {
	return &Error{Kind: ErrStorage, Msg: msg, Retryable: true, Cause: cause}
}

// IsRetryable reports whether the caller may retry the same request.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// StatusOf maps an error to its HTTP status code.
func StatusOf(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the text safe to show a client.
func Message(err error) string {
	if StatusOf(err) == http.StatusInternalServerError && !IsRetryable(err) {
		return "internal server error"
	}
	return err.Error()
}
