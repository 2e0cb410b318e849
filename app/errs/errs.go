// Package errs defines the error kinds shared by stores, services and controllers.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means no record matched. For tasks it also covers records the
	// caller is not allowed to see, so existence is not leaked.
	ErrNotFound = errors.New("not found")
	// ErrForbidden means the caller is authenticated but lacks rights.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict means a uniqueness rule was violated.
	ErrConflict = errors.New("conflict")
	// ErrUnauthorized means credentials were missing or invalid.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrRateLimited means the caller exceeded an outbound quota.
	ErrRateLimited = errors.New("rate limited")
	// ErrUnavailable means an optional upstream is not configured.
	ErrUnavailable = errors.New("unavailable")
)

// ValidationError reports malformed input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

// Validation builds a ValidationError for field.
func Validation(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err wraps a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// Detail wraps kind with a caller-facing message. errors.Is(err, kind) still holds.
func Detail(kind error, format string, args ...any) error {
	return &detailError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

type detailError struct {
	kind error
	msg  string
}

func (e *detailError) Error() string { return e.msg }
func (e *detailError) Unwrap() error { return e.kind }
