// Package ferrors defines the error taxonomy shared by every component of
// the blob storage pipeline. It adapts the prefixed, wrapped Error type
// from the teacher's fluid/errors.go, swapping the free-form error code
// enum for the fixed Kind set the pipeline's callers need to branch on,
// and using github.com/pkg/errors for cause wrapping instead of a
// hand-rolled wrapped-error field.
package ferrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies an Error so callers can branch on the taxonomy without
// string matching. The zero value is not a valid Kind.
type Kind int

// The error kinds a blob pipeline operation can surface.
const (
	_ Kind = iota
	NotFound
	IntegrityFailure
	StorageFailure
	Forbidden
	SizeExceeded
	PaymentFailure
)

var kindNames = [...]string{
	"",
	"NotFound",
	"IntegrityFailure",
	"StorageFailure",
	"Forbidden",
	"SizeExceeded",
	"PaymentFailure",
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	if int(k) < 0 || int(k) >= len(kindNames) {
		return "Unknown"
	}
	return kindNames[k]
}

// Error is the concrete error type returned by every exported pipeline
// operation. It always carries a Kind so callers can classify failures
// (see spec.md §7) and optionally wraps an underlying cause.
type Error struct {
	Kind    Kind   // the taxonomy this error belongs to
	Message string // a human readable description
	cause   error  // the wrapped underlying error, if any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Message, e.cause.Error())
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Cause returns the wrapped error, implementing the github.com/pkg/errors
// Causer interface so errors.Cause(err) unwraps correctly.
func (e *Error) Cause() error {
	return e.cause
}

// Unwrap supports errors.Is/errors.As from the standard library.
func (e *Error) Unwrap() error {
	return e.cause
}

// New creates an Error of the given Kind with no wrapped cause.
func New(kind Kind, message string) error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an Error of the given Kind, formatting the message.
func Newf(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error of the given Kind, wrapping cause with a stack
// trace via github.com/pkg/errors so the original failure site survives.
func Wrap(kind Kind, cause error, message string) error {
	if cause == nil {
		return New(kind, message)
	}
	return &Error{Kind: kind, Message: message, cause: errors.WithStack(cause)}
}

// Wrapf is Wrap with format arguments.
func Wrapf(kind Kind, cause error, format string, args ...interface{}) error {
	return Wrap(kind, cause, fmt.Sprintf(format, args...))
}

// Is reports whether err is a pipeline Error of the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// KindOf returns the Kind of err if it is (or wraps) a pipeline Error, and
// false otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return 0, false
	}
	return e.Kind, true
}
