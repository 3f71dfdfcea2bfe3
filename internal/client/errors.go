package client

import (
	"errors"
	"fmt"
)

// Kind classifies a failure at the dashboard boundary
type Kind int

const (
	// NetworkFailure means the request never produced a usable response
	NetworkFailure Kind = iota + 1
	// BackendFailure means the backend answered and reported an error
	BackendFailure
	// ValidationFailure means a local precondition failed and no request was sent
	ValidationFailure
)

func (k Kind) String() string {
	switch k {
	case NetworkFailure:
		return "network"
	case BackendFailure:
		return "backend"
	case ValidationFailure:
		return "validation"
	default:
		return "unknown"
	}
}

// Error is returned by every Client call that fails
type Error struct {
	Kind    Kind
	Op      string // endpoint-level operation, e.g. "start-monitoring"
	Message string // backend message, kept verbatim for BackendFailure
	Status  int    // HTTP status when one was received
	Err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Unwrap exposes the underlying transport or decode error
func (e *Error) Unwrap() error {
	return e.Err
}

// NewValidationError builds a ValidationFailure for op
func NewValidationError(op, message string) *Error {
	return &Error{Kind: ValidationFailure, Op: op, Message: message}
}

// KindOf returns the failure kind carried by err, or 0 when err is not a *Error
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// MessageOf returns the user-facing message of err.
// Backend messages are returned untouched.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Message != "" {
			return e.Message
		}
		if e.Err != nil {
			return e.Err.Error()
		}
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
