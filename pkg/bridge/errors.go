package bridge

import (
	"errors"
	"fmt"
)

// ErrorClass represents the classification of an error for retry and
// reporting purposes.
type ErrorClass string

const (
	// ClassPrecondition indicates a caller mistake: no active session,
	// missing file, empty required argument. Never retried.
	ClassPrecondition ErrorClass = "precondition"

	// ClassTransient indicates a recoverable host condition: lock
	// contention, or an automation host left in a bad internal state.
	// Absorbed by one reset-and-retry cycle.
	ClassTransient ErrorClass = "transient"

	// ClassFatal indicates an environment problem, such as the host
	// application not being installed. Retrying cannot help.
	ClassFatal ErrorClass = "fatal"

	// ClassFailure indicates an ordinary operation failure with no special
	// handling.
	ClassFailure ErrorClass = "failure"
)

// Error is a classified bridge error.
type Error struct {
	// Class is the error classification.
	Class ErrorClass `json:"class"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Op is the operation being performed when the error occurred.
	Op string `json:"op,omitempty"`

	// Err is the underlying error, if any.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		if e.Op != "" {
			return fmt.Sprintf("[%s] %s (op=%s): %v", e.Class, e.Message, e.Op, e.Err)
		}
		return fmt.Sprintf("[%s] %s: %v", e.Class, e.Message, e.Err)
	}
	if e.Op != "" {
		return fmt.Sprintf("[%s] %s (op=%s)", e.Class, e.Message, e.Op)
	}
	return fmt.Sprintf("[%s] %s", e.Class, e.Message)
}

// Unwrap returns the underlying error for error chain inspection.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithOp adds operation context to an error.
func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

// NewPreconditionError creates a new precondition error.
func NewPreconditionError(message string) *Error {
	return &Error{Class: ClassPrecondition, Message: message}
}

// NewTransientError creates a new transient error.
func NewTransientError(message string, err error) *Error {
	return &Error{Class: ClassTransient, Message: message, Err: err}
}

// NewFatalError creates a new fatal error.
func NewFatalError(message string, err error) *Error {
	return &Error{Class: ClassFatal, Message: message, Err: err}
}

// NewFailureError creates a new plain failure error.
func NewFailureError(message string, err error) *Error {
	return &Error{Class: ClassFailure, Message: message, Err: err}
}

// ClassOf returns the classification of err, or ClassFailure for
// unclassified errors.
func ClassOf(err error) ErrorClass {
	var e *Error
	if errors.As(err, &e) {
		return e.Class
	}
	return ClassFailure
}

// IsPrecondition returns true if the error is classified as a precondition
// violation.
func IsPrecondition(err error) bool {
	return ClassOf(err) == ClassPrecondition
}

// IsTransient returns true if the error is classified as transient.
func IsTransient(err error) bool {
	return ClassOf(err) == ClassTransient
}

// IsFatal returns true if the error is classified as fatal.
func IsFatal(err error) bool {
	return ClassOf(err) == ClassFatal
}
