// Package domain defines core types, gateway ports, and errors for the
// Google Cloud client library.
package domain

import "fmt"

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ValidationError indicates invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// PreconditionError indicates an operation was called in a state that does
// not allow it, such as fetching the next page of a final page.
type PreconditionError struct {
	Message string
}

func (e *PreconditionError) Error() string { return e.Message }

// RemoteCallError wraps a transport or API failure other than "not found".
type RemoteCallError struct {
	Op         string // gateway operation, e.g. "jobs.get"
	StatusCode int    // HTTP status, 0 for transport failures
	Reason     string // first API error reason, if any
	Message    string
	Err        error
}

func (e *RemoteCallError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: remote call failed (%d %s): %s", e.Op, e.StatusCode, e.Reason, e.Message)
	}
	return fmt.Sprintf("%s: remote call failed: %s", e.Op, e.Message)
}

func (e *RemoteCallError) Unwrap() error { return e.Err }

// MalformedResponseError indicates a wire value could not be coerced to the
// type declared by its schema field.
type MalformedResponseError struct {
	Field string
	Type  FieldType
	Value any
	Err   error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed value %#v for field %q of type %s: %v", e.Value, e.Field, e.Type, e.Err)
	}
	return fmt.Sprintf("malformed value %#v for field %q of type %s", e.Value, e.Field, e.Type)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrPrecondition creates a PreconditionError with a formatted message.
func ErrPrecondition(format string, args ...interface{}) *PreconditionError {
	return &PreconditionError{Message: fmt.Sprintf(format, args...)}
}
