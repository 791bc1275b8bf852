// Package errors defines the error taxonomy shared by reqstream packages.
package errors

import (
	"errors"
	"fmt"
)

// Common error types used across the reqstream library

var (
	// ErrClosed indicates that an operation was attempted on a closed resource
	ErrClosed = errors.New("resource is closed")

	// ErrTimeout indicates that an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrCapacityExceeded indicates that a capacity limit was exceeded
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrInvalidConfiguration indicates invalid configuration parameters
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrRateLimited indicates that a request was rate limited
	ErrRateLimited = errors.New("rate limited")

	// ErrIllegalState indicates an operation that is not allowed in the
	// current lifecycle state, such as admitting to a terminated stream
	ErrIllegalState = errors.New("illegal state")

	// ErrProducerPanic marks an operation whose producer panicked
	ErrProducerPanic = errors.New("producer panicked")

	// ErrAborted is the cancellation cause recorded when a queued operation
	// is aborted by a terminating stream
	ErrAborted = errors.New("operation aborted")
)

// ValidationError describes an invalid configuration value.
type ValidationError struct {
	Module string
	Field  string
	Value  interface{}
	Reason string
	Hint   string
}

// NewValidationError creates a ValidationError without a hint.
func NewValidationError(module, field string, value interface{}, reason string) *ValidationError {
	return &ValidationError{
		Module: module,
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

// WithHint attaches a remediation hint and returns the same instance.
func (e *ValidationError) WithHint(hint string) *ValidationError {
	e.Hint = hint
	return e
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s: invalid %s=%v (%s)", e.Module, e.Field, e.Value, e.Reason)
	if e.Hint != "" {
		msg += " - " + e.Hint
	}
	return msg
}

// Unwrap returns ErrInvalidConfiguration so callers can match with errors.Is.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfiguration
}

// OperationError wraps the failure of a single operation. Producer failures
// delivered through a stream outcome are always OperationErrors.
type OperationError struct {
	Module    string
	Operation string
	Cause     error
	Context   string
}

// NewOperationError creates an OperationError for module.operation.
func NewOperationError(module, operation string, cause error) *OperationError {
	return &OperationError{
		Module:    module,
		Operation: operation,
		Cause:     cause,
	}
}

// WithContext attaches free-form context and returns the same instance.
func (e *OperationError) WithContext(context string) *OperationError {
	e.Context = context
	return e
}

func (e *OperationError) Error() string {
	msg := fmt.Sprintf("%s.%s failed: %v", e.Module, e.Operation, e.Cause)
	if e.Context != "" {
		msg += " (" + e.Context + ")"
	}
	return msg
}

func (e *OperationError) Unwrap() error {
	return e.Cause
}

// IllegalStateError is returned when an operation is rejected because of
// the lifecycle state of its receiver. It matches ErrIllegalState.
type IllegalStateError struct {
	Module    string
	Operation string
	State     string
}

// NewIllegalStateError creates an IllegalStateError.
func NewIllegalStateError(module, operation, state string) *IllegalStateError {
	return &IllegalStateError{
		Module:    module,
		Operation: operation,
		State:     state,
	}
}

func (e *IllegalStateError) Error() string {
	return fmt.Sprintf("%s.%s: %v: %s", e.Module, e.Operation, ErrIllegalState, e.State)
}

func (e *IllegalStateError) Unwrap() error {
	return ErrIllegalState
}

// ListenerError wraps an error returned by an event listener. It is
// propagated to whoever triggered the emission.
type ListenerError struct {
	Event string
	Cause error
}

func (e *ListenerError) Error() string {
	return fmt.Sprintf("listener for event %q failed: %v", e.Event, e.Cause)
}

func (e *ListenerError) Unwrap() error {
	return e.Cause
}

// IsRetryable returns true if the error indicates a condition that might
// be resolved by retrying the operation
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrRateLimited)
}

// IsTemporary returns true if the error indicates a temporary condition
func IsTemporary(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrCapacityExceeded)
}

// IsValidationError reports whether err is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// IsIllegalState reports whether err is or wraps ErrIllegalState.
func IsIllegalState(err error) bool {
	return errors.Is(err, ErrIllegalState)
}

// IsListenerError reports whether err is or wraps a ListenerError.
func IsListenerError(err error) bool {
	var lerr *ListenerError
	return errors.As(err, &lerr)
}
