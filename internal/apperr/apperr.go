// Package apperr defines the error kinds the core propagates to callers.
// Handlers map each kind to an HTTP status; the services never swallow them.
package apperr

import "fmt"

// ValidationError covers malformed input: missing required fields, empty
// item lists, values outside an enum. Always recoverable client-side.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// NotFoundError means an id did not resolve to a record.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Entity + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func NotFound(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// PreconditionError means the record exists but is in the wrong state for
// the requested operation. It carries the offending entity and state so the
// caller can explain the failure to an operator.
type PreconditionError struct {
	Entity string
	ID     string
	State  string
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s %s is %s: %s", e.Entity, e.ID, e.State, e.Reason)
}

func Precondition(entity, id, state, reason string) *PreconditionError {
	return &PreconditionError{Entity: entity, ID: id, State: state, Reason: reason}
}

// ForbiddenError marks an operation that policy never permits, as opposed to
// one that merely failed. Distinct from NotFound on purpose.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string { return e.Reason }

func Forbidden(reason string) *ForbiddenError {
	return &ForbiddenError{Reason: reason}
}

// TransientError wraps a store failure that is safe to retry. No partial
// state is left behind by an operation that returns one.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

func Transient(op string, err error) *TransientError {
	return &TransientError{Op: op, Err: err}
}
