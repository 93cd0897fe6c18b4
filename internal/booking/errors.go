package booking

import (
	"errors"
	"fmt"

	"garde-booking/internal/status"
)

// ErrNotFound is returned when a booking id resolves to no record.
var ErrNotFound = errors.New("booking not found")

// ValidationError reports the first violated rule of an input. Nothing is
// persisted when one is returned.
type ValidationError struct {
	Code    string
	Message string
}

func (e ValidationError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// PolicyError reports a transition absent from the transition table.
type PolicyError struct {
	From status.Code
	To   status.Code
}

func (e PolicyError) Error() string {
	return fmt.Sprintf("INVALID_STATE_TRANSITION: %s -> %s is not allowed", e.From, e.To)
}

// StateConflictError reports a lifecycle operation applied to a record in the
// wrong state, e.g. trashing an already-archived record. The record is left
// untouched.
type StateConflictError struct {
	Code    string
	Message string
}

func (e StateConflictError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// PersistenceError wraps a failed store call.
type PersistenceError struct {
	Op  string
	Err error
}

func (e PersistenceError) Error() string {
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Err)
}

func (e PersistenceError) Unwrap() error {
	return e.Err
}
