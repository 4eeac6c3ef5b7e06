package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Classified errors returned by guards and input validation. Callers at the
// transport boundary translate these into localized messages; anything else
// propagates as a generic failure.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrNotOwner        = errors.New("not owner")
	ErrConflict        = errors.New("already exists")
	ErrUnauthenticated = errors.New("unauthenticated")
)

// Error provides detailed error information
type Error struct {
	Op     string // Operation that failed
	Entity string // Entity involved
	Err    error  // Underlying error
}

func (e *Error) Error() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("coach: %s", e.Op))

	if e.Entity != "" {
		parts = append(parts, fmt.Sprintf("entity=%s", e.Entity))
	}

	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	return strings.Join(parts, ": ")
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for Error type
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return errors.Is(e.Err, target)
	}

	if t.Op != "" && e.Op == t.Op {
		return true
	}

	return errors.Is(e.Err, t.Err)
}

// NewError wraps a classified error with operation context
func NewError(op, entity string, err error) *Error {
	return &Error{Op: op, Entity: entity, Err: err}
}

// IsClassified reports whether err carries one of the classified sentinels
func IsClassified(err error) bool {
	return errors.Is(err, ErrInvalidArgument) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrNotOwner) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrUnauthenticated)
}
