package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested row does not exist or is not
// visible to the caller.
var ErrNotFound = errors.New("not found")

// ValidationError reports a field whose value violates its declared domain
// (enum membership, length bound, numeric range, ordering).
type ValidationError struct {
	Field string
	Rule  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Rule)
}

// NewValidationError returns a ValidationError for field with the failed rule.
func NewValidationError(field, rule string) *ValidationError {
	return &ValidationError{Field: field, Rule: rule}
}

// ConflictError reports a uniqueness violation, including the losing side of
// a concurrent-insert race.
type ConflictError struct {
	Constraint string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict: %s", e.Constraint)
}

// ReferentialError reports a write that references a nonexistent owning row,
// or a cascade step that could not complete.
type ReferentialError struct {
	Reference string
}

func (e *ReferentialError) Error() string {
	return fmt.Sprintf("referential integrity: %s", e.Reference)
}

// AuthorizationError reports a denied operation. Reads never return it; a
// denied read surfaces as ErrNotFound or an absent row instead.
type AuthorizationError struct {
	Entity    string
	Operation string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("not authorized: %s %s", e.Operation, e.Entity)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// IsAuthorization reports whether err is an AuthorizationError.
func IsAuthorization(err error) bool {
	var ae *AuthorizationError
	return errors.As(err, &ae)
}
