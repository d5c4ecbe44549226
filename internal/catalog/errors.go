package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by lookups when no record has the requested id.
	// Status and notes updates treat a missing id as a silent no-op instead.
	ErrNotFound = errors.New("technology not found")

	// ErrPersist wraps a failed snapshot write. The in-memory mutation is kept.
	ErrPersist = errors.New("persisting catalog")

	// ErrEmptyResult is returned when a source fetch yields no records.
	ErrEmptyResult = errors.New("source returned no technologies")
)

// ValidationError reports malformed input to a mutating operation.
// The catalog is left unchanged.
type ValidationError struct {
	Index  int // position in a bulk input, -1 when not applicable
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("invalid technology %d: %s %s", e.Index, e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid technology: %s %s", e.Field, e.Reason)
}

func invalid(index int, field, reason string) *ValidationError {
	return &ValidationError{Index: index, Field: field, Reason: reason}
}
