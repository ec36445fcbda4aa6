package metadata

import (
	"errors"
	"fmt"
)

// StructuralError reports a metadata payload that is missing a required
// field or carries a value of the wrong type.
type StructuralError struct {
	Group string
	// Index is the position of the value inside the group, -1 for the group itself
	Index  int
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *StructuralError) Error() string {
	if e.Group == "" && e.Index < 0 {
		return fmt.Sprintf("malformed metadata envelope: %s %s", e.Field, e.Reason)
	}
	if e.Index < 0 {
		return fmt.Sprintf("malformed metadata group %q: %s %s", e.Group, e.Field, e.Reason)
	}
	return fmt.Sprintf("malformed metadata group %q value %d: %s %s", e.Group, e.Index, e.Field, e.Reason)
}

// CollisionError reports two annotations deriving the same id under CollisionReject.
type CollisionError struct {
	ID string
}

// Error implements the error interface.
func (e *CollisionError) Error() string {
	return fmt.Sprintf("duplicate annotation id %q", e.ID)
}

var errNotInteger = errors.New("is not an integer")
