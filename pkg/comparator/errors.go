package comparator

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrComparatorNotFound is returned when a lookup misses.
	ErrComparatorNotFound = errors.New("comparator not found")

	// ErrDuplicateComparator is returned when an ID is registered twice.
	ErrDuplicateComparator = errors.New("duplicate comparator")

	// ErrUnknownComparatorID is returned when registering an ID outside the
	// closed enumeration.
	ErrUnknownComparatorID = errors.New("unknown comparator id")
)

// RegistryError describes a failed registry operation.
type RegistryError struct {
	// Operation is the registry method that failed ("register", "get").
	Operation string

	// ID is the comparator identifier involved.
	ID ID

	// Cause is one of the package sentinel errors.
	Cause error
}

// Error implements the error interface.
func (e *RegistryError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("registry %s: %v", e.Operation, e.Cause)
	}
	return fmt.Sprintf("registry %s %s: %v", e.Operation, e.ID, e.Cause)
}

// Unwrap returns the cause.
func (e *RegistryError) Unwrap() error {
	return e.Cause
}

// UnresolvedComparatorsError lists every comparator ID referenced by a rule
// set that the registry cannot resolve.
type UnresolvedComparatorsError struct {
	IDs []ID
}

// Error implements the error interface.
func (e *UnresolvedComparatorsError) Error() string {
	names := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		names[i] = string(id)
	}
	return fmt.Sprintf("unresolved comparators: %s", strings.Join(names, ", "))
}

// Unwrap lets errors.Is match ErrComparatorNotFound.
func (e *UnresolvedComparatorsError) Unwrap() error {
	return ErrComparatorNotFound
}
