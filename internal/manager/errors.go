package manager

import (
	"errors"
	"fmt"
)

// Sentinel errors. Use errors.Is against these; the struct types below carry
// the details.
var (
	// ErrNotFound indicates that no block matched an id or index.
	ErrNotFound = errors.New("block not found")

	// ErrRange indicates an index outside the collection bounds.
	ErrRange = errors.New("index out of range")

	// ErrInvalidOperation indicates an operation whose preconditions do not
	// hold, such as merging blocks of different tools.
	ErrInvalidOperation = errors.New("invalid operation")
)

// NotFoundError reports a failed id or index lookup.
type NotFoundError struct {
	// ID is the id that was looked up, if any.
	ID string

	// Index is the index that was looked up, or -1.
	Index int
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("block with id %q not found", e.ID)
	}
	return fmt.Sprintf("block at index %d not found", e.Index)
}

// Unwrap returns ErrNotFound.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// RangeError reports an index argument outside the valid bounds.
type RangeError struct {
	Op    string
	Index int
	Len   int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s: index %d out of range [0, %d)", e.Op, e.Index, e.Len)
}

// Unwrap returns ErrRange.
func (e *RangeError) Unwrap() error {
	return ErrRange
}

// InvalidOperationError reports an operation that cannot be applied.
type InvalidOperationError struct {
	Op     string
	Reason string
}

func (e *InvalidOperationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// Unwrap returns ErrInvalidOperation.
func (e *InvalidOperationError) Unwrap() error {
	return ErrInvalidOperation
}

func notFoundID(id string) error {
	return &NotFoundError{ID: id, Index: -1}
}

func notFoundIndex(index int) error {
	return &NotFoundError{Index: index}
}
