package app

import (
	"errors"
	"fmt"
)

// Application errors.
var (
	// ErrQuit signals that a front end should exit normally.
	ErrQuit = errors.New("quit requested")

	// ErrClosed indicates the application has been shut down.
	ErrClosed = errors.New("application closed")

	// ErrNoDocumentPath indicates Save was called before a path was set.
	ErrNoDocumentPath = errors.New("no document path")
)

// InitError reports a component that failed to start.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("init %s: %v", e.Component, e.Err)
}

// Unwrap returns the underlying error.
func (e *InitError) Unwrap() error {
	return e.Err
}

// OperationError reports a failed document operation.
type OperationError struct {
	Op   string // "open", "save"
	Path string
	Err  error
}

func (e *OperationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *OperationError) Unwrap() error {
	return e.Err
}
