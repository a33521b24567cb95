package tool

import "errors"

// Errors returned by the registry.
var (
	// ErrToolNotFound indicates no tool is registered under a name.
	ErrToolNotFound = errors.New("tool not found")

	// ErrDuplicateTool indicates a tool name is already registered.
	ErrDuplicateTool = errors.New("tool already registered")

	// ErrNoDefault indicates the registry has no default tool.
	ErrNoDefault = errors.New("no default tool")
)
