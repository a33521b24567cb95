package lua

import "errors"

// Errors returned when loading or running tool scripts.
var (
	// ErrStateClosed indicates the Lua state has been closed.
	ErrStateClosed = errors.New("lua state closed")

	// ErrInvalidScript indicates a script did not return a tool table.
	ErrInvalidScript = errors.New("script must return a tool table")

	// ErrMissingName indicates a tool table without a name.
	ErrMissingName = errors.New("tool table has no name")
)
