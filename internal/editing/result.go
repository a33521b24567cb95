package editing

import (
	"github.com/dshills/blockstorm/internal/block"
)

// Status indicates the outcome of a gesture.
type Status uint8

const (
	// StatusOK indicates the gesture changed the document or the caret.
	StatusOK Status = iota
	// StatusNoOp indicates the gesture had no effect.
	StatusNoOp
	// StatusError indicates the gesture failed.
	StatusError
	// StatusAsync indicates a merge is in flight; wait on Result.Pending.
	StatusAsync
)

// String returns a string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNoOp:
		return "no-op"
	case StatusError:
		return "error"
	case StatusAsync:
		return "async"
	default:
		return "unknown"
	}
}

// Result is the outcome of a gesture.
type Result struct {
	// Status indicates the result status.
	Status Status

	// Err contains any error that occurred.
	Err error

	// Block is the block the caret ends up in, when known.
	Block *block.Block

	// Pending is set for StatusAsync.
	Pending *Pending
}

// IsOK returns true if the gesture completed synchronously.
func (r Result) IsOK() bool {
	return r.Status == StatusOK
}

// IsError returns true if the gesture failed.
func (r Result) IsError() bool {
	return r.Status == StatusError
}

func ok(b *block.Block) Result {
	return Result{Status: StatusOK, Block: b}
}

func noop() Result {
	return Result{Status: StatusNoOp}
}

func fail(err error) Result {
	return Result{Status: StatusError, Err: err}
}
