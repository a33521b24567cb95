package document

import (
	"errors"
	"strings"
)

var (
	// ErrUnknownFormat indicates a file extension with no registered codec.
	ErrUnknownFormat = errors.New("unknown document format")

	// ErrInvalidDocument indicates a document that failed validation.
	ErrInvalidDocument = errors.New("invalid document")
)

// ValidationError lists the problems found in a document.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid document: " + strings.Join(e.Problems, "; ")
}

// Unwrap returns ErrInvalidDocument.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidDocument
}
