package app

import (
	"errors"
	"testing"
)

func TestInitError(t *testing.T) {
	base := errors.New("boom")
	err := &InitError{Component: "tools", Err: base}

	if err.Error() != "init tools: boom" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, base) {
		t.Error("errors.Is should see the wrapped error")
	}
}

func TestOperationError(t *testing.T) {
	tests := []struct {
		err  *OperationError
		want string
	}{
		{&OperationError{Op: "save", Err: ErrNoDocumentPath}, "save: no document path"},
		{&OperationError{Op: "open", Path: "a.json", Err: errors.New("denied")}, "open a.json: denied"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
	if !errors.Is(tests[0].err, ErrNoDocumentPath) {
		t.Error("errors.Is(ErrNoDocumentPath) = false")
	}
}
