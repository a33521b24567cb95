package editing

import (
	"go.uber.org/zap"

	"github.com/dshills/blockstorm/internal/caret"
	"github.com/dshills/blockstorm/internal/manager"
)

// Toolbar receives fire-and-forget requests to update the block toolbar.
// *event.ToolbarNotifier satisfies it.
type Toolbar interface {
	Open(hideBlockActions bool)
	Close()
	Move()
	ShowPlusButton()
}

// Option configures an Editor.
type Option func(*Editor)

// WithToolbar sets the toolbar notified after gestures.
func WithToolbar(t Toolbar) Option {
	return func(e *Editor) {
		if t != nil {
			e.toolbar = t
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Editor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithSkipEmptyInputBlocks controls whether Backspace in an empty block
// deletes a preceding block that has no inputs (an image, a delimiter)
// instead of the current block. Enabled by default.
func WithSkipEmptyInputBlocks(enabled bool) Option {
	return func(e *Editor) {
		e.skipEmptyInputBlocks = enabled
	}
}

// Editor implements editing gestures on top of a manager and a caret.
type Editor struct {
	blocks  *manager.Manager
	caret   *caret.Caret
	toolbar Toolbar
	logger  *zap.Logger

	skipEmptyInputBlocks bool
}

// New creates an editor.
func New(blocks *manager.Manager, c *caret.Caret, opts ...Option) *Editor {
	e := &Editor{
		blocks:               blocks,
		caret:                c,
		toolbar:              nopToolbar{},
		logger:               zap.NewNop(),
		skipEmptyInputBlocks: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Blocks returns the underlying manager.
func (e *Editor) Blocks() *manager.Manager {
	return e.blocks
}

// Caret returns the caret.
func (e *Editor) Caret() *caret.Caret {
	return e.caret
}

// SetSkipEmptyInputBlocks changes the policy set by WithSkipEmptyInputBlocks.
// It must not race with a gesture.
func (e *Editor) SetSkipEmptyInputBlocks(enabled bool) {
	e.skipEmptyInputBlocks = enabled
}

type nopToolbar struct{}

func (nopToolbar) Open(bool)       {}
func (nopToolbar) Close()          {}
func (nopToolbar) Move()           {}
func (nopToolbar) ShowPlusButton() {}
