package api

import (
	"go.uber.org/zap"

	"github.com/dshills/blockstorm/internal/editing"
)

// Option configures Blocks.
type Option func(*Blocks)

// WithToolbar sets the toolbar notified after api calls.
func WithToolbar(t editing.Toolbar) Option {
	return func(b *Blocks) {
		if t != nil {
			b.toolbar = t
		}
	}
}

// WithLogger sets the logger used for advisories.
func WithLogger(logger *zap.Logger) Option {
	return func(b *Blocks) {
		if logger != nil {
			b.logger = logger
		}
	}
}
