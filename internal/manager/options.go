package manager

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dshills/blockstorm/internal/block"
	"github.com/dshills/blockstorm/internal/event"
)

// Option configures a Manager during creation.
type Option func(*Manager)

// WithPublisher sets the publisher that receives collection events.
func WithPublisher(pub event.Publisher) Option {
	return func(m *Manager) {
		m.pub = pub
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithIDGenerator sets the function used to generate block ids.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) {
		if fn != nil {
			m.newID = fn
		}
	}
}

func defaultIDGenerator() string {
	return uuid.NewString()
}

// InsertOption configures a single Insert call.
type InsertOption func(*insertConfig)

type insertConfig struct {
	tool     string
	data     block.Data
	id       string
	index    int
	hasIndex bool
	focus    bool
	replace  bool
	disabled *bool

	// fill is written into the first input of the new block.
	fill string
}

func defaultInsertConfig() insertConfig {
	return insertConfig{focus: true}
}

// WithTool sets the tool of the new block. The default tool is used when
// omitted.
func WithTool(name string) InsertOption {
	return func(c *insertConfig) {
		c.tool = name
	}
}

// WithData sets the payload of the new block.
func WithData(data block.Data) InsertOption {
	return func(c *insertConfig) {
		c.data = data
	}
}

// WithID sets the id of the new block. A fresh id is generated when
// omitted.
func WithID(id string) InsertOption {
	return func(c *insertConfig) {
		c.id = id
	}
}

// AtIndex sets the position of the new block. It defaults to the slot after
// the current block, or the current slot when replacing.
func AtIndex(index int) InsertOption {
	return func(c *insertConfig) {
		c.index = index
		c.hasIndex = true
	}
}

// Focus controls whether the new block becomes current. Defaults to true.
func Focus(focus bool) InsertOption {
	return func(c *insertConfig) {
		c.focus = focus
	}
}

// Replace overwrites an existing block instead of adding one. When the id
// names an existing block it is updated in place; otherwise the block at the
// target index is replaced.
func Replace() InsertOption {
	return func(c *insertConfig) {
		c.replace = true
	}
}

// Disabled sets the disabled flag of the block. A block replaced in place
// keeps its flag unless this option is given.
func Disabled(disabled bool) InsertOption {
	return func(c *insertConfig) {
		c.disabled = &disabled
	}
}
