package document

import (
	"time"

	"github.com/dshills/blockstorm/internal/block"
)

// Version is written into every saved document.
const Version = "2.19.0-blockstorm"

// SavedData is the persisted form of one block.
type SavedData struct {
	ID       string     `json:"id" yaml:"id" validate:"omitempty,max=128"`
	Tool     string     `json:"tool" yaml:"tool" validate:"required,max=64"`
	Data     block.Data `json:"data" yaml:"data"`
	Disabled bool       `json:"disabled" yaml:"disabled"`
	Time     int64      `json:"time" yaml:"time" validate:"gte=0"`
}

// Output is a saved document.
type Output struct {
	Time    int64       `json:"time" yaml:"time" validate:"gte=0"`
	Blocks  []SavedData `json:"blocks" yaml:"blocks" validate:"dive"`
	Version string      `json:"version,omitempty" yaml:"version,omitempty"`
}

// New returns an empty document stamped with the current time.
func New(blocks ...SavedData) Output {
	return Output{
		Time:    Now(),
		Blocks:  blocks,
		Version: Version,
	}
}

// Now returns the current time in Unix milliseconds.
func Now() int64 {
	return time.Now().UnixMilli()
}

// Snapshot records b as saved data.
func Snapshot(b *block.Block) SavedData {
	return SavedData{
		ID:       b.ID(),
		Tool:     b.Name(),
		Data:     b.Data(),
		Disabled: b.Disabled(),
		Time:     Now(),
	}
}
