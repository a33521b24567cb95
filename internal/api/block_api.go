package api

import (
	"github.com/dshills/blockstorm/internal/block"
	"github.com/dshills/blockstorm/internal/document"
)

// BlockAPI is a read-mostly view of one block.
type BlockAPI struct {
	b *block.Block
}

func newBlockAPI(b *block.Block) *BlockAPI {
	if b == nil {
		return nil
	}
	return &BlockAPI{b: b}
}

// ID returns the block id.
func (a *BlockAPI) ID() string { return a.b.ID() }

// Name returns the block's tool name.
func (a *BlockAPI) Name() string { return a.b.Name() }

// IsEmpty reports whether the block has no content.
func (a *BlockAPI) IsEmpty() bool { return a.b.IsEmpty() }

// Selected reports whether the block is selected.
func (a *BlockAPI) Selected() bool { return a.b.Selected() }

// Stretched reports whether the block is stretched.
func (a *BlockAPI) Stretched() bool { return a.b.Stretched() }

// SetStretched sets the stretched flag.
func (a *BlockAPI) SetStretched(stretched bool) { a.b.SetStretched(stretched) }

// Disabled reports whether the block is disabled.
func (a *BlockAPI) Disabled() bool { return a.b.Disabled() }

// Save returns the block's current saved record.
func (a *BlockAPI) Save() document.SavedData {
	return saveBlock(a.b)
}

// Validate reports whether the block's tool accepts data. Tools without a
// validator accept everything.
func (a *BlockAPI) Validate(data block.Data) bool {
	return validData(a.b.Tool(), data)
}

// Block returns the underlying block.
func (a *BlockAPI) Block() *block.Block { return a.b }

func validData(t block.Tool, data block.Data) bool {
	v, ok := t.(block.Validator)
	return !ok || v.Validate(data)
}
