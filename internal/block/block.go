package block

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrDestroyed is returned by operations on a block that has been removed
// from its collection.
var ErrDestroyed = errors.New("block destroyed")

// Block is one addressable unit of document content.
//
// A Block is safe for concurrent use, but structural edits are expected to
// be serialized by the caller.
type Block struct {
	mu sync.RWMutex

	id      string
	tool    Tool
	data    Data
	surface Surface

	disabled  bool
	stretched bool
	selected  bool

	currentInput int
	destroyed    bool
}

// New renders data with tool and returns the resulting block.
func New(id string, tool Tool, data Data) (*Block, error) {
	if tool == nil {
		return nil, fmt.Errorf("block %s: nil tool", id)
	}
	stored := data.Clone()
	surface, err := tool.Render(stored.Clone())
	if err != nil {
		return nil, fmt.Errorf("render %s block: %w", tool.Name(), err)
	}
	return &Block{
		id:      id,
		tool:    tool,
		data:    stored,
		surface: surface,
	}, nil
}

// ID returns the block's unique id.
func (b *Block) ID() string {
	return b.id
}

// Name returns the tool name.
func (b *Block) Name() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.tool.Name()
}

// Tool returns the tool that renders this block.
func (b *Block) Tool() Tool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.tool
}

// Surface returns the rendered surface.
func (b *Block) Surface() Surface {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.surface
}

// Data returns the current payload as saved from the surface.
func (b *Block) Data() Data {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.destroyed {
		return Data{}
	}
	return b.tool.Save(b.surface, b.data.Clone())
}

// SetData re-renders the block from data, keeping its tool and id.
func (b *Block) SetData(data Data) error {
	b.mu.RLock()
	tool := b.tool
	b.mu.RUnlock()
	return b.Replace(tool, data)
}

// Replace swaps the block's tool and payload in place. The id and the
// disabled/stretched flags are kept.
func (b *Block) Replace(tool Tool, data Data) error {
	if tool == nil {
		return fmt.Errorf("block %s: nil tool", b.id)
	}
	stored := data.Clone()
	surface, err := tool.Render(stored.Clone())
	if err != nil {
		return fmt.Errorf("render %s block: %w", tool.Name(), err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.destroyed {
		return ErrDestroyed
	}
	if d, ok := b.tool.(Destroyer); ok {
		d.Destroy(b.surface)
	}
	b.tool = tool
	b.data = stored
	b.surface = surface
	b.currentInput = clampInput(b.currentInput, len(surface.Inputs()))
	return nil
}

// MergeWith asks the tool to absorb source into this block's surface.
func (b *Block) MergeWith(ctx context.Context, source Data) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.destroyed {
		return ErrDestroyed
	}
	return b.tool.Merge(ctx, b.surface, source)
}

// Normalize canonicalizes the rendered text.
func (b *Block) Normalize() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.destroyed {
		b.surface.Normalize()
	}
}

// IsEmpty reports whether the block has no content.
func (b *Block) IsEmpty() bool {
	return b.Tool().IsEmpty(b.Data())
}

// HasMedia reports whether the block carries non-text content.
func (b *Block) HasMedia() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.tool.Capabilities().Media || b.surface.HasMedia()
}

// Mergeable reports whether the tool supports merging.
func (b *Block) Mergeable() bool {
	return b.Tool().Capabilities().Mergeable
}

// Inputs returns the focusable regions of the block.
func (b *Block) Inputs() []Input {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.destroyed {
		return nil
	}
	return b.surface.Inputs()
}

// FirstInput returns the first input, or nil when the block has none.
func (b *Block) FirstInput() Input {
	inputs := b.Inputs()
	if len(inputs) == 0 {
		return nil
	}
	return inputs[0]
}

// LastInput returns the last input, or nil when the block has none.
func (b *Block) LastInput() Input {
	inputs := b.Inputs()
	if len(inputs) == 0 {
		return nil
	}
	return inputs[len(inputs)-1]
}

// CurrentInput returns the input the caret was last placed in.
func (b *Block) CurrentInput() Input {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.destroyed {
		return nil
	}
	inputs := b.surface.Inputs()
	if len(inputs) == 0 {
		return nil
	}
	return inputs[clampInput(b.currentInput, len(inputs))]
}

// CurrentInputIndex returns the index of the current input.
func (b *Block) CurrentInputIndex() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.currentInput
}

// SetCurrentInput moves the current input pointer, clamped to the inputs.
func (b *Block) SetCurrentInput(i int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.destroyed {
		return
	}
	b.currentInput = clampInput(i, len(b.surface.Inputs()))
}

// Disabled reports whether the block is excluded from the edit flow.
func (b *Block) Disabled() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.disabled
}

// SetDisabled toggles the disabled flag.
func (b *Block) SetDisabled(disabled bool) {
	b.mu.Lock()
	b.disabled = disabled
	b.mu.Unlock()
}

// Stretched reports the stretched layout hint.
func (b *Block) Stretched() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.stretched
}

// SetStretched sets the stretched layout hint.
func (b *Block) SetStretched(stretched bool) {
	b.mu.Lock()
	b.stretched = stretched
	b.mu.Unlock()
}

// Selected reports whether the whole block is selected.
func (b *Block) Selected() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.selected
}

// SetSelected marks the block as selected.
func (b *Block) SetSelected(selected bool) {
	b.mu.Lock()
	b.selected = selected
	b.mu.Unlock()
}

// Destroy releases the surface. Every later query reports an empty block.
func (b *Block) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.destroyed {
		return
	}
	if d, ok := b.tool.(Destroyer); ok {
		d.Destroy(b.surface)
	}
	b.destroyed = true
}

// Destroyed reports whether Destroy has been called.
func (b *Block) Destroyed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.destroyed
}

// String returns a short description for logs.
func (b *Block) String() string {
	return fmt.Sprintf("Block(%s %s)", b.Name(), b.id)
}

func clampInput(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
