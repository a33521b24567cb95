package editing

import (
	"strings"

	"github.com/dshills/blockstorm/internal/block"
	"github.com/dshills/blockstorm/internal/caret"
	"github.com/dshills/blockstorm/internal/manager"
)

// ReplaceBlockByIndex replaces the block at index with a block of toolName
// holding data. An empty toolName keeps the current tool. Without an id the
// replacement gets a fresh one. focus makes the replacement current.
func (e *Editor) ReplaceBlockByIndex(index int, toolName string, data block.Data, id string, focus bool) (*block.Block, error) {
	old := e.blocks.BlockByIndex(index)
	if index < 0 || old == nil {
		return nil, &manager.RangeError{Op: "replace", Index: index, Len: e.blocks.Len()}
	}
	if toolName == "" {
		toolName = old.Name()
	}

	opts := []manager.InsertOption{
		manager.AtIndex(index),
		manager.WithTool(toolName),
		manager.WithData(data),
		manager.Replace(),
		manager.Focus(focus),
	}
	if id != "" {
		opts = append(opts, manager.WithID(id))
	}
	return e.blocks.Insert(opts...)
}

// ReplaceBlockByID replaces the tool and payload of the block with id in
// place. It fails with NotFoundError for unknown ids.
func (e *Editor) ReplaceBlockByID(id, toolName string, data block.Data, focus bool) (*block.Block, error) {
	index, err := e.blocks.IndexByID(id)
	if err != nil {
		return nil, err
	}
	return e.ReplaceBlockByIndex(index, toolName, data, id, focus)
}

// MoveBlockToIndexByID moves the block with id to index to. When newData
// changes any field of the block's payload the payload is replaced as well.
// The current block stays current: a moved current block remains current at
// its new index, and moving another block leaves the current block alone.
func (e *Editor) MoveBlockToIndexByID(id string, to int, newData block.Data) (*block.Block, error) {
	from, err := e.blocks.IndexByID(id)
	if err != nil {
		return nil, err
	}
	wasCurrent := e.blocks.CurrentIndex() == from
	prev := e.blocks.CurrentBlock()

	if err := e.blocks.Move(to, from); err != nil {
		return nil, err
	}
	if !wasCurrent && prev != nil {
		if err := e.blocks.SetCurrentBlock(prev); err != nil {
			return nil, err
		}
	}

	b := e.blocks.BlockByIndex(to)
	if len(newData) > 0 && b.Data().Differs(newData) {
		if b, err = e.ReplaceBlockByID(id, b.Name(), newData, wasCurrent); err != nil {
			return nil, err
		}
	}
	e.toolbar.Move()
	return b, nil
}

// AddAbove inserts an empty default block above the current block, focuses
// it and opens the toolbar.
func (e *Editor) AddAbove() Result {
	e.toolbar.Close()
	index := max(e.blocks.CurrentIndex(), 0)
	b, err := e.blocks.InsertDefaultAt(index, true)
	if err != nil {
		return fail(err)
	}
	if err := e.caret.SetToBlock(b, caret.Start, 0); err != nil {
		return fail(err)
	}
	e.toolbar.Open(false)
	return ok(b)
}

// ToggleDisabled flips the disabled flag of the current block.
func (e *Editor) ToggleDisabled() Result {
	cur := e.blocks.CurrentBlock()
	if cur == nil {
		return noop()
	}
	cur.SetDisabled(!cur.Disabled())
	return ok(cur)
}

// isBlankFragment reports whether an extracted fragment has no visible
// content.
func isBlankFragment(s string) bool {
	return strings.TrimSpace(strings.ReplaceAll(s, "\u200b", "")) == ""
}
