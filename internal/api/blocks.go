package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"

	"github.com/dshills/blockstorm/internal/block"
	"github.com/dshills/blockstorm/internal/caret"
	"github.com/dshills/blockstorm/internal/editing"
	"github.com/dshills/blockstorm/internal/manager"
)

// Blocks is the public block API.
type Blocks struct {
	editor  *editing.Editor
	blocks  *manager.Manager
	caret   *caret.Caret
	toolbar editing.Toolbar
	logger  *zap.Logger
}

// New creates the api over an editor.
func New(editor *editing.Editor, opts ...Option) *Blocks {
	b := &Blocks{
		editor:  editor,
		blocks:  editor.Blocks(),
		caret:   editor.Caret(),
		toolbar: nopToolbar{},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Editor returns the editing facade.
func (a *Blocks) Editor() *editing.Editor {
	return a.editor
}

// ============================================================================
// Insertion
// ============================================================================

// Insert inserts a block. Without options it inserts an empty default
// block after the current one and focuses it.
func (a *Blocks) Insert(opts ...manager.InsertOption) (*BlockAPI, error) {
	b, err := a.blocks.Insert(opts...)
	if err != nil {
		return nil, err
	}
	return newBlockAPI(b), nil
}

// InsertNewBlock inserts an empty default block after the current one.
//
// Deprecated: use Insert.
func (a *Blocks) InsertNewBlock() (*BlockAPI, error) {
	a.logger.Warn("InsertNewBlock is deprecated and will be removed; use Insert instead")
	return a.Insert()
}

// ============================================================================
// Removal
// ============================================================================

// Delete removes the block at index. Failures are logged and ignored. An
// emptied collection gets a fresh default block, the caret moves to the end
// of the current block and the toolbar closes.
func (a *Blocks) Delete(index int) {
	if err := a.blocks.RemoveBlock(index); err != nil {
		a.logger.Warn("delete block", zap.Int("index", index), zap.Error(err))
		return
	}
	a.afterDelete()
}

// DeleteCurrent removes the current block with the same leniency as Delete.
func (a *Blocks) DeleteCurrent() {
	if err := a.blocks.RemoveCurrentBlock(); err != nil {
		a.logger.Warn("delete current block", zap.Error(err))
		return
	}
	a.afterDelete()
}

func (a *Blocks) afterDelete() {
	if a.blocks.Len() == 0 {
		if _, err := a.blocks.Insert(); err != nil {
			a.logger.Warn("refill after delete", zap.Error(err))
		}
	}
	if cur := a.blocks.CurrentBlock(); cur != nil {
		if err := a.caret.SetToBlock(cur, caret.End, 0); err != nil {
			a.logger.Debug("caret after delete", zap.Error(err))
		}
	}
	a.toolbar.Close()
}

// RemoveBlockByID removes the block with id. Unknown ids fail with
// manager.NotFoundError.
func (a *Blocks) RemoveBlockByID(id string) error {
	index, err := a.blocks.IndexByID(id)
	if err != nil {
		return err
	}
	return a.blocks.RemoveBlock(index)
}

// Clear removes every block and leaves one empty default block.
func (a *Blocks) Clear() error {
	return a.blocks.Clear(true)
}

// ============================================================================
// Reordering
// ============================================================================

// Move moves the block at from to to and makes it current.
func (a *Blocks) Move(to, from int) error {
	if err := a.blocks.Move(to, from); err != nil {
		return err
	}
	a.toolbar.Move()
	return nil
}

// MoveCurrent moves the current block to to.
func (a *Blocks) MoveCurrent(to int) error {
	if err := a.blocks.MoveCurrent(to); err != nil {
		return err
	}
	a.toolbar.Move()
	return nil
}

// Swap exchanges the blocks at from and to.
//
// Deprecated: use Move.
func (a *Blocks) Swap(from, to int) error {
	a.logger.Info("Swap is deprecated and will be removed; use Move instead")
	if err := a.blocks.Swap(from, to); err != nil {
		return err
	}
	a.toolbar.Move()
	return nil
}

// MoveBlockToIndexByID moves the block with id to index to, replacing its
// payload when newData changes it.
func (a *Blocks) MoveBlockToIndexByID(id string, to int, newData block.Data) (*BlockAPI, error) {
	b, err := a.editor.MoveBlockToIndexByID(id, to, newData)
	if err != nil {
		return nil, err
	}
	return newBlockAPI(b), nil
}

// ============================================================================
// Lookup
// ============================================================================

// BlockByIndex returns the block at index, or nil. -1 selects the last
// block.
func (a *Blocks) BlockByIndex(index int) *BlockAPI {
	return newBlockAPI(a.blocks.BlockByIndex(index))
}

// BlockByID returns the block with id.
func (a *Blocks) BlockByID(id string) (*BlockAPI, error) {
	b, err := a.blocks.BlockByID(id)
	if err != nil {
		return nil, err
	}
	return newBlockAPI(b), nil
}

// BlockIndexByID returns the index of the block with id.
func (a *Blocks) BlockIndexByID(id string) (int, error) {
	return a.blocks.IndexByID(id)
}

// CurrentBlockIndex returns the current index, or -1.
func (a *Blocks) CurrentBlockIndex() int {
	return a.blocks.CurrentIndex()
}

// BlocksCount returns the number of blocks.
func (a *Blocks) BlocksCount() int {
	return a.blocks.Len()
}

// ============================================================================
// Content
// ============================================================================

// ReplaceBlockByID replaces the tool and payload of the block with id in
// place. An empty toolName keeps the block's tool.
func (a *Blocks) ReplaceBlockByID(id, toolName string, data block.Data) (*BlockAPI, error) {
	b, err := a.editor.ReplaceBlockByID(id, toolName, data, false)
	if err != nil {
		return nil, err
	}
	return newBlockAPI(b), nil
}

// Update re-renders the block with id from data.
func (a *Blocks) Update(id string, data block.Data) (*BlockAPI, error) {
	b, err := a.blocks.Update(id, data)
	if err != nil {
		return nil, err
	}
	return newBlockAPI(b), nil
}

// Field reads the value at a gjson path inside the payload of the block
// with id.
func (a *Blocks) Field(id, path string) (gjson.Result, error) {
	b, err := a.blocks.BlockByID(id)
	if err != nil {
		return gjson.Result{}, err
	}
	raw, err := json.Marshal(b.Data())
	if err != nil {
		return gjson.Result{}, fmt.Errorf("encode block %s: %w", id, err)
	}
	return gjson.GetBytes(raw, path), nil
}

// UpdateField sets the value at an sjson path inside the payload of the
// block with id and re-renders the block.
func (a *Blocks) UpdateField(id, path string, value any) (*BlockAPI, error) {
	b, err := a.blocks.BlockByID(id)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(b.Data())
	if err != nil {
		return nil, fmt.Errorf("encode block %s: %w", id, err)
	}
	raw, err = sjson.SetBytes(raw, path, value)
	if err != nil {
		return nil, fmt.Errorf("set %s on block %s: %w", path, id, err)
	}
	var data block.Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode block %s: %w", id, err)
	}
	return a.Update(id, data)
}

// StretchBlock sets the stretched flag of the block at index.
//
// Deprecated: use BlockAPI.SetStretched.
func (a *Blocks) StretchBlock(index int, status bool) {
	a.logger.Warn("StretchBlock is deprecated and will be removed; use BlockAPI.SetStretched instead")
	if b := a.blocks.BlockByIndex(index); b != nil {
		b.SetStretched(status)
	}
}

// ============================================================================
// Gestures
// ============================================================================

// Merge merges the current block into the previous one.
func (a *Blocks) Merge(ctx context.Context) editing.Result {
	return a.editor.MergeBlocks(ctx)
}

// Split splits the current block at the caret. At the start of a block
// without media an empty block is inserted above instead. The caret moves
// into the resulting block and the toolbar opens on an empty default block.
func (a *Blocks) Split(ctx context.Context) editing.Result {
	return a.editor.Split(ctx)
}

type nopToolbar struct{}

func (nopToolbar) Open(bool)       {}
func (nopToolbar) Close()          {}
func (nopToolbar) Move()           {}
func (nopToolbar) ShowPlusButton() {}
