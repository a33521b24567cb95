package editing

import (
	"context"

	"go.uber.org/zap"

	"github.com/dshills/blockstorm/internal/block"
	"github.com/dshills/blockstorm/internal/caret"
	"github.com/dshills/blockstorm/internal/manager"
)

// Backspace handles the Backspace key.
//
// A selected block, or an empty block with the caret in its first input, is
// deleted. When the previous block has no inputs it is deleted instead, so
// that media is not stranded. The caret then goes to the end of the new
// current block, or its start when that block is first.
//
// Tools that preserve line breaks keep Backspace as text deletion unless the
// caret is at the start. At the start of the first input of any block but
// the first, with a collapsed caret, the block is merged into the previous
// one. Anything else deletes text before the caret. Disabled blocks ignore
// Backspace, except that force merges regardless of the caret or the
// disabled flag.
func (e *Editor) Backspace(ctx context.Context, force bool) Result {
	cur := e.blocks.CurrentBlock()
	if cur == nil {
		return noop()
	}

	if force {
		if e.blocks.PreviousBlock() == nil {
			return noop()
		}
		return e.MergeBlocks(ctx)
	}
	if cur.Disabled() {
		return noop()
	}

	if cur.Selected() || (cur.IsEmpty() && e.caret.InFirstInput()) {
		return e.deleteOnBackspace(cur)
	}

	if cur.Tool().Capabilities().PreserveLineBreaks && !e.caret.IsAtStart() {
		return e.deleteText()
	}

	canMerge := e.caret.IsAtStart() &&
		e.caret.IsCollapsed() &&
		e.caret.InFirstInput() &&
		e.blocks.CurrentIndex() != 0
	if canMerge {
		return e.MergeBlocks(ctx)
	}
	return e.deleteText()
}

func (e *Editor) deleteOnBackspace(cur *block.Block) Result {
	index := e.blocks.CurrentIndex()
	if e.blocks.Len() == 1 && e.blocks.IsDefault(cur) && !cur.Selected() {
		return noop()
	}

	var err error
	if prev := e.blocks.PreviousBlock(); e.skipEmptyInputBlocks && prev != nil && len(prev.Inputs()) == 0 {
		err = e.blocks.RemoveBlock(index - 1)
	} else {
		err = e.blocks.RemoveCurrentBlock()
	}
	if err != nil {
		e.logger.Warn("backspace removal failed", zap.Int("index", index), zap.Error(err))
		return fail(err)
	}
	cur.SetSelected(false)

	next := e.blocks.CurrentBlock()
	pos := caret.End
	if index == 0 {
		pos = caret.Start
	}
	if err := e.caret.SetToBlock(next, pos, 0); err != nil {
		return fail(err)
	}
	e.toolbar.Close()
	return ok(next)
}

func (e *Editor) deleteText() Result {
	deleted, err := e.caret.DeleteBackward()
	switch {
	case err != nil:
		return fail(err)
	case !deleted:
		return noop()
	}
	return ok(e.caret.Block())
}

// MergeBlocks merges the current block into the previous one.
//
// When the two blocks differ in tool, or the previous block cannot merge,
// nothing is merged: an empty or input-less previous block is removed,
// otherwise the caret moves to the end of the previous block. Only a real
// merge is asynchronous.
func (e *Editor) MergeBlocks(ctx context.Context) Result {
	target := e.blocks.PreviousBlock()
	source := e.blocks.CurrentBlock()
	if target == nil || source == nil {
		return noop()
	}

	if target.Name() != source.Name() || !target.Mergeable() {
		if len(target.Inputs()) == 0 || target.IsEmpty() {
			if err := e.blocks.RemoveBlock(e.blocks.CurrentIndex() - 1); err != nil {
				return fail(err)
			}
			cur := e.blocks.CurrentBlock()
			if err := e.caret.SetToBlock(cur, caret.Start, 0); err != nil {
				return fail(err)
			}
			e.toolbar.Close()
			return ok(cur)
		}
		if err := e.caret.SetToBlock(target, caret.End, 0); err != nil {
			return fail(err)
		}
		e.toolbar.Close()
		return ok(target)
	}

	e.caret.CreateShadow(target)
	future := e.blocks.MergeBlocks(ctx, target, source)

	p := newPending()
	go func() {
		b, err := future.Wait(context.WithoutCancel(ctx))
		if err != nil {
			p.resolve(nil, err)
			return
		}
		if err := e.caret.RestoreCaret(b); err != nil {
			e.logger.Debug("restore caret after merge", zap.Error(err))
		}
		b.Normalize()
		e.toolbar.Close()
		p.resolve(b, nil)
	}()
	return Result{Status: StatusAsync, Block: target, Pending: p}
}

// Enter handles the Enter key.
//
// For tools that preserve line breaks a newline is inserted at the caret.
// Otherwise, at the start of a block without media an empty default block
// is inserted above and the caret stays in the current block; anywhere else
// the block is split at the caret and the caret moves to the new block. When
// the caret's block is an empty default block the toolbar is opened with the
// plus button.
func (e *Editor) Enter(ctx context.Context) Result {
	cur := e.blocks.CurrentBlock()
	if cur == nil || cur.Disabled() {
		return noop()
	}

	if cur.Tool().Capabilities().PreserveLineBreaks {
		if err := e.caret.InsertText("\n"); err != nil {
			return fail(err)
		}
		return ok(cur)
	}
	return e.Split(ctx)
}

// Split breaks the current block at the caret regardless of the tool's line
// break handling. At the start of a block without media an empty default
// block is inserted above instead.
func (e *Editor) Split(ctx context.Context) Result {
	cur := e.blocks.CurrentBlock()
	if cur == nil || cur.Disabled() {
		return noop()
	}

	next := cur
	if e.caret.IsAtStart() && !cur.HasMedia() {
		if _, err := e.blocks.InsertDefaultAt(e.blocks.CurrentIndex(), false); err != nil {
			return fail(err)
		}
	} else {
		b, err := e.SplitBlock(ctx)
		if err != nil {
			return fail(err)
		}
		next = b
	}

	if err := e.caret.SetToBlock(next, caret.Default, 0); err != nil {
		return fail(err)
	}
	if e.blocks.IsDefault(next) && next.IsEmpty() {
		e.toolbar.Open(false)
		e.toolbar.ShowPlusButton()
	}
	return ok(next)
}

// SplitBlock cuts the content after the caret out of the current block and
// inserts it as a new default block after it. A blank fragment yields an
// empty block. The new block becomes current.
func (e *Editor) SplitBlock(_ context.Context) (*block.Block, error) {
	extracted, err := e.caret.ExtractFragmentFromCaretPosition()
	if err != nil {
		return nil, err
	}
	fragment := extracted
	if isBlankFragment(fragment) {
		fragment = ""
	}

	b, err := e.blocks.Split(fragment)
	if err != nil {
		e.restoreFragment(extracted)
		return nil, err
	}
	e.toolbar.Move()
	return b, nil
}

// restoreFragment puts extracted content back at the caret after a failed
// split. The caret stays at the cut.
func (e *Editor) restoreFragment(extracted string) {
	cur := e.caret.Block()
	if extracted == "" || cur == nil {
		return
	}
	if err := cur.Surface().InsertAt(e.caret.InputIndex(), e.caret.Offset(), extracted); err != nil {
		e.logger.Warn("restore split fragment", zap.String("block", cur.ID()), zap.Error(err))
	}
}

var _ caret.Tracker = (*manager.Manager)(nil)
