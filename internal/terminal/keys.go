package terminal

import (
	"context"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/dshills/blockstorm/internal/api"
	"github.com/dshills/blockstorm/internal/app"
	"github.com/dshills/blockstorm/internal/block"
	"github.com/dshills/blockstorm/internal/caret"
	"github.com/dshills/blockstorm/internal/editing"
	"github.com/dshills/blockstorm/internal/tool"
)

// cycle is the Ctrl-T tool order.
var cycle = []string{tool.ParagraphName, tool.HeaderName, tool.QuoteName}

// handleKey applies one key. It returns app.ErrQuit on Ctrl-Q.
func (t *Terminal) handleKey(ctx context.Context, ev *tcell.EventKey) error {
	t.plus.Store(false)
	t.setStatus("")

	switch ev.Key() {
	case tcell.KeyCtrlQ:
		return app.ErrQuit
	case tcell.KeyCtrlS:
		return t.save()
	case tcell.KeyEnter:
		return t.gesture(ctx, "enter", func(e *editing.Editor) editing.Result {
			return e.Enter(ctx)
		})
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return t.gesture(ctx, "backspace", func(e *editing.Editor) editing.Result {
			return e.Backspace(ctx, false)
		})
	case tcell.KeyCtrlO:
		return t.gesture(ctx, "add-above", func(e *editing.Editor) editing.Result {
			return e.AddAbove()
		})
	case tcell.KeyCtrlD:
		return t.gesture(ctx, "toggle-disabled", func(e *editing.Editor) editing.Result {
			return e.ToggleDisabled()
		})
	case tcell.KeyCtrlT:
		return t.app.Do(cycleTool)
	case tcell.KeyLeft:
		return t.app.Do(func(b *api.Blocks) error {
			c := b.Editor().Caret()
			if !c.MoveBy(-1) {
				c.NavigatePrevious()
			}
			return nil
		})
	case tcell.KeyRight:
		return t.app.Do(func(b *api.Blocks) error {
			c := b.Editor().Caret()
			if !c.MoveBy(1) {
				c.NavigateNext()
			}
			return nil
		})
	case tcell.KeyUp:
		return t.app.Do(func(b *api.Blocks) error { return stepBlock(b, -1) })
	case tcell.KeyDown:
		return t.app.Do(func(b *api.Blocks) error { return stepBlock(b, 1) })
	case tcell.KeyRune:
		return t.insert(string(ev.Rune()))
	}
	return nil
}

func (t *Terminal) gesture(ctx context.Context, name string, fn func(e *editing.Editor) editing.Result) error {
	res := t.app.Gesture(ctx, name, fn)
	if res.IsError() {
		t.logger.Debug("gesture failed", zap.String("gesture", name), zap.Error(res.Err))
		return res.Err
	}
	return nil
}

func (t *Terminal) insert(text string) error {
	err := t.app.Do(func(b *api.Blocks) error {
		return b.Editor().Caret().InsertText(text)
	})
	if err != nil {
		return err
	}
	t.app.MarkModified()
	return nil
}

func (t *Terminal) save() error {
	if err := t.app.Save(); err != nil {
		return err
	}
	t.setStatus(fmt.Sprintf("saved %s", t.app.DocumentPath()))
	return nil
}

// stepBlock moves the caret delta blocks, landing at the end when moving up
// and at the start when moving down.
func stepBlock(b *api.Blocks, delta int) error {
	index := b.CurrentBlockIndex() + delta
	if index < 0 || index >= b.BlocksCount() {
		return nil
	}
	pos := caret.Start
	if delta < 0 {
		pos = caret.End
	}
	return b.Editor().Caret().SetToBlock(b.BlockByIndex(index).Block(), pos, 0)
}

// cycleTool converts the current text block to the next tool in cycle,
// keeping its text and id.
func cycleTool(b *api.Blocks) error {
	cur := b.BlockByIndex(b.CurrentBlockIndex())
	if cur == nil {
		return nil
	}
	next := ""
	for i, name := range cycle {
		if name == cur.Name() {
			next = cycle[(i+1)%len(cycle)]
		}
	}
	if next == "" {
		return nil
	}
	text := cur.Block().Data().String("text")
	replaced, err := b.ReplaceBlockByID(cur.ID(), next, block.Data{"text": text})
	if err != nil {
		return err
	}
	return b.Editor().Caret().SetToBlock(replaced.Block(), caret.End, 0)
}
