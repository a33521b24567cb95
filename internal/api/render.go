package api

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/dshills/blockstorm/internal/block"
	"github.com/dshills/blockstorm/internal/convert"
	"github.com/dshills/blockstorm/internal/document"
	"github.com/dshills/blockstorm/internal/manager"
	"github.com/dshills/blockstorm/internal/tool"
)

// Render replaces the collection with the records of doc. Records whose tool
// is not registered become stub blocks that save back unchanged. An empty
// document renders as one empty default block. No block is current
// afterwards.
func (a *Blocks) Render(ctx context.Context, doc document.Output) error {
	if err := a.blocks.Clear(false); err != nil {
		return err
	}
	return a.renderRecords(ctx, doc.Blocks)
}

// RenderFromHTML replaces the collection with blocks converted from HTML.
func (a *Blocks) RenderFromHTML(ctx context.Context, src string) error {
	records, err := convert.HTML(src)
	if err != nil {
		return err
	}
	if err := a.blocks.Clear(false); err != nil {
		return err
	}
	return a.renderRecords(ctx, records)
}

// RenderFromMarkdown replaces the collection with blocks converted from
// Markdown.
func (a *Blocks) RenderFromMarkdown(ctx context.Context, src string) error {
	records, err := convert.Markdown(src)
	if err != nil {
		return err
	}
	if err := a.blocks.Clear(false); err != nil {
		return err
	}
	return a.renderRecords(ctx, records)
}

func (a *Blocks) renderRecords(ctx context.Context, records []document.SavedData) error {
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			a.ensureBlock()
			return err
		}
		if err := a.renderRecord(i, rec); err != nil {
			a.ensureBlock()
			return fmt.Errorf("render block %d: %w", i, err)
		}
	}
	a.ensureBlock()
	return nil
}

func (a *Blocks) renderRecord(index int, rec document.SavedData) error {
	opts := []manager.InsertOption{
		manager.AtIndex(index),
		manager.WithTool(rec.Tool),
		manager.WithData(rec.Data),
		manager.Disabled(rec.Disabled),
		manager.Focus(false),
	}
	if rec.ID != "" {
		opts = append(opts, manager.WithID(rec.ID))
	}

	_, err := a.blocks.Insert(opts...)
	if !errors.Is(err, tool.ErrToolNotFound) {
		return err
	}

	a.logger.Warn("tool is not registered, rendering a stub", zap.String("tool", rec.Tool))
	opts[1] = manager.WithTool(tool.StubName)
	opts[2] = manager.WithData(stubData(rec))
	_, err = a.blocks.Insert(opts...)
	return err
}

func (a *Blocks) ensureBlock() {
	if a.blocks.Len() > 0 {
		return
	}
	if _, err := a.blocks.InsertDefaultAt(0, false); err != nil {
		a.logger.Warn("insert default block", zap.Error(err))
	}
}

func stubData(rec document.SavedData) block.Data {
	return block.Data{
		"title": rec.Tool,
		"savedData": map[string]any{
			"tool": rec.Tool,
			"data": map[string]any(rec.Data.Clone()),
		},
	}
}
