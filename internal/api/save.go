package api

import (
	"go.uber.org/zap"

	"github.com/dshills/blockstorm/internal/block"
	"github.com/dshills/blockstorm/internal/document"
	"github.com/dshills/blockstorm/internal/tool"
)

// Save returns the document for the current collection. Blocks whose tool
// rejects their payload are left out.
func (a *Blocks) Save() document.Output {
	blocks := a.blocks.Blocks()
	records := make([]document.SavedData, 0, len(blocks))
	for _, b := range blocks {
		rec := saveBlock(b)
		if !validData(b.Tool(), rec.Data) {
			a.logger.Info("skipping invalid block on save",
				zap.String("id", rec.ID), zap.String("tool", rec.Tool))
			continue
		}
		records = append(records, rec)
	}
	return document.New(records...)
}

// saveBlock snapshots b. A stub saves as the record it was rendered from.
func saveBlock(b *block.Block) document.SavedData {
	rec := document.Snapshot(b)
	if b.Name() != tool.StubName {
		return rec
	}
	saved, ok := asData(rec.Data["savedData"])
	if !ok {
		return rec
	}
	if name := saved.String("tool"); name != "" {
		rec.Tool = name
	}
	rec.Data = block.Data{}
	if data, ok := asData(saved["data"]); ok {
		rec.Data = data.Clone()
	}
	return rec
}

func asData(v any) (block.Data, bool) {
	switch val := v.(type) {
	case block.Data:
		return val, true
	case map[string]any:
		return block.Data(val), true
	}
	return nil, false
}
