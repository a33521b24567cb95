package app

import (
	"context"

	"go.uber.org/zap"

	"github.com/dshills/blockstorm/internal/caret"
	"github.com/dshills/blockstorm/internal/document"
)

// Open renders the document at path and makes it the save target.
func (app *Application) Open(ctx context.Context, path string) error {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.open(ctx, path)
}

func (app *Application) open(ctx context.Context, path string) error {
	doc, err := document.ReadFile(path)
	if err != nil {
		return &OperationError{Op: "open", Path: path, Err: err}
	}
	if err := app.api.Render(ctx, doc); err != nil {
		return &OperationError{Op: "open", Path: path, Err: err}
	}
	app.docPath = path
	app.modified.Store(false)
	app.focusFirst()
	app.logger.Info("document opened",
		zap.String("path", path), zap.Int("blocks", app.blocks.Len()))
	return nil
}

// focusFirst puts the caret at the start of the first block when autofocus
// is enabled.
func (app *Application) focusFirst() {
	if !app.cfg.Editor.Autofocus {
		return
	}
	if first := app.blocks.BlockByIndex(0); first != nil {
		if err := app.caret.SetToBlock(first, caret.Start, 0); err != nil {
			app.logger.Debug("autofocus", zap.Error(err))
		}
	}
}

// Save writes the document to its path.
func (app *Application) Save() error {
	app.mu.Lock()
	defer app.mu.Unlock()
	if app.docPath == "" {
		return &OperationError{Op: "save", Err: ErrNoDocumentPath}
	}
	return app.saveTo(app.docPath)
}

// SaveAs writes the document to path and makes path the save target.
func (app *Application) SaveAs(path string) error {
	app.mu.Lock()
	defer app.mu.Unlock()
	if err := app.saveTo(path); err != nil {
		return err
	}
	app.docPath = path
	return nil
}

func (app *Application) saveTo(path string) error {
	out := app.api.Save()
	if err := document.WriteFile(path, out); err != nil {
		return &OperationError{Op: "save", Path: path, Err: err}
	}
	app.modified.Store(false)
	app.logger.Info("document saved",
		zap.String("path", path), zap.Int("blocks", len(out.Blocks)))
	return nil
}

// DocumentPath returns the save target.
func (app *Application) DocumentPath() string {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.docPath
}

// IsModified reports whether the document changed since it was opened or
// saved.
func (app *Application) IsModified() bool {
	return app.modified.Load()
}

// MarkModified records a change made outside the collection events, such
// as typing into an input.
func (app *Application) MarkModified() {
	app.modified.Store(true)
}
