package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dshills/blockstorm/internal/api"
	"github.com/dshills/blockstorm/internal/app"
	"github.com/dshills/blockstorm/internal/block"
	"github.com/dshills/blockstorm/internal/caret"
	"github.com/dshills/blockstorm/internal/document"
	"github.com/dshills/blockstorm/internal/editing"
	"github.com/dshills/blockstorm/internal/manager"
)

// BlockView is the JSON form of a block.
type BlockView struct {
	ID        string     `json:"id"`
	Tool      string     `json:"tool"`
	Index     int        `json:"index"`
	Data      block.Data `json:"data"`
	Empty     bool       `json:"empty"`
	Disabled  bool       `json:"disabled"`
	Stretched bool       `json:"stretched"`
}

// ListView is the reply to a block listing.
type ListView struct {
	Blocks  []BlockView `json:"blocks"`
	Current int         `json:"current"`
}

// GestureView is the reply to a gesture.
type GestureView struct {
	Status  string     `json:"status"`
	Block   *BlockView `json:"block,omitempty"`
	Current int        `json:"current"`
}

func viewOf(b *api.Blocks, ba *api.BlockAPI) BlockView {
	index, _ := b.BlockIndexByID(ba.ID())
	return BlockView{
		ID:        ba.ID(),
		Tool:      ba.Name(),
		Index:     index,
		Data:      ba.Block().Data(),
		Empty:     ba.IsEmpty(),
		Disabled:  ba.Disabled(),
		Stretched: ba.Stretched(),
	}
}

type blocksHandler struct {
	app *app.Application
}

// do runs fn under the session lock and writes its error, if any.
func (h *blocksHandler) do(w http.ResponseWriter, fn func(b *api.Blocks) error) bool {
	if err := h.app.Do(fn); err != nil {
		respondErr(w, err)
		return false
	}
	return true
}

func indexParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		respondError(w, http.StatusBadRequest, CodeBadRequest, "index must be an integer")
		return 0, false
	}
	return index, true
}

func (h *blocksHandler) list(w http.ResponseWriter, _ *http.Request) {
	var out ListView
	ok := h.do(w, func(b *api.Blocks) error {
		out.Current = b.CurrentBlockIndex()
		out.Blocks = make([]BlockView, 0, b.BlocksCount())
		for i := 0; i < b.BlocksCount(); i++ {
			out.Blocks = append(out.Blocks, viewOf(b, b.BlockByIndex(i)))
		}
		return nil
	})
	if ok {
		respondJSON(w, http.StatusOK, out)
	}
}

// InsertRequest is the body of POST /blocks.
type InsertRequest struct {
	Tool     string     `json:"tool,omitempty" validate:"omitempty,max=64"`
	Data     block.Data `json:"data,omitempty"`
	ID       string     `json:"id,omitempty" validate:"omitempty,max=128"`
	Index    *int       `json:"index,omitempty" validate:"omitempty,gte=0"`
	Focus    bool       `json:"focus,omitempty"`
	Replace  bool       `json:"replace,omitempty"`
	Disabled bool       `json:"disabled,omitempty"`
}

func (req InsertRequest) options() []manager.InsertOption {
	var opts []manager.InsertOption
	if req.Tool != "" {
		opts = append(opts, manager.WithTool(req.Tool))
	}
	if req.Data != nil {
		opts = append(opts, manager.WithData(req.Data))
	}
	if req.ID != "" {
		opts = append(opts, manager.WithID(req.ID))
	}
	if req.Index != nil {
		opts = append(opts, manager.AtIndex(*req.Index))
	}
	if req.Replace {
		opts = append(opts, manager.Replace())
	}
	opts = append(opts, manager.Focus(req.Focus), manager.Disabled(req.Disabled))
	return opts
}

func (h *blocksHandler) insert(w http.ResponseWriter, r *http.Request) {
	var req InsertRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	var view BlockView
	ok := h.do(w, func(b *api.Blocks) error {
		ba, err := b.Insert(req.options()...)
		if err != nil {
			return err
		}
		view = viewOf(b, ba)
		return nil
	})
	if ok {
		respondJSON(w, http.StatusCreated, view)
	}
}

func (h *blocksHandler) clear(w http.ResponseWriter, _ *http.Request) {
	if h.do(w, func(b *api.Blocks) error { return b.Clear() }) {
		w.WriteHeader(http.StatusNoContent)
	}
}

// MoveRequest is the body of POST /blocks/move and /blocks/swap.
type MoveRequest struct {
	From int `json:"from" validate:"gte=0"`
	To   int `json:"to" validate:"gte=0"`
}

func (h *blocksHandler) move(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if h.do(w, func(b *api.Blocks) error { return b.Move(req.To, req.From) }) {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *blocksHandler) swap(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if h.do(w, func(b *api.Blocks) error { return b.Swap(req.From, req.To) }) {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *blocksHandler) getByIndex(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r)
	if !ok {
		return
	}
	var view BlockView
	ok = h.do(w, func(b *api.Blocks) error {
		ba := b.BlockByIndex(index)
		if ba == nil {
			return &manager.NotFoundError{Index: index}
		}
		view = viewOf(b, ba)
		return nil
	})
	if ok {
		respondJSON(w, http.StatusOK, view)
	}
}

func (h *blocksHandler) deleteByIndex(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r)
	if !ok {
		return
	}
	ok = h.do(w, func(b *api.Blocks) error {
		if index < 0 || index >= b.BlocksCount() {
			return &manager.NotFoundError{Index: index}
		}
		b.Delete(index)
		return nil
	})
	if ok {
		w.WriteHeader(http.StatusNoContent)
	}
}

// StretchRequest is the body of PUT /blocks/{index}/stretched.
type StretchRequest struct {
	Stretched bool `json:"stretched"`
}

func (h *blocksHandler) stretch(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r)
	if !ok {
		return
	}
	var req StretchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ok = h.do(w, func(b *api.Blocks) error {
		ba := b.BlockByIndex(index)
		if ba == nil {
			return &manager.NotFoundError{Index: index}
		}
		ba.SetStretched(req.Stretched)
		return nil
	})
	if ok {
		w.WriteHeader(http.StatusNoContent)
	}
}

// ============================================================================
// Id addressed operations
// ============================================================================

func (h *blocksHandler) getByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var view BlockView
	ok := h.do(w, func(b *api.Blocks) error {
		ba, err := b.BlockByID(id)
		if err != nil {
			return err
		}
		view = viewOf(b, ba)
		return nil
	})
	if ok {
		respondJSON(w, http.StatusOK, view)
	}
}

// UpdateRequest is the body of PUT /blocks/id/{id}. A tool replaces the
// block's tool in place; without one only the payload changes.
type UpdateRequest struct {
	Tool string     `json:"tool,omitempty" validate:"omitempty,max=64"`
	Data block.Data `json:"data" validate:"required"`
}

func (h *blocksHandler) updateByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req UpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	var view BlockView
	ok := h.do(w, func(b *api.Blocks) error {
		var (
			ba  *api.BlockAPI
			err error
		)
		if req.Tool != "" {
			ba, err = b.ReplaceBlockByID(id, req.Tool, req.Data)
		} else {
			ba, err = b.Update(id, req.Data)
		}
		if err != nil {
			return err
		}
		view = viewOf(b, ba)
		return nil
	})
	if ok {
		respondJSON(w, http.StatusOK, view)
	}
}

func (h *blocksHandler) deleteByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if h.do(w, func(b *api.Blocks) error { return b.RemoveBlockByID(id) }) {
		w.WriteHeader(http.StatusNoContent)
	}
}

// MoveByIDRequest is the body of POST /blocks/id/{id}/move.
type MoveByIDRequest struct {
	To   int        `json:"to" validate:"gte=0"`
	Data block.Data `json:"data,omitempty"`
}

func (h *blocksHandler) moveByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req MoveByIDRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	var view BlockView
	ok := h.do(w, func(b *api.Blocks) error {
		ba, err := b.MoveBlockToIndexByID(id, req.To, req.Data)
		if err != nil {
			return err
		}
		view = viewOf(b, ba)
		return nil
	})
	if ok {
		respondJSON(w, http.StatusOK, view)
	}
}

// FieldView is the reply to a field read.
type FieldView struct {
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
	Value  any    `json:"value"`
}

func (h *blocksHandler) field(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	path := r.URL.Query().Get("path")
	if path == "" {
		respondError(w, http.StatusBadRequest, CodeBadRequest, "path query parameter is required")
		return
	}
	var view FieldView
	ok := h.do(w, func(b *api.Blocks) error {
		res, err := b.Field(id, path)
		if err != nil {
			return err
		}
		view = FieldView{Path: path, Exists: res.Exists(), Value: res.Value()}
		return nil
	})
	if ok {
		respondJSON(w, http.StatusOK, view)
	}
}

// FieldRequest is the body of PATCH /blocks/id/{id}/field.
type FieldRequest struct {
	Path  string `json:"path" validate:"required"`
	Value any    `json:"value"`
}

func (h *blocksHandler) updateField(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req FieldRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	var view BlockView
	ok := h.do(w, func(b *api.Blocks) error {
		ba, err := b.UpdateField(id, req.Path, req.Value)
		if err != nil {
			return err
		}
		view = viewOf(b, ba)
		return nil
	})
	if ok {
		respondJSON(w, http.StatusOK, view)
	}
}

// ============================================================================
// Rendering
// ============================================================================

func (h *blocksHandler) render(w http.ResponseWriter, r *http.Request) {
	var doc document.Output
	if !decodeJSON(w, r, &doc) {
		return
	}
	if err := document.Validate(doc); err != nil {
		respondErr(w, err)
		return
	}
	if h.do(w, func(b *api.Blocks) error { return b.Render(r.Context(), doc) }) {
		h.list(w, r)
	}
}

func (h *blocksHandler) renderHTML(w http.ResponseWriter, r *http.Request) {
	h.renderSource(w, r, (*api.Blocks).RenderFromHTML)
}

func (h *blocksHandler) renderMarkdown(w http.ResponseWriter, r *http.Request) {
	h.renderSource(w, r, (*api.Blocks).RenderFromMarkdown)
}

func (h *blocksHandler) renderSource(w http.ResponseWriter, r *http.Request, fn func(*api.Blocks, context.Context, string) error) {
	src, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, CodeBadRequest, "read body: "+err.Error())
		return
	}
	if h.do(w, func(b *api.Blocks) error { return fn(b, r.Context(), string(src)) }) {
		h.list(w, r)
	}
}

// ============================================================================
// Caret and gestures
// ============================================================================

// CaretRequest is the body of POST /blocks/caret. Position "start" or "end"
// overrides Input and Offset.
type CaretRequest struct {
	ID       string `json:"id" validate:"required"`
	Position string `json:"position,omitempty" validate:"omitempty,oneof=start end"`
	Input    int    `json:"input" validate:"gte=0"`
	Offset   int    `json:"offset" validate:"gte=0"`
}

func (h *blocksHandler) setCaret(w http.ResponseWriter, r *http.Request) {
	var req CaretRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ok := h.do(w, func(b *api.Blocks) error {
		ba, err := b.BlockByID(req.ID)
		if err != nil {
			return err
		}
		c := b.Editor().Caret()
		switch req.Position {
		case "start":
			return c.SetToBlock(ba.Block(), caret.Start, 0)
		case "end":
			return c.SetToBlock(ba.Block(), caret.End, 0)
		}
		return c.SetToInput(ba.Block(), req.Input, req.Offset)
	})
	if ok {
		w.WriteHeader(http.StatusNoContent)
	}
}

// TextRequest is the body of POST /blocks/text.
type TextRequest struct {
	Text string `json:"text" validate:"required"`
}

func (h *blocksHandler) insertText(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if h.do(w, func(b *api.Blocks) error { return b.Editor().Caret().InsertText(req.Text) }) {
		h.app.MarkModified()
		w.WriteHeader(http.StatusNoContent)
	}
}

// gestures maps the /keys/{gesture} names to editor calls.
var gestures = map[string]func(ctx context.Context, e *editing.Editor) editing.Result{
	"enter": func(ctx context.Context, e *editing.Editor) editing.Result {
		return e.Enter(ctx)
	},
	"backspace": func(ctx context.Context, e *editing.Editor) editing.Result {
		return e.Backspace(ctx, false)
	},
	"merge": func(ctx context.Context, e *editing.Editor) editing.Result {
		return e.MergeBlocks(ctx)
	},
	"split": func(ctx context.Context, e *editing.Editor) editing.Result {
		return e.Split(ctx)
	},
	"add-above": func(_ context.Context, e *editing.Editor) editing.Result {
		return e.AddAbove()
	},
	"toggle-disabled": func(_ context.Context, e *editing.Editor) editing.Result {
		return e.ToggleDisabled()
	},
}

func (h *blocksHandler) gesture(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "gesture")
	fn, ok := gestures[name]
	if !ok {
		respondError(w, http.StatusNotFound, CodeNotFound, "unknown gesture "+strconv.Quote(name))
		return
	}

	ctx := r.Context()
	res := h.app.Gesture(ctx, name, func(e *editing.Editor) editing.Result {
		return fn(ctx, e)
	})
	if res.IsError() {
		if res.Err == nil {
			res.Err = errors.New(name + " failed")
		}
		respondErr(w, res.Err)
		return
	}

	out := GestureView{Status: res.Status.String()}
	ok = h.do(w, func(b *api.Blocks) error {
		out.Current = b.CurrentBlockIndex()
		if res.Block != nil && !res.Block.Destroyed() {
			if ba, err := b.BlockByID(res.Block.ID()); err == nil {
				v := viewOf(b, ba)
				out.Block = &v
			}
		}
		return nil
	})
	if ok {
		respondJSON(w, http.StatusOK, out)
	}
}
