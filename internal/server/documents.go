package server

import (
	"net/http"

	"github.com/dshills/blockstorm/internal/api"
	"github.com/dshills/blockstorm/internal/app"
	"github.com/dshills/blockstorm/internal/document"
)

type documentHandler struct {
	app *app.Application
}

// SaveView is the reply to POST /document/save.
type SaveView struct {
	Path string `json:"path"`
}

func (h *documentHandler) get(w http.ResponseWriter, _ *http.Request) {
	var out document.Output
	err := h.app.Do(func(b *api.Blocks) error {
		out = b.Save()
		return nil
	})
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *documentHandler) save(w http.ResponseWriter, _ *http.Request) {
	if err := h.app.Save(); err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, SaveView{Path: h.app.DocumentPath()})
}
