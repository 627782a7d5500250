package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/blockprotocol/hub-api/internal/application/block"
)

// BlockHandler serves the block catalog and streams block assets.
type BlockHandler struct {
	svc block.Service
}

func NewBlockHandler(svc block.Service) *BlockHandler { return &BlockHandler{svc: svc} }

func (h *BlockHandler) List(w http.ResponseWriter, r *http.Request) {
	blocks, err := h.svc.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"blocks": blocks})
}

func (h *BlockHandler) Get(w http.ResponseWriter, r *http.Request) {
	meta, err := h.svc.Get(r.Context(), chi.URLParam(r, "author"), chi.URLParam(r, "name"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

func (h *BlockHandler) Asset(w http.ResponseWriter, r *http.Request) {
	obj, err := h.svc.Asset(r.Context(), chi.URLParam(r, "author"), chi.URLParam(r, "name"), chi.URLParam(r, "*"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	defer obj.Body.Close()

	if obj.ContentType != "" {
		w.Header().Set("Content-Type", obj.ContentType)
	}
	if obj.ContentLength > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.ContentLength, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, obj.Body); err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("asset stream interrupted")
	}
}
