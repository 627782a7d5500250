package handler

import (
	"net/http"
	"strconv"

	"github.com/blockprotocol/hub-api/internal/application/ontology"
	"github.com/blockprotocol/hub-api/internal/domain"
)

// TypeHandler serves one ontology kind. itemKey and listKey name the
// response fields, e.g. "entityType" and "entityTypes".
type TypeHandler[S any] struct {
	svc     ontology.Service[S]
	itemKey string
	listKey string
}

func NewTypeHandler[S any](svc ontology.Service[S], itemKey, listKey string) *TypeHandler[S] {
	return &TypeHandler[S]{svc: svc, itemKey: itemKey, listKey: listKey}
}

func (h *TypeHandler[S]) Create(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req domain.CreateTypeRequest[S]
	if !decodeJSON(w, r, &req) {
		return
	}
	t, err := h.svc.Create(r.Context(), u, req.Schema)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{h.itemKey: t})
}

func (h *TypeHandler[S]) Update(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req domain.UpdateTypeRequest[S]
	if !decodeJSON(w, r, &req) {
		return
	}
	t, err := h.svc.Update(r.Context(), u, req.VersionedURL, req.Schema)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{h.itemKey: t})
}

func (h *TypeHandler[S]) Get(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	t, err := h.svc.Get(r.Context(), domain.GetTypeRequest{
		BaseURL:      q.Get("baseUrl"),
		VersionedURL: q.Get("versionedUrl"),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{h.itemKey: t})
}

func (h *TypeHandler[S]) Query(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := domain.QueryTypesRequest{Shortname: q.Get("shortname")}
	if raw := q.Get("latestOnly"); raw != "" {
		latest, err := strconv.ParseBool(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorEnvelope{Errors: []ErrorItem{{Msg: "latestOnly must be a boolean", Param: "latestOnly", Value: raw}}})
			return
		}
		req.LatestOnly = latest
	}
	ts, err := h.svc.Query(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{h.listKey: ts})
}
