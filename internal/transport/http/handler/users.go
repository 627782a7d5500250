package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/blockprotocol/hub-api/internal/application/user"
	"github.com/blockprotocol/hub-api/internal/domain"
)

// UserHandler handles account and profile endpoints.
type UserHandler struct {
	svc user.Service
}

func NewUserHandler(svc user.Service) *UserHandler { return &UserHandler{svc: svc} }

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, UserEnvelope{User: u})
}

func (h *UserHandler) CompleteSignup(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req domain.CompleteSignupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	updated, err := h.svc.CompleteSignup(r.Context(), u, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, UserEnvelope{User: updated})
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req domain.UpdateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	updated, err := h.svc.UpdateProfile(r.Context(), u, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, UserEnvelope{User: updated})
}

func (h *UserHandler) IsShortnameTaken(w http.ResponseWriter, r *http.Request) {
	shortname := r.URL.Query().Get("shortname")
	if shortname == "" {
		writeJSON(w, http.StatusBadRequest, ErrorEnvelope{Errors: []ErrorItem{{Msg: "shortname is required", Param: "shortname"}}})
		return
	}
	taken, err := h.svc.IsShortnameTaken(r.Context(), shortname)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, taken)
}

func (h *UserHandler) PublicProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetPublicProfile(r.Context(), chi.URLParam(r, "shortname"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
