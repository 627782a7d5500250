package handler

import (
	"net/http"

	"github.com/blockprotocol/hub-api/internal/application/apikey"
	"github.com/blockprotocol/hub-api/internal/domain"
)

type APIKeyEnvelope struct {
	APIKey string `json:"apiKey"`
}

type APIKeysEnvelope struct {
	APIKeys []domain.APIKey `json:"apiKeys"`
}

// APIKeyHandler manages the current user's API keys.
type APIKeyHandler struct {
	svc apikey.Service
}

func NewAPIKeyHandler(svc apikey.Service) *APIKeyHandler { return &APIKeyHandler{svc: svc} }

func (h *APIKeyHandler) Generate(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req domain.GenerateAPIKeyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	key, err := h.svc.Generate(r.Context(), u, req.DisplayName)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, APIKeyEnvelope{APIKey: key})
}

func (h *APIKeyHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req domain.RevokeAPIKeyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.Revoke(r.Context(), u, req.PublicID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "API key revoked"})
}

func (h *APIKeyHandler) List(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	keys, err := h.svc.List(r.Context(), u)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if keys == nil {
		keys = []domain.APIKey{}
	}
	writeJSON(w, http.StatusOK, APIKeysEnvelope{APIKeys: keys})
}

func (h *APIKeyHandler) Update(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req domain.UpdateAPIKeyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.UpdateDisplayName(r.Context(), u, req.PublicID, req.DisplayName); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "API key updated"})
}
