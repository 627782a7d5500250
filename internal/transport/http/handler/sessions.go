package handler

import (
	"net/http"

	"github.com/blockprotocol/hub-api/internal/application/session"
	"github.com/blockprotocol/hub-api/internal/transport/http/middleware"
)

// SessionHandler handles session endpoints.
type SessionHandler struct {
	svc    session.Service
	cookie CookieConfig
}

func NewSessionHandler(svc session.Service, cookie CookieConfig) *SessionHandler {
	return &SessionHandler{svc: svc, cookie: cookie}
}

// Logout disables the current session and clears the cookie. Requests
// authenticated by API key have no session to end.
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := middleware.SessionFromContext(r.Context()); ok {
		if err := h.svc.Logout(r.Context(), sess.SessionID); err != nil {
			writeServiceError(w, r, err)
			return
		}
	}
	h.cookie.clear(w)
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "logged out"})
}
