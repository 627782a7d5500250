package handler

import (
	"context"
	"net/http"

	"github.com/blockprotocol/hub-api/internal/application/auth"
	"github.com/blockprotocol/hub-api/internal/domain"
)

// LoginEnvelope is returned by every endpoint that opens a session. The
// token is also set as the session cookie.
type LoginEnvelope struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

// AuthHandler handles the email-code signup, login and WordPress link flows.
type AuthHandler struct {
	svc    auth.Service
	cookie CookieConfig
}

func NewAuthHandler(svc auth.Service, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{svc: svc, cookie: cookie}
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req domain.SignupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	issued, err := h.svc.Signup(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, issued)
}

func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	h.redeem(w, r, h.svc.VerifyEmail)
}

func (h *AuthHandler) SendLoginCode(w http.ResponseWriter, r *http.Request) {
	var req domain.SendLoginCodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	issued, err := h.svc.SendLoginCode(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, issued)
}

func (h *AuthHandler) LoginWithLoginCode(w http.ResponseWriter, r *http.Request) {
	h.redeem(w, r, h.svc.LoginWithLoginCode)
}

func (h *AuthHandler) LinkWordpress(w http.ResponseWriter, r *http.Request) {
	var req domain.LinkWordpressRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	issued, err := h.svc.LinkWordpress(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, issued)
}

func (h *AuthHandler) VerifyWordpressLink(w http.ResponseWriter, r *http.Request) {
	h.redeem(w, r, h.svc.VerifyWordpressLink)
}

type redeemFunc func(ctx context.Context, req domain.VerificationCodeRequest, meta domain.SessionMeta) (*auth.LoginResult, error)

// redeem runs one of the code-redeeming flows and starts the session.
func (h *AuthHandler) redeem(w http.ResponseWriter, r *http.Request, fn redeemFunc) {
	var req domain.VerificationCodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := fn(r.Context(), req, sessionMeta(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.cookie.set(w, res.Token, res.Session.ExpiresAt)
	writeJSON(w, http.StatusOK, LoginEnvelope{User: res.User, Token: res.Token})
}
