package handler

import (
	"net/http"
	"time"

	"github.com/blockprotocol/hub-api/internal/domain"
	"github.com/blockprotocol/hub-api/internal/transport/http/middleware"
)

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

func (c CookieConfig) set(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c CookieConfig) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func sessionMeta(r *http.Request) domain.SessionMeta {
	return domain.SessionMeta{UserAgent: r.UserAgent(), IP: middleware.ClientIP(r)}
}

// currentUser returns the authenticated user; the route guards guarantee
// one exists, so a miss is answered with 401.
func currentUser(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "You must be logged in to perform this request.")
	}
	return u, ok
}
