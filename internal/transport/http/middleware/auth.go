package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/blockprotocol/hub-api/internal/domain"
)

type contextKey string

const (
	userKey    contextKey = "user"
	sessionKey contextKey = "session"
	apiKeyKey  contextKey = "apiKey"
)

// APIKeyHeader carries an API key instead of a session.
const APIKeyHeader = "X-Api-Key"

type apiKeyValidator interface {
	ValidateAndGet(ctx context.Context, apiKey, origin string) (*domain.User, *domain.APIKey, error)
}

type sessionAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Session, error)
}

// Authenticate resolves the caller and stores it in the request context.
// An API key takes precedence over a session; an invalid API key fails the
// request, while an invalid session token only leaves it anonymous.
func Authenticate(keys apiKeyValidator, sessions sessionAuthenticator, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if apiKey := r.Header.Get(APIKeyHeader); apiKey != "" {
				u, k, err := keys.ValidateAndGet(ctx, apiKey, r.Header.Get("Origin"))
				if err != nil {
					var de *domain.Error
					if errors.As(err, &de) {
						writeJSONError(w, http.StatusUnauthorized, de.Msg, de.Code)
						return
					}
					zerolog.Ctx(ctx).Error().Err(err).Msg("api key validation failed")
					writeJSONError(w, http.StatusInternalServerError, "Internal server error", "")
					return
				}
				ctx = context.WithValue(ctx, userKey, u)
				ctx = context.WithValue(ctx, apiKeyKey, k)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			if token := sessionToken(r, cookieName); token != "" {
				sess, err := sessions.Authenticate(ctx, token)
				switch {
				case err == nil:
					ctx = context.WithValue(ctx, userKey, sess.User)
					ctx = context.WithValue(ctx, sessionKey, sess)
				case !errors.Is(err, domain.ErrUnauthorized):
					zerolog.Ctx(ctx).Error().Err(err).Msg("session lookup failed")
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionToken(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(userKey).(*domain.User)
	return u, ok && u != nil
}

// SessionFromContext returns the session the request was authenticated
// with. Requests authenticated by API key have none.
func SessionFromContext(ctx context.Context) (*domain.Session, bool) {
	s, ok := ctx.Value(sessionKey).(*domain.Session)
	return s, ok && s != nil
}

// WithUser returns ctx carrying u as the authenticated user.
func WithUser(ctx context.Context, u *domain.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// WithSession returns ctx carrying sess and its user.
func WithSession(ctx context.Context, sess *domain.Session) context.Context {
	return context.WithValue(WithUser(ctx, sess.User), sessionKey, sess)
}
