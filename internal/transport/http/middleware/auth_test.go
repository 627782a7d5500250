package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/blockprotocol/hub-api/internal/domain"
)

type mockKeys struct{ mock.Mock }

func (m *mockKeys) ValidateAndGet(ctx context.Context, apiKey, origin string) (*domain.User, *domain.APIKey, error) {
	args := m.Called(ctx, apiKey, origin)
	u, _ := args.Get(0).(*domain.User)
	k, _ := args.Get(1).(*domain.APIKey)
	return u, k, args.Error(2)
}

type mockSessions struct{ mock.Mock }

func (m *mockSessions) Authenticate(ctx context.Context, token string) (*domain.Session, error) {
	args := m.Called(ctx, token)
	s, _ := args.Get(0).(*domain.Session)
	return s, args.Error(1)
}

func okHandler(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

// capture records the user the auth middleware placed in the context.
func capture(got **domain.User) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got, _ = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

var alice = &domain.User{UserID: "u1"}

func TestAuthenticate_Anonymous(t *testing.T) {
	keys, sessions := &mockKeys{}, &mockSessions{}
	var got *domain.User

	rr := httptest.NewRecorder()
	Authenticate(keys, sessions, "bp_session")(capture(&got)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Nil(t, got)
	keys.AssertNotCalled(t, "ValidateAndGet", mock.Anything, mock.Anything, mock.Anything)
	sessions.AssertNotCalled(t, "Authenticate", mock.Anything, mock.Anything)
}

func TestAuthenticate_APIKey(t *testing.T) {
	keys, sessions := &mockKeys{}, &mockSessions{}
	keys.On("ValidateAndGet", mock.Anything, "b10ck5.key", "https://app.example").Return(alice, &domain.APIKey{}, nil)
	var got *domain.User

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("x-api-key", "b10ck5.key")
	req.Header.Set("Origin", "https://app.example")
	req.AddCookie(&http.Cookie{Name: "bp_session", Value: "tok"})
	rr := httptest.NewRecorder()
	Authenticate(keys, sessions, "bp_session")(capture(&got)).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Same(t, alice, got)
	sessions.AssertNotCalled(t, "Authenticate", mock.Anything, mock.Anything)
}

func TestAuthenticate_BadAPIKeyRejected(t *testing.T) {
	keys := &mockKeys{}
	keys.On("ValidateAndGet", mock.Anything, "junk", "").
		Return(nil, nil, domain.NewError(domain.ErrUnauthorized, domain.CodeInvalidAPIKey, "Invalid API key format"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("x-api-key", "junk")
	rr := httptest.NewRecorder()
	Authenticate(keys, &mockSessions{}, "bp_session")(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"errors":[{"msg":"Invalid API key format","code":"INVALID_API_KEY"}]}`, rr.Body.String())
}

func TestAuthenticate_SessionCookie(t *testing.T) {
	sessions := &mockSessions{}
	sessions.On("Authenticate", mock.Anything, "tok").Return(&domain.Session{SessionID: "s1", User: alice}, nil)
	var got *domain.User

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "bp_session", Value: "tok"})
	Authenticate(&mockKeys{}, sessions, "bp_session")(capture(&got)).ServeHTTP(httptest.NewRecorder(), req)

	assert.Same(t, alice, got)
}

func TestAuthenticate_BearerToken(t *testing.T) {
	sessions := &mockSessions{}
	sessions.On("Authenticate", mock.Anything, "tok").Return(&domain.Session{SessionID: "s1", User: alice}, nil)
	var got *domain.User

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer tok")
	Authenticate(&mockKeys{}, sessions, "bp_session")(capture(&got)).ServeHTTP(httptest.NewRecorder(), req)

	assert.Same(t, alice, got)
}

func TestAuthenticate_StaleSessionStaysAnonymous(t *testing.T) {
	sessions := &mockSessions{}
	sessions.On("Authenticate", mock.Anything, "old").Return(nil, domain.ErrUnauthorized)
	var got *domain.User

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "bp_session", Value: "old"})
	rr := httptest.NewRecorder()
	Authenticate(&mockKeys{}, sessions, "bp_session")(capture(&got)).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Nil(t, got)
}

// --- guards ---

func strPtr(s string) *string { return &s }

func TestRequireUser(t *testing.T) {
	h := RequireUser(http.HandlerFunc(okHandler))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	h.ServeHTTP(rr, req.WithContext(WithUser(req.Context(), alice)))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRequireSignedUp(t *testing.T) {
	h := RequireSignedUp(http.HandlerFunc(okHandler))
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req.WithContext(WithUser(req.Context(), alice)))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	done := &domain.User{UserID: "u1", Shortname: strPtr("alice"), PreferredName: strPtr("Alice")}
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req.WithContext(WithUser(req.Context(), done)))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRecoverer(t *testing.T) {
	h := Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"errors":[{"msg":"Internal server error"}]}`, rr.Body.String())
}
