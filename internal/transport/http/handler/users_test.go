package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/blockprotocol/hub-api/internal/domain"
)

func TestMe_Anonymous(t *testing.T) {
	h := NewUserHandler(&mockUsers{})

	rr := httptest.NewRecorder()
	h.Me(rr, httptest.NewRequest(http.MethodGet, "/api/me", nil))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCompleteSignup_ShortnameTaken(t *testing.T) {
	svc := &mockUsers{}
	svc.On("CompleteSignup", mock.Anything, signedUp, domain.CompleteSignupRequest{Shortname: "bobby", PreferredName: "Bob"}).
		Return(nil, domain.NewError(domain.ErrBadRequest, domain.CodeShortnameTaken, "Shortname is already taken."))
	h := NewUserHandler(svc)

	req := asUser(httptest.NewRequest(http.MethodPost, "/api/complete-signup", strings.NewReader(`{"shortname":"bobby","preferredName":"Bob"}`)), signedUp)
	rr := httptest.NewRecorder()
	h.CompleteSignup(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, domain.CodeShortnameTaken, decodeErrors(t, rr)[0].Code)
}

func TestIsShortnameTaken(t *testing.T) {
	svc := &mockUsers{}
	svc.On("IsShortnameTaken", mock.Anything, "alice").Return(true, nil)
	h := NewUserHandler(svc)

	rr := httptest.NewRecorder()
	h.IsShortnameTaken(rr, httptest.NewRequest(http.MethodGet, "/api/is-shortname-taken?shortname=alice", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `true`, rr.Body.String())

	rr = httptest.NewRecorder()
	h.IsShortnameTaken(rr, httptest.NewRequest(http.MethodGet, "/api/is-shortname-taken", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "shortname", decodeErrors(t, rr)[0].Param)
}

func TestPublicProfile_NotFound(t *testing.T) {
	svc := &mockUsers{}
	svc.On("GetPublicProfile", mock.Anything, "ghost").Return(nil, domain.ErrNotFound)
	h := NewUserHandler(svc)

	rr := httptest.NewRecorder()
	h.PublicProfile(rr, withParams(httptest.NewRequest(http.MethodGet, "/api/users/ghost", nil), "shortname", "ghost"))

	assert.Equal(t, http.StatusNotFound, rr.Code)
}
