package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/blockprotocol/hub-api/internal/domain"
	jwtinfra "github.com/blockprotocol/hub-api/internal/infrastructure/jwt"
)

// --- mocks ---

type mockSessionStore struct{ mock.Mock }

func (m *mockSessionStore) Put(ctx context.Context, s *domain.Session) error {
	return m.Called(ctx, s).Error(0)
}
func (m *mockSessionStore) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	args := m.Called(ctx, sessionID)
	if s, _ := args.Get(0).(*domain.Session); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockSessionStore) Disable(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

// --- builder ---

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T, ss *mockSessionStore, us *mockUserStore) (Service, *jwtinfra.Provider) {
	t.Helper()
	p, err := jwtinfra.NewHMACProvider([]byte("test-secret"))
	require.NoError(t, err)
	return NewService(ServiceDeps{
		SessionRepo: ss,
		UserRepo:    us,
		JWTProvider: p,
		MaxAge:      24 * time.Hour,
		Now:         func() time.Time { return fixedNow },
	}), p
}

// --- Open ---

func TestOpen_StoresSessionAndSignsToken(t *testing.T) {
	ss := &mockSessionStore{}
	ss.On("Put", mock.Anything, mock.MatchedBy(func(s *domain.Session) bool {
		return s.UserID == "u1" && s.Enable && s.ExpiresAt.Equal(fixedNow.Add(24*time.Hour)) && s.IP == "1.2.3.4"
	})).Return(nil)

	svc, p := newService(t, ss, nil)
	sess, token, err := svc.Open(context.Background(), &domain.User{UserID: "u1"}, domain.SessionMeta{IP: "1.2.3.4"})
	require.NoError(t, err)
	assert.Equal(t, "u1", sess.User.UserID)

	claims, err := p.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, sess.SessionID, claims.SessionID)
	ss.AssertExpectations(t)
}

func TestOpen_StoreError(t *testing.T) {
	ss := &mockSessionStore{}
	ss.On("Put", mock.Anything, mock.Anything).Return(errors.New("db down"))

	svc, _ := newService(t, ss, nil)
	_, _, err := svc.Open(context.Background(), &domain.User{UserID: "u1"}, domain.SessionMeta{})
	assert.EqualError(t, err, "db down")
}

// --- Authenticate ---

func TestAuthenticate_ActiveSession(t *testing.T) {
	ss := &mockSessionStore{}
	us := &mockUserStore{}
	svc, p := newService(t, ss, us)

	token, err := p.Sign("u1", "s1", time.Now().Add(time.Hour))
	require.NoError(t, err)
	ss.On("Get", mock.Anything, "s1").Return(&domain.Session{SessionID: "s1", UserID: "u1", Enable: true, ExpiresAt: fixedNow.Add(time.Hour)}, nil)
	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", Email: "a@b.c"}, nil)

	sess, err := svc.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", sess.User.Email)
}

func TestAuthenticate_DisabledSession(t *testing.T) {
	ss := &mockSessionStore{}
	svc, p := newService(t, ss, nil)

	token, err := p.Sign("u1", "s1", time.Now().Add(time.Hour))
	require.NoError(t, err)
	ss.On("Get", mock.Anything, "s1").Return(&domain.Session{SessionID: "s1", UserID: "u1", Enable: false, ExpiresAt: fixedNow.Add(time.Hour)}, nil)

	_, err = svc.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuthenticate_ExpiredSession(t *testing.T) {
	ss := &mockSessionStore{}
	svc, p := newService(t, ss, nil)

	token, err := p.Sign("u1", "s1", time.Now().Add(time.Hour))
	require.NoError(t, err)
	ss.On("Get", mock.Anything, "s1").Return(&domain.Session{SessionID: "s1", UserID: "u1", Enable: true, ExpiresAt: fixedNow.Add(-time.Second)}, nil)

	_, err = svc.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuthenticate_GarbageToken(t *testing.T) {
	svc, _ := newService(t, &mockSessionStore{}, nil)
	_, err := svc.Authenticate(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuthenticate_UnknownSession(t *testing.T) {
	ss := &mockSessionStore{}
	svc, p := newService(t, ss, nil)

	token, err := p.Sign("u1", "gone", time.Now().Add(time.Hour))
	require.NoError(t, err)
	ss.On("Get", mock.Anything, "gone").Return(nil, domain.ErrNotFound)

	_, err = svc.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

// --- Logout ---

func TestLogout_DisablesSession(t *testing.T) {
	ss := &mockSessionStore{}
	ss.On("Disable", mock.Anything, "s1").Return(nil)

	svc, _ := newService(t, ss, nil)
	require.NoError(t, svc.Logout(context.Background(), "s1"))
	ss.AssertExpectations(t)
}
