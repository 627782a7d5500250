package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"

	"github.com/blockprotocol/hub-api/internal/application/auth"
	"github.com/blockprotocol/hub-api/internal/domain"
	s3infra "github.com/blockprotocol/hub-api/internal/infrastructure/s3"
	"github.com/blockprotocol/hub-api/internal/transport/http/middleware"
)

type mockAuth struct{ mock.Mock }

func (m *mockAuth) issued(args mock.Arguments) (*domain.VerificationCodeIssued, error) {
	v, _ := args.Get(0).(*domain.VerificationCodeIssued)
	return v, args.Error(1)
}

func (m *mockAuth) login(args mock.Arguments) (*auth.LoginResult, error) {
	v, _ := args.Get(0).(*auth.LoginResult)
	return v, args.Error(1)
}

func (m *mockAuth) Signup(ctx context.Context, req domain.SignupRequest) (*domain.VerificationCodeIssued, error) {
	return m.issued(m.Called(ctx, req))
}

func (m *mockAuth) VerifyEmail(ctx context.Context, req domain.VerificationCodeRequest, meta domain.SessionMeta) (*auth.LoginResult, error) {
	return m.login(m.Called(ctx, req, meta))
}

func (m *mockAuth) SendLoginCode(ctx context.Context, req domain.SendLoginCodeRequest) (*domain.VerificationCodeIssued, error) {
	return m.issued(m.Called(ctx, req))
}

func (m *mockAuth) LoginWithLoginCode(ctx context.Context, req domain.VerificationCodeRequest, meta domain.SessionMeta) (*auth.LoginResult, error) {
	return m.login(m.Called(ctx, req, meta))
}

func (m *mockAuth) LinkWordpress(ctx context.Context, req domain.LinkWordpressRequest) (*domain.VerificationCodeIssued, error) {
	return m.issued(m.Called(ctx, req))
}

func (m *mockAuth) VerifyWordpressLink(ctx context.Context, req domain.VerificationCodeRequest, meta domain.SessionMeta) (*auth.LoginResult, error) {
	return m.login(m.Called(ctx, req, meta))
}

type mockUsers struct{ mock.Mock }

func (m *mockUsers) user(args mock.Arguments) (*domain.User, error) {
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}

func (m *mockUsers) Get(ctx context.Context, userID string) (*domain.User, error) {
	return m.user(m.Called(ctx, userID))
}

func (m *mockUsers) CompleteSignup(ctx context.Context, u *domain.User, req domain.CompleteSignupRequest) (*domain.User, error) {
	return m.user(m.Called(ctx, u, req))
}

func (m *mockUsers) UpdateProfile(ctx context.Context, u *domain.User, req domain.UpdateUserRequest) (*domain.User, error) {
	return m.user(m.Called(ctx, u, req))
}

func (m *mockUsers) IsShortnameTaken(ctx context.Context, shortname string) (bool, error) {
	args := m.Called(ctx, shortname)
	return args.Bool(0), args.Error(1)
}

func (m *mockUsers) GetPublicProfile(ctx context.Context, shortname string) (*domain.PublicUser, error) {
	args := m.Called(ctx, shortname)
	p, _ := args.Get(0).(*domain.PublicUser)
	return p, args.Error(1)
}

type mockKeys struct{ mock.Mock }

func (m *mockKeys) Generate(ctx context.Context, u *domain.User, displayName string) (string, error) {
	args := m.Called(ctx, u, displayName)
	return args.String(0), args.Error(1)
}

func (m *mockKeys) ValidateAndGet(ctx context.Context, apiKey, origin string) (*domain.User, *domain.APIKey, error) {
	args := m.Called(ctx, apiKey, origin)
	u, _ := args.Get(0).(*domain.User)
	k, _ := args.Get(1).(*domain.APIKey)
	return u, k, args.Error(2)
}

func (m *mockKeys) Revoke(ctx context.Context, u *domain.User, publicID string) error {
	return m.Called(ctx, u, publicID).Error(0)
}

func (m *mockKeys) List(ctx context.Context, u *domain.User) ([]domain.APIKey, error) {
	args := m.Called(ctx, u)
	ks, _ := args.Get(0).([]domain.APIKey)
	return ks, args.Error(1)
}

func (m *mockKeys) UpdateDisplayName(ctx context.Context, u *domain.User, publicID, displayName string) error {
	return m.Called(ctx, u, publicID, displayName).Error(0)
}

type mockEntityTypes struct{ mock.Mock }

func (m *mockEntityTypes) one(args mock.Arguments) (*domain.TypeWithMetadata[domain.EntityType], error) {
	t, _ := args.Get(0).(*domain.TypeWithMetadata[domain.EntityType])
	return t, args.Error(1)
}

func (m *mockEntityTypes) Create(ctx context.Context, u *domain.User, schema domain.EntityType) (*domain.TypeWithMetadata[domain.EntityType], error) {
	return m.one(m.Called(ctx, u, schema))
}

func (m *mockEntityTypes) Update(ctx context.Context, u *domain.User, versionedURL string, schema domain.EntityType) (*domain.TypeWithMetadata[domain.EntityType], error) {
	return m.one(m.Called(ctx, u, versionedURL, schema))
}

func (m *mockEntityTypes) Get(ctx context.Context, req domain.GetTypeRequest) (*domain.TypeWithMetadata[domain.EntityType], error) {
	return m.one(m.Called(ctx, req))
}

func (m *mockEntityTypes) Query(ctx context.Context, req domain.QueryTypesRequest) ([]domain.TypeWithMetadata[domain.EntityType], error) {
	args := m.Called(ctx, req)
	ts, _ := args.Get(0).([]domain.TypeWithMetadata[domain.EntityType])
	return ts, args.Error(1)
}

type mockBlocks struct{ mock.Mock }

func (m *mockBlocks) List(ctx context.Context) ([]domain.BlockMetadata, error) {
	args := m.Called(ctx)
	bs, _ := args.Get(0).([]domain.BlockMetadata)
	return bs, args.Error(1)
}

func (m *mockBlocks) Get(ctx context.Context, author, name string) (*domain.BlockMetadata, error) {
	args := m.Called(ctx, author, name)
	b, _ := args.Get(0).(*domain.BlockMetadata)
	return b, args.Error(1)
}

func (m *mockBlocks) Asset(ctx context.Context, author, name, file string) (*s3infra.Object, error) {
	args := m.Called(ctx, author, name, file)
	o, _ := args.Get(0).(*s3infra.Object)
	return o, args.Error(1)
}

var signedUp = func() *domain.User {
	short, name := "alice", "Alice"
	return &domain.User{UserID: "u1", Email: "alice@example.com", HasVerifiedEmail: true, Shortname: &short, PreferredName: &name}
}()

// asUser attaches u to the request the way the auth middleware does.
func asUser(r *http.Request, u *domain.User) *http.Request {
	return r.WithContext(middleware.WithUser(r.Context(), u))
}

// withParams sets chi URL params on a request served without a router.
func withParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

type mockSessionSvc struct{ mock.Mock }

func (m *mockSessionSvc) Open(ctx context.Context, u *domain.User, meta domain.SessionMeta) (*domain.Session, string, error) {
	args := m.Called(ctx, u, meta)
	s, _ := args.Get(0).(*domain.Session)
	return s, args.String(1), args.Error(2)
}

func (m *mockSessionSvc) Authenticate(ctx context.Context, token string) (*domain.Session, error) {
	args := m.Called(ctx, token)
	s, _ := args.Get(0).(*domain.Session)
	return s, args.Error(1)
}

func (m *mockSessionSvc) Logout(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}
