package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/blockprotocol/hub-api/internal/domain"
	jwtinfra "github.com/blockprotocol/hub-api/internal/infrastructure/jwt"
	"github.com/blockprotocol/hub-api/internal/pkg/id"
)

type Service interface {
	// Open starts a session for u and returns it with its signed token.
	Open(ctx context.Context, u *domain.User, meta domain.SessionMeta) (*domain.Session, string, error)
	// Authenticate resolves a session token to an active session with its user.
	Authenticate(ctx context.Context, token string) (*domain.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

type sessionStore interface {
	Put(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	Disable(ctx context.Context, sessionID string) error
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

type tokenProvider interface {
	Sign(userID, sessionID string, expiresAt time.Time) (string, error)
	Verify(token string) (*jwtinfra.Claims, error)
}

type service struct {
	sessionRepo sessionStore
	userRepo    userStore
	tokens      tokenProvider
	maxAge      time.Duration
	logger      *zerolog.Logger
	now         func() time.Time
}

type ServiceDeps struct {
	SessionRepo sessionStore
	UserRepo    userStore
	JWTProvider tokenProvider
	MaxAge      time.Duration
	Logger      *zerolog.Logger
	Now         func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &service{
		sessionRepo: deps.SessionRepo,
		userRepo:    deps.UserRepo,
		tokens:      deps.JWTProvider,
		maxAge:      deps.MaxAge,
		logger:      logger,
		now:         now,
	}
}

func (s *service) Open(ctx context.Context, u *domain.User, meta domain.SessionMeta) (*domain.Session, string, error) {
	now := s.now().UTC()
	sess := &domain.Session{
		SessionID: id.New(),
		UserID:    u.UserID,
		Enable:    true,
		UserAgent: meta.UserAgent,
		IP:        meta.IP,
		ExpiresAt: now.Add(s.maxAge),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessionRepo.Put(ctx, sess); err != nil {
		return nil, "", err
	}
	token, err := s.tokens.Sign(u.UserID, sess.SessionID, sess.ExpiresAt)
	if err != nil {
		return nil, "", err
	}
	s.logger.Info().Str("user_id", u.UserID).Str("session_id", sess.SessionID).Msg("session opened")
	sess.User = u
	return sess, token, nil
}

func (s *service) Authenticate(ctx context.Context, token string) (*domain.Session, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("invalid session token: %w", domain.ErrUnauthorized)
	}
	sess, err := s.sessionRepo.Get(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("session not found: %w", domain.ErrUnauthorized)
		}
		return nil, err
	}
	if sess.UserID != claims.UserID || !sess.Active(s.now()) {
		return nil, fmt.Errorf("session expired: %w", domain.ErrUnauthorized)
	}
	u, err := s.userRepo.Get(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("session user not found: %w", domain.ErrUnauthorized)
		}
		return nil, err
	}
	sess.User = u
	return sess, nil
}

func (s *service) Logout(ctx context.Context, sessionID string) error {
	return s.sessionRepo.Disable(ctx, sessionID)
}
