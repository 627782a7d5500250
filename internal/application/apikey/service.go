package apikey

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/blockprotocol/hub-api/internal/domain"
	"github.com/blockprotocol/hub-api/internal/infrastructure/metrics"
	"github.com/blockprotocol/hub-api/internal/pkg/id"
	"github.com/blockprotocol/hub-api/internal/pkg/token"
)

var keyPattern = regexp.MustCompile(`^b10ck5\.[a-z0-9]{32}\.[a-z0-9]{8}-[a-z0-9]{4}-[a-z0-9]{4}-[a-z0-9]{4}-[a-z0-9]{12}$`)

const (
	publicIDBytes = 16
	saltBytes     = 32
)

type Service interface {
	// Generate revokes the user's active keys and returns a new key string.
	// The string is not recoverable afterwards.
	Generate(ctx context.Context, u *domain.User, displayName string) (string, error)
	// ValidateAndGet resolves a key string to its owner and records the use.
	ValidateAndGet(ctx context.Context, apiKey, origin string) (*domain.User, *domain.APIKey, error)
	Revoke(ctx context.Context, u *domain.User, publicID string) error
	List(ctx context.Context, u *domain.User) ([]domain.APIKey, error)
	UpdateDisplayName(ctx context.Context, u *domain.User, publicID, displayName string) error
}

type keyStore interface {
	Put(ctx context.Context, k *domain.APIKey) error
	GetByPublicID(ctx context.Context, publicID string) (*domain.APIKey, error)
	ListByUser(ctx context.Context, userID string) ([]domain.APIKey, error)
	Revoke(ctx context.Context, userID, publicID string, at time.Time) (int64, error)
	RevokeAllByUser(ctx context.Context, userID string, at time.Time) (int64, error)
	UpdateDisplayName(ctx context.Context, userID, publicID, displayName string) error
	RecordUse(ctx context.Context, keyID string, at time.Time, origin string) error
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

type service struct {
	repo     keyStore
	userRepo userStore
	secret   []byte
	logger   *zerolog.Logger
	now      func() time.Time
}

type ServiceDeps struct {
	KeyRepo  keyStore
	UserRepo userStore
	Secret   string
	Logger   *zerolog.Logger
	Now      func() time.Time
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
		repo:     deps.KeyRepo,
		userRepo: deps.UserRepo,
		secret:   []byte(deps.Secret),
		logger:   logger,
		now:      now,
	}
}

func (s *service) hash(publicID, privateID, salt string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(publicID + "." + privateID + "." + salt))
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *service) Generate(ctx context.Context, u *domain.User, displayName string) (string, error) {
	now := s.now().UTC()
	revoked, err := s.repo.RevokeAllByUser(ctx, u.UserID, now)
	if err != nil {
		return "", err
	}

	publicID, err := token.RandomHex(publicIDBytes)
	if err != nil {
		return "", err
	}
	salt, err := token.RandomHex(saltBytes)
	if err != nil {
		return "", err
	}
	privateID := uuid.NewString()

	k := &domain.APIKey{
		KeyID:        id.New(),
		PublicID:     publicID,
		HashedString: s.hash(publicID, privateID, salt),
		Salt:         salt,
		DisplayName:  strings.TrimSpace(displayName),
		UserID:       u.UserID,
		CreatedAt:    now,
	}
	if err := s.repo.Put(ctx, k); err != nil {
		return "", err
	}
	s.logger.Info().Str("user_id", u.UserID).Str("public_id", publicID).Int64("revoked", revoked).Msg("api key generated")
	return strings.Join([]string{domain.APIKeyPrefix, publicID, privateID}, "."), nil
}

func (s *service) ValidateAndGet(ctx context.Context, apiKey, origin string) (*domain.User, *domain.APIKey, error) {
	outcome := func(o string) { metrics.APIKeyValidations.WithLabelValues(o).Inc() }

	if !keyPattern.MatchString(apiKey) {
		outcome("malformed")
		return nil, nil, domain.NewError(domain.ErrUnauthorized, domain.CodeInvalidAPIKey, "Invalid API key format")
	}
	parts := strings.Split(apiKey, ".")
	publicID, privateID := parts[1], parts[2]

	invalid := domain.NewError(domain.ErrUnauthorized, domain.CodeInvalidAPIKey, "Invalid API key")
	k, err := s.repo.GetByPublicID(ctx, publicID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			outcome("invalid")
			return nil, nil, invalid
		}
		return nil, nil, err
	}
	if subtle.ConstantTimeCompare([]byte(s.hash(publicID, privateID, k.Salt)), []byte(k.HashedString)) != 1 {
		outcome("invalid")
		return nil, nil, invalid
	}
	now := s.now().UTC()
	if k.IsRevoked(now) {
		outcome("revoked")
		return nil, nil, domain.NewError(domain.ErrUnauthorized, domain.CodeRevokedAPIKey, "API key has been revoked")
	}

	u, err := s.userRepo.Get(ctx, k.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			outcome("invalid")
			return nil, nil, invalid
		}
		return nil, nil, err
	}
	if err := s.repo.RecordUse(ctx, k.KeyID, now, origin); err != nil {
		return nil, nil, err
	}
	outcome("valid")
	return u, k, nil
}

func (s *service) Revoke(ctx context.Context, u *domain.User, publicID string) error {
	n, err := s.repo.Revoke(ctx, u.UserID, publicID, s.now().UTC())
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NewParamError(domain.ErrNotFound, "publicId", "Could not find an active API key with the provided publicId.")
	}
	return nil
}

func (s *service) List(ctx context.Context, u *domain.User) ([]domain.APIKey, error) {
	return s.repo.ListByUser(ctx, u.UserID)
}

func (s *service) UpdateDisplayName(ctx context.Context, u *domain.User, publicID, displayName string) error {
	err := s.repo.UpdateDisplayName(ctx, u.UserID, publicID, strings.TrimSpace(displayName))
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewParamError(domain.ErrNotFound, "publicId", "Could not find an API key with the provided publicId.")
	}
	return err
}
