package http

import (
	"context"
	"time"

	"github.com/blockprotocol/hub-api/internal/domain"
	s3infra "github.com/blockprotocol/hub-api/internal/infrastructure/s3"
)

// UserRepository is the user store both backends provide.
type UserRepository interface {
	Put(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByShortname(ctx context.Context, shortname string) (*domain.User, error)
	Update(ctx context.Context, userID string, upd domain.UserUpdate) (*domain.User, error)
	AddWordpressInstanceURL(ctx context.Context, userID, instanceURL string) error
}

type SessionRepository interface {
	Put(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	Disable(ctx context.Context, sessionID string) error
}

// VerificationCodeRepository stores emailed codes. IncrementAttempts and
// MarkUsed must be atomic on the store side.
type VerificationCodeRepository interface {
	Put(ctx context.Context, c *domain.VerificationCode) error
	Get(ctx context.Context, codeID string) (*domain.VerificationCode, error)
	IncrementAttempts(ctx context.Context, codeID string) error
	MarkUsed(ctx context.Context, codeID string) error
	ListSince(ctx context.Context, userID string, variant domain.VerificationCodeVariant, since time.Time) ([]domain.VerificationCode, error)
}

type APIKeyRepository interface {
	Put(ctx context.Context, k *domain.APIKey) error
	GetByPublicID(ctx context.Context, publicID string) (*domain.APIKey, error)
	ListByUser(ctx context.Context, userID string) ([]domain.APIKey, error)
	Revoke(ctx context.Context, userID, publicID string, at time.Time) (int64, error)
	RevokeAllByUser(ctx context.Context, userID string, at time.Time) (int64, error)
	UpdateDisplayName(ctx context.Context, userID, publicID, displayName string) error
	RecordUse(ctx context.Context, keyID string, at time.Time, origin string) error
}

// TypeRepository stores immutable type versions. Insert must fail with
// domain.ErrConflict when the (baseURL, version) pair already exists.
type TypeRepository[S any] interface {
	Insert(ctx context.Context, rec *domain.TypeRecord[S]) error
	GetVersion(ctx context.Context, baseURL string, version int) (*domain.TypeRecord[S], error)
	GetLatest(ctx context.Context, baseURL string) (*domain.TypeRecord[S], error)
	List(ctx context.Context, filter domain.TypeFilter) ([]domain.TypeRecord[S], error)
}

// ObjectStore is read access to the published blocks bucket.
type ObjectStore interface {
	ListKeys(ctx context.Context, prefix string) ([]string, error)
	Download(ctx context.Context, key string) (*s3infra.Object, error)
}
