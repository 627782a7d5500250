package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/blockprotocol/hub-api/internal/domain"
	"github.com/blockprotocol/hub-api/internal/infrastructure/metrics"
	"github.com/blockprotocol/hub-api/internal/pkg/id"
	"github.com/blockprotocol/hub-api/internal/pkg/words"
)

// LoginResult is returned by every flow that ends in a session.
type LoginResult struct {
	User    *domain.User
	Session *domain.Session
	Token   string
}

type Service interface {
	Signup(ctx context.Context, req domain.SignupRequest) (*domain.VerificationCodeIssued, error)
	VerifyEmail(ctx context.Context, req domain.VerificationCodeRequest, meta domain.SessionMeta) (*LoginResult, error)
	SendLoginCode(ctx context.Context, req domain.SendLoginCodeRequest) (*domain.VerificationCodeIssued, error)
	LoginWithLoginCode(ctx context.Context, req domain.VerificationCodeRequest, meta domain.SessionMeta) (*LoginResult, error)
	LinkWordpress(ctx context.Context, req domain.LinkWordpressRequest) (*domain.VerificationCodeIssued, error)
	VerifyWordpressLink(ctx context.Context, req domain.VerificationCodeRequest, meta domain.SessionMeta) (*LoginResult, error)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, userID string, upd domain.UserUpdate) (*domain.User, error)
	AddWordpressInstanceURL(ctx context.Context, userID, instanceURL string) error
}

type codeStore interface {
	Put(ctx context.Context, c *domain.VerificationCode) error
	Get(ctx context.Context, codeID string) (*domain.VerificationCode, error)
	IncrementAttempts(ctx context.Context, codeID string) error
	MarkUsed(ctx context.Context, codeID string) error
	ListSince(ctx context.Context, userID string, variant domain.VerificationCodeVariant, since time.Time) ([]domain.VerificationCode, error)
}

type sessionOpener interface {
	Open(ctx context.Context, u *domain.User, meta domain.SessionMeta) (*domain.Session, string, error)
}

type mailer interface {
	SendEmail(to, subject, body string) error
}

type service struct {
	userRepo    userStore
	codeRepo    codeStore
	sessions    sessionOpener
	mailer      mailer
	frontendURL string
	logger      *zerolog.Logger
	now         func() time.Time
}

type ServiceDeps struct {
	UserRepo    userStore
	CodeRepo    codeStore
	Sessions    sessionOpener
	Mailer      mailer
	FrontendURL string
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
		userRepo:    deps.UserRepo,
		codeRepo:    deps.CodeRepo,
		sessions:    deps.Sessions,
		mailer:      deps.Mailer,
		frontendURL: deps.FrontendURL,
		logger:      logger,
		now:         now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *service) Signup(ctx context.Context, req domain.SignupRequest) (*domain.VerificationCodeIssued, error) {
	email := normalizeEmail(req.Email)
	u, err := s.userRepo.GetByEmail(ctx, email)
	switch {
	case err == nil && u.HasVerifiedEmail:
		return nil, &domain.Error{Kind: domain.ErrBadRequest, Code: domain.CodeEmailAlreadyInUse, Param: "email", Msg: "A user with this email address already exists."}
	case errors.Is(err, domain.ErrNotFound):
		if u, err = s.createUser(ctx, email); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	}

	code, err := s.issueCode(ctx, u, domain.VerificationCodeEmail, nil)
	if err != nil {
		return nil, err
	}
	if err := s.mailer.SendEmail(u.Email, verifyEmailSubject, s.verifyEmailBody(u, code)); err != nil {
		return nil, fmt.Errorf("send verification email: %w", err)
	}
	return &domain.VerificationCodeIssued{UserID: u.UserID, VerificationCodeID: code.CodeID}, nil
}

func (s *service) VerifyEmail(ctx context.Context, req domain.VerificationCodeRequest, meta domain.SessionMeta) (*LoginResult, error) {
	u, _, err := s.redeem(ctx, req, domain.VerificationCodeEmail)
	if err != nil {
		return nil, err
	}
	if u, err = s.markVerified(ctx, u); err != nil {
		return nil, err
	}
	return s.login(ctx, u, meta)
}

func (s *service) SendLoginCode(ctx context.Context, req domain.SendLoginCodeRequest) (*domain.VerificationCodeIssued, error) {
	u, err := s.userRepo.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewParamError(domain.ErrNotFound, "email", "Could not find a user with this email address.")
		}
		return nil, err
	}

	code, err := s.issueCode(ctx, u, domain.VerificationCodeLogin, nil)
	if err != nil {
		return nil, err
	}
	if err := s.mailer.SendEmail(u.Email, loginCodeSubject, s.loginCodeBody(u, code)); err != nil {
		return nil, fmt.Errorf("send login code email: %w", err)
	}
	return &domain.VerificationCodeIssued{UserID: u.UserID, VerificationCodeID: code.CodeID}, nil
}

func (s *service) LoginWithLoginCode(ctx context.Context, req domain.VerificationCodeRequest, meta domain.SessionMeta) (*LoginResult, error) {
	u, _, err := s.redeem(ctx, req, domain.VerificationCodeLogin)
	if err != nil {
		return nil, err
	}
	// Receiving the code proves ownership of the address.
	if u, err = s.markVerified(ctx, u); err != nil {
		return nil, err
	}
	return s.login(ctx, u, meta)
}

func (s *service) LinkWordpress(ctx context.Context, req domain.LinkWordpressRequest) (*domain.VerificationCodeIssued, error) {
	email := normalizeEmail(req.Email)
	u, err := s.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		u, err = s.createUser(ctx, email)
	}
	if err != nil {
		return nil, err
	}

	instanceURL := strings.TrimRight(req.WordpressInstanceURL, "/")
	code, err := s.issueCode(ctx, u, domain.VerificationCodeLinkWordpress, &instanceURL)
	if err != nil {
		return nil, err
	}
	if err := s.mailer.SendEmail(u.Email, linkWordpressSubject, s.linkWordpressBody(u, code)); err != nil {
		return nil, fmt.Errorf("send wordpress link email: %w", err)
	}
	return &domain.VerificationCodeIssued{UserID: u.UserID, VerificationCodeID: code.CodeID}, nil
}

func (s *service) VerifyWordpressLink(ctx context.Context, req domain.VerificationCodeRequest, meta domain.SessionMeta) (*LoginResult, error) {
	u, code, err := s.redeem(ctx, req, domain.VerificationCodeLinkWordpress)
	if err != nil {
		return nil, err
	}
	if code.WordpressInstanceURL != nil {
		if err := s.userRepo.AddWordpressInstanceURL(ctx, u.UserID, *code.WordpressInstanceURL); err != nil {
			return nil, err
		}
	}
	if u, err = s.markVerified(ctx, u); err != nil {
		return nil, err
	}
	return s.login(ctx, u, meta)
}

func (s *service) createUser(ctx context.Context, email string) (*domain.User, error) {
	now := s.now().UTC()
	u := &domain.User{
		UserID:    id.New(),
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.userRepo.Put(ctx, u); err != nil {
		// Lost a race with a concurrent signup for the same address.
		if errors.Is(err, domain.ErrConflict) {
			return s.userRepo.GetByEmail(ctx, email)
		}
		return nil, err
	}
	s.logger.Info().Str("user_id", u.UserID).Msg("user created")
	return u, nil
}

// issueCode rate-checks the user and stores a fresh code of the variant.
func (s *service) issueCode(ctx context.Context, u *domain.User, variant domain.VerificationCodeVariant, instanceURL *string) (*domain.VerificationCode, error) {
	if err := s.checkRateLimit(ctx, u.UserID, variant); err != nil {
		return nil, err
	}
	phrase, err := words.Code(4)
	if err != nil {
		return nil, err
	}
	c := &domain.VerificationCode{
		CodeID:               id.New(),
		UserID:               u.UserID,
		Variant:              variant,
		Code:                 phrase,
		WordpressInstanceURL: instanceURL,
		CreatedAt:            s.now().UTC(),
	}
	if err := s.codeRepo.Put(ctx, c); err != nil {
		return nil, err
	}
	metrics.VerificationCodesIssued.WithLabelValues(string(variant)).Inc()
	return c, nil
}

// redeem checks the submitted code and consumes it. Failed comparisons
// count against the code's attempt budget.
func (s *service) redeem(ctx context.Context, req domain.VerificationCodeRequest, variant domain.VerificationCodeVariant) (*domain.User, *domain.VerificationCode, error) {
	u, err := s.userRepo.Get(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.NewParamError(domain.ErrNotFound, "userId", "Could not find a user with the provided id.")
		}
		return nil, nil, err
	}
	code, err := s.codeRepo.Get(ctx, req.VerificationCodeID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, nil, err
	}
	if err != nil || code.UserID != u.UserID || code.Variant != variant {
		return nil, nil, domain.NewParamError(domain.ErrNotFound, "verificationCodeId", "Could not find the verification code.")
	}

	outcome := func(o string) { metrics.VerificationAttempts.WithLabelValues(string(variant), o).Inc() }

	if err := code.Validate(s.now()); err != nil {
		outcome("invalid")
		return nil, nil, err
	}
	submitted := strings.ToLower(strings.TrimSpace(req.Code))
	if subtle.ConstantTimeCompare([]byte(submitted), []byte(code.Code)) != 1 {
		outcome("mismatch")
		if err := s.codeRepo.IncrementAttempts(ctx, code.CodeID); err != nil {
			return nil, nil, err
		}
		return nil, nil, &domain.Error{Kind: domain.ErrForbidden, Code: domain.CodeInvalidCode, Param: "code", Msg: "Invalid verification code."}
	}
	if err := s.codeRepo.MarkUsed(ctx, code.CodeID); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			outcome("invalid")
			return nil, nil, domain.NewError(domain.ErrForbidden, domain.CodeCodeUsed, "This verification code has already been used.")
		}
		return nil, nil, err
	}
	outcome("success")
	return u, code, nil
}

func (s *service) markVerified(ctx context.Context, u *domain.User) (*domain.User, error) {
	if u.HasVerifiedEmail {
		return u, nil
	}
	verified := true
	return s.userRepo.Update(ctx, u.UserID, domain.UserUpdate{HasVerifiedEmail: &verified})
}

func (s *service) login(ctx context.Context, u *domain.User, meta domain.SessionMeta) (*LoginResult, error) {
	sess, token, err := s.sessions.Open(ctx, u, meta)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: u, Session: sess, Token: token}, nil
}
