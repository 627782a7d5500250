package user

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/blockprotocol/hub-api/internal/domain"
)

const (
	shortnameMinLength     = 4
	shortnameMaxLength     = 24
	preferredNameMaxLength = 100
)

var shortnamePattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

// Shortnames that collide with frontend or API routes.
var reservedShortnames = map[string]struct{}{
	"admin": {}, "api": {}, "blocks": {}, "blog": {}, "docs": {}, "hub": {},
	"login": {}, "logout": {}, "settings": {}, "signup": {}, "spec": {},
	"types": {}, "wordpress": {}, "account": {}, "dashboard": {}, "static": {},
	"blockprotocol": {}, "block-protocol": {},
}

type Service interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	CompleteSignup(ctx context.Context, u *domain.User, req domain.CompleteSignupRequest) (*domain.User, error)
	UpdateProfile(ctx context.Context, u *domain.User, req domain.UpdateUserRequest) (*domain.User, error)
	IsShortnameTaken(ctx context.Context, shortname string) (bool, error)
	GetPublicProfile(ctx context.Context, shortname string) (*domain.PublicUser, error)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByShortname(ctx context.Context, shortname string) (*domain.User, error)
	Update(ctx context.Context, userID string, upd domain.UserUpdate) (*domain.User, error)
}

type service struct {
	repo   userStore
	logger *zerolog.Logger
}

type ServiceDeps struct {
	UserRepo userStore
	Logger   *zerolog.Logger
}

func NewService(deps ServiceDeps) Service {
	logger := deps.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &service{repo: deps.UserRepo, logger: logger}
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.Get(ctx, userID)
}

func (s *service) CompleteSignup(ctx context.Context, u *domain.User, req domain.CompleteSignupRequest) (*domain.User, error) {
	if u.IsSignedUp() {
		return nil, domain.NewParamError(domain.ErrBadRequest, "user", "User has already completed signup.")
	}
	shortname := strings.TrimSpace(req.Shortname)
	if err := validateShortname(shortname); err != nil {
		return nil, err
	}
	preferredName, err := validatePreferredName(req.PreferredName)
	if err != nil {
		return nil, err
	}
	if err := s.ensureShortnameFree(ctx, shortname); err != nil {
		return nil, err
	}

	updated, err := s.update(ctx, u.UserID, domain.UserUpdate{Shortname: &shortname, PreferredName: &preferredName})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", u.UserID).Str("shortname", shortname).Msg("signup completed")
	return updated, nil
}

// UpdateProfile changes the preferred name. A shortname in the request is
// accepted only when it equals the current one.
func (s *service) UpdateProfile(ctx context.Context, u *domain.User, req domain.UpdateUserRequest) (*domain.User, error) {
	var upd domain.UserUpdate
	if req.Shortname != nil {
		shortname := strings.TrimSpace(*req.Shortname)
		if u.Shortname != nil && *u.Shortname != shortname {
			return nil, domain.NewParamError(domain.ErrBadRequest, "shortname", "Cannot change shortname once it has been set.")
		}
		if u.Shortname == nil {
			if err := validateShortname(shortname); err != nil {
				return nil, err
			}
			if err := s.ensureShortnameFree(ctx, shortname); err != nil {
				return nil, err
			}
			upd.Shortname = &shortname
		}
	}
	if req.PreferredName != nil {
		name, err := validatePreferredName(*req.PreferredName)
		if err != nil {
			return nil, err
		}
		upd.PreferredName = &name
	}
	if upd.Shortname == nil && upd.PreferredName == nil {
		return u, nil
	}
	return s.update(ctx, u.UserID, upd)
}

func (s *service) IsShortnameTaken(ctx context.Context, shortname string) (bool, error) {
	if _, reserved := reservedShortnames[shortname]; reserved {
		return true, nil
	}
	_, err := s.repo.GetByShortname(ctx, shortname)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (s *service) GetPublicProfile(ctx context.Context, shortname string) (*domain.PublicUser, error) {
	u, err := s.repo.GetByShortname(ctx, shortname)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewParamError(domain.ErrNotFound, "shortname", "Could not find a user with the provided shortname.")
		}
		return nil, err
	}
	if !u.IsSignedUp() {
		return nil, domain.NewParamError(domain.ErrNotFound, "shortname", "Could not find a user with the provided shortname.")
	}
	return &domain.PublicUser{Shortname: *u.Shortname, PreferredName: *u.PreferredName}, nil
}

func (s *service) ensureShortnameFree(ctx context.Context, shortname string) error {
	taken, err := s.IsShortnameTaken(ctx, shortname)
	if err != nil {
		return err
	}
	if taken {
		return shortnameTaken()
	}
	return nil
}

// update maps a unique-index violation on shortname to the user-facing error.
func (s *service) update(ctx context.Context, userID string, upd domain.UserUpdate) (*domain.User, error) {
	u, err := s.repo.Update(ctx, userID, upd)
	if errors.Is(err, domain.ErrConflict) {
		return nil, shortnameTaken()
	}
	return u, err
}

func shortnameTaken() error {
	return &domain.Error{Kind: domain.ErrBadRequest, Code: domain.CodeShortnameTaken, Param: "shortname", Msg: "This shortname is already taken."}
}

func validateShortname(shortname string) error {
	switch {
	case len(shortname) < shortnameMinLength:
		return domain.NewParamError(domain.ErrBadRequest, "shortname", "Shortname must be at least 4 characters long.")
	case len(shortname) > shortnameMaxLength:
		return domain.NewParamError(domain.ErrBadRequest, "shortname", "Shortname cannot be longer than 24 characters.")
	case !shortnamePattern.MatchString(shortname):
		return domain.NewParamError(domain.ErrBadRequest, "shortname", "Shortname may only contain lowercase letters, numbers, dashes and underscores.")
	}
	if _, reserved := reservedShortnames[shortname]; reserved {
		return shortnameTaken()
	}
	return nil
}

func validatePreferredName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.NewParamError(domain.ErrBadRequest, "preferredName", "Preferred name must not be empty.")
	}
	if utf8.RuneCountInString(name) > preferredNameMaxLength {
		return "", domain.NewParamError(domain.ErrBadRequest, "preferredName", "Preferred name cannot be longer than 100 characters.")
	}
	return name, nil
}
