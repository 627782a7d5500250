// Package ontology stores entity types and property types as append-only
// version histories addressed by URL.
package ontology

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/blockprotocol/hub-api/internal/domain"
	"github.com/blockprotocol/hub-api/internal/infrastructure/metrics"
	"github.com/blockprotocol/hub-api/internal/pkg/id"
)

// Schema is implemented by pointers to the stored schema types.
type Schema[S any] interface {
	*S
	Complete(versionedURL string)
	SchemaTitle() string
	Validate() error
}

type Service[S any] interface {
	Create(ctx context.Context, u *domain.User, schema S) (*domain.TypeWithMetadata[S], error)
	Update(ctx context.Context, u *domain.User, versionedURL string, schema S) (*domain.TypeWithMetadata[S], error)
	Get(ctx context.Context, req domain.GetTypeRequest) (*domain.TypeWithMetadata[S], error)
	Query(ctx context.Context, req domain.QueryTypesRequest) ([]domain.TypeWithMetadata[S], error)
}

type typeStore[S any] interface {
	Insert(ctx context.Context, rec *domain.TypeRecord[S]) error
	GetVersion(ctx context.Context, baseURL string, version int) (*domain.TypeRecord[S], error)
	GetLatest(ctx context.Context, baseURL string) (*domain.TypeRecord[S], error)
	List(ctx context.Context, filter domain.TypeFilter) ([]domain.TypeRecord[S], error)
}

type userStore interface {
	GetByShortname(ctx context.Context, shortname string) (*domain.User, error)
}

type eventPublisher interface {
	PublishTypeVersion(ctx context.Context, event domain.TypeVersionPublished) error
}

type service[S any, PS Schema[S]] struct {
	repo        typeStore[S]
	userRepo    userStore
	publisher   eventPublisher
	frontendURL string
	kind        domain.OntologyKind
	logger      *zerolog.Logger
	now         func() time.Time
}

type ServiceDeps[S any] struct {
	TypeRepo    typeStore[S]
	UserRepo    userStore
	Publisher   eventPublisher
	FrontendURL string
	Kind        domain.OntologyKind
	Logger      *zerolog.Logger
	Now         func() time.Time
}

func NewService[S any, PS Schema[S]](deps ServiceDeps[S]) Service[S] {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &service[S, PS]{
		repo:        deps.TypeRepo,
		userRepo:    deps.UserRepo,
		publisher:   deps.Publisher,
		frontendURL: deps.FrontendURL,
		kind:        deps.Kind,
		logger:      logger,
		now:         now,
	}
}

func (s *service[S, PS]) Create(ctx context.Context, u *domain.User, schema S) (*domain.TypeWithMetadata[S], error) {
	if !u.IsSignedUp() {
		return nil, domain.NewParamError(domain.ErrForbidden, "user", "You must complete signup before creating types.")
	}
	ps := PS(&schema)
	baseURL, err := domain.TypeBaseURL(s.frontendURL, *u.Shortname, s.kind, ps.SchemaTitle())
	if err != nil {
		return nil, err
	}
	versionedURL := domain.VersionedURL(baseURL, 1)

	_, err = s.repo.GetVersion(ctx, baseURL, 1)
	switch {
	case err == nil:
		return nil, s.duplicate(versionedURL)
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	rec, err := s.insert(ctx, u, schema, domain.RecordID{BaseURL: baseURL, Version: 1})
	if errors.Is(err, domain.ErrConflict) {
		return nil, s.duplicate(versionedURL)
	}
	if err != nil {
		return nil, err
	}
	return &rec.TypeWithMetadata, nil
}

// Update appends a new version on top of the latest one. The caller must
// name the latest version; anything older is rejected as stale.
func (s *service[S, PS]) Update(ctx context.Context, u *domain.User, versionedURL string, schema S) (*domain.TypeWithMetadata[S], error) {
	rid, err := domain.ParseVersionedURL(versionedURL)
	if err != nil {
		return nil, domain.NewParamError(domain.ErrBadRequest, "versionedUrl", "versionedUrl must be of the form {baseUrl}v/{version}")
	}
	latest, err := s.repo.GetLatest(ctx, rid.BaseURL)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewParamError(domain.ErrNotFound, "versionedUrl", fmt.Sprintf("Could not find %s with base URL %q.", s.kind, rid.BaseURL))
		}
		return nil, err
	}
	if latest.UserID != u.UserID {
		return nil, &domain.Error{Kind: domain.ErrBadRequest, Code: domain.CodeNotOwner, Param: "versionedUrl",
			Msg: fmt.Sprintf("You cannot update a %s that belongs to another user.", s.kind)}
	}
	if rid.Version != latest.RecordID.Version {
		return nil, s.stale(latest.RecordID)
	}

	next := domain.RecordID{BaseURL: rid.BaseURL, Version: latest.RecordID.Version + 1}
	rec, err := s.insert(ctx, u, schema, next)
	if errors.Is(err, domain.ErrConflict) {
		// A concurrent update took this version first.
		return nil, s.stale(next)
	}
	if err != nil {
		return nil, err
	}
	return &rec.TypeWithMetadata, nil
}

func (s *service[S, PS]) Get(ctx context.Context, req domain.GetTypeRequest) (*domain.TypeWithMetadata[S], error) {
	if (req.BaseURL == "") == (req.VersionedURL == "") {
		return nil, domain.NewParamError(domain.ErrBadRequest, "baseUrl", "Exactly one of baseUrl or versionedUrl must be provided.")
	}

	var (
		rec *domain.TypeRecord[S]
		err error
	)
	if req.VersionedURL != "" {
		rid, perr := domain.ParseVersionedURL(req.VersionedURL)
		if perr != nil {
			return nil, domain.NewParamError(domain.ErrBadRequest, "versionedUrl", "versionedUrl must be of the form {baseUrl}v/{version}")
		}
		rec, err = s.repo.GetVersion(ctx, rid.BaseURL, rid.Version)
	} else {
		rec, err = s.repo.GetLatest(ctx, req.BaseURL)
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewError(domain.ErrNotFound, "", fmt.Sprintf("Could not find the requested %s.", s.kind))
		}
		return nil, err
	}
	return &rec.TypeWithMetadata, nil
}

func (s *service[S, PS]) Query(ctx context.Context, req domain.QueryTypesRequest) ([]domain.TypeWithMetadata[S], error) {
	filter := domain.TypeFilter{LatestOnly: req.LatestOnly}
	if req.Shortname != "" {
		author, err := s.userRepo.GetByShortname(ctx, req.Shortname)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.NewParamError(domain.ErrNotFound, "shortname", "Could not find a user with the provided shortname.")
			}
			return nil, err
		}
		filter.UserID = author.UserID
	}

	recs, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]domain.TypeWithMetadata[S], 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.TypeWithMetadata)
	}
	return out, nil
}

// insert completes and validates schema under rid, stores it and announces
// the new version.
func (s *service[S, PS]) insert(ctx context.Context, u *domain.User, schema S, rid domain.RecordID) (*domain.TypeRecord[S], error) {
	versionedURL := domain.VersionedURL(rid.BaseURL, rid.Version)
	ps := PS(&schema)
	ps.Complete(versionedURL)
	if err := ps.Validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	rec := &domain.TypeRecord[S]{
		RecordKey: id.New(),
		RecordID:  rid,
		TypeWithMetadata: domain.TypeWithMetadata[S]{
			Schema:   schema,
			Metadata: domain.OntologyMetadata{RecordID: rid},
		},
		UserID:    u.UserID,
		CreatedAt: now,
	}
	if err := s.repo.Insert(ctx, rec); err != nil {
		return nil, err
	}
	metrics.TypeVersionsPublished.WithLabelValues(string(s.kind)).Inc()
	s.logger.Info().
		Str("kind", string(s.kind)).
		Str("versioned_url", versionedURL).
		Str("user_id", u.UserID).
		Msg("type version stored")

	event := domain.TypeVersionPublished{
		Kind:         s.kind,
		BaseURL:      rid.BaseURL,
		Version:      rid.Version,
		VersionedURL: versionedURL,
		UserID:       u.UserID,
		PublishedAt:  now,
	}
	if err := s.publisher.PublishTypeVersion(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("versioned_url", versionedURL).Msg("failed to publish type version event")
	}
	return rec, nil
}

func (s *service[S, PS]) duplicate(versionedURL string) error {
	return &domain.Error{Kind: domain.ErrConflict, Code: domain.CodeDuplicateID, Param: "schema.title",
		Msg: fmt.Sprintf("A %s with the id %q already exists. Choose a different title.", s.kind, versionedURL)}
}

func (s *service[S, PS]) stale(latest domain.RecordID) error {
	return &domain.Error{Kind: domain.ErrConflict, Code: domain.CodeStaleVersion, Param: "versionedUrl",
		Msg: fmt.Sprintf("The provided versionedUrl is not the latest version. Update %s instead.", domain.VersionedURL(latest.BaseURL, latest.Version))}
}
