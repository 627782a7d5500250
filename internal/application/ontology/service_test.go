package ontology

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/blockprotocol/hub-api/internal/domain"
)

const frontend = "https://blockprotocol.org"

// memTypeStore keeps records keyed by (baseUrl, version) like the unique
// index in the real stores.
type memTypeStore[S any] struct {
	mu   sync.Mutex
	recs map[domain.RecordID]domain.TypeRecord[S]
}

func newMemTypeStore[S any]() *memTypeStore[S] {
	return &memTypeStore[S]{recs: map[domain.RecordID]domain.TypeRecord[S]{}}
}

func (m *memTypeStore[S]) Insert(_ context.Context, rec *domain.TypeRecord[S]) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.recs[rec.RecordID]; ok {
		return domain.ErrConflict
	}
	m.recs[rec.RecordID] = *rec
	return nil
}

func (m *memTypeStore[S]) GetVersion(_ context.Context, baseURL string, version int) (*domain.TypeRecord[S], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[domain.RecordID{BaseURL: baseURL, Version: version}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

func (m *memTypeStore[S]) GetLatest(_ context.Context, baseURL string) (*domain.TypeRecord[S], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *domain.TypeRecord[S]
	for rid, rec := range m.recs {
		if rid.BaseURL == baseURL && (latest == nil || rid.Version > latest.RecordID.Version) {
			r := rec
			latest = &r
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	return latest, nil
}

func (m *memTypeStore[S]) List(_ context.Context, filter domain.TypeFilter) ([]domain.TypeRecord[S], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	latest := map[string]domain.TypeRecord[S]{}
	var out []domain.TypeRecord[S]
	for _, rec := range m.recs {
		if filter.UserID != "" && rec.UserID != filter.UserID {
			continue
		}
		if !filter.LatestOnly {
			out = append(out, rec)
			continue
		}
		if cur, ok := latest[rec.RecordID.BaseURL]; !ok || rec.RecordID.Version > cur.RecordID.Version {
			latest[rec.RecordID.BaseURL] = rec
		}
	}
	for _, rec := range latest {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RecordID.BaseURL != out[j].RecordID.BaseURL {
			return out[i].RecordID.BaseURL < out[j].RecordID.BaseURL
		}
		return out[i].RecordID.Version < out[j].RecordID.Version
	})
	return out, nil
}

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) GetByShortname(ctx context.Context, shortname string) (*domain.User, error) {
	args := m.Called(ctx, shortname)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) PublishTypeVersion(ctx context.Context, event domain.TypeVersionPublished) error {
	return m.Called(ctx, event).Error(0)
}

// --- helpers ---

func strPtr(s string) *string { return &s }

var (
	alice = &domain.User{UserID: "u1", Shortname: strPtr("alice"), PreferredName: strPtr("Alice")}
	bob   = &domain.User{UserID: "u2", Shortname: strPtr("bob"), PreferredName: strPtr("Bob")}
)

type entityFixture struct {
	store     *memTypeStore[domain.EntityType]
	users     *mockUserStore
	publisher *mockPublisher
	svc       Service[domain.EntityType]
}

func newEntityFixture() *entityFixture {
	f := &entityFixture{
		store:     newMemTypeStore[domain.EntityType](),
		users:     &mockUserStore{},
		publisher: &mockPublisher{},
	}
	f.publisher.On("PublishTypeVersion", mock.Anything, mock.Anything).Return(nil)
	f.svc = NewService[domain.EntityType](ServiceDeps[domain.EntityType]{
		TypeRepo:    f.store,
		UserRepo:    f.users,
		Publisher:   f.publisher,
		FrontendURL: frontend,
		Kind:        domain.EntityTypeKind,
		Now:         func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	})
	return f
}

func animal() domain.EntityType {
	return domain.EntityType{Title: "Animal", Description: "A living thing"}
}

func domainCode(t *testing.T, err error) string {
	t.Helper()
	var de *domain.Error
	require.ErrorAs(t, err, &de)
	return de.Code
}

// --- Create ---

func TestCreate_AnimalExample(t *testing.T) {
	f := newEntityFixture()

	created, err := f.svc.Create(context.Background(), alice, animal())
	require.NoError(t, err)
	assert.Equal(t, frontend+"/@alice/types/entity-type/animal/", created.Metadata.RecordID.BaseURL)
	assert.Equal(t, 1, created.Metadata.RecordID.Version)
	assert.Equal(t, frontend+"/@alice/types/entity-type/animal/v/1", created.Schema.ID)
	assert.Equal(t, domain.EntityTypeMetaSchema, created.Schema.SchemaURI)
	assert.Equal(t, "entityType", created.Schema.Kind)
	assert.Equal(t, "object", created.Schema.Type)
	assert.NotNil(t, created.Schema.Properties)

	updated, err := f.svc.Update(context.Background(), alice, created.Schema.ID, domain.EntityType{Title: "Animal", Description: "Any animal"})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Metadata.RecordID.Version)
	assert.Equal(t, frontend+"/@alice/types/entity-type/animal/v/2", updated.Schema.ID)

	v1, err := f.svc.Get(context.Background(), domain.GetTypeRequest{VersionedURL: created.Schema.ID})
	require.NoError(t, err)
	assert.Equal(t, "A living thing", v1.Schema.Description)
	assert.Equal(t, 1, v1.Metadata.RecordID.Version)
}

func TestCreate_GetByVersionedURLRoundTrip(t *testing.T) {
	f := newEntityFixture()

	created, err := f.svc.Create(context.Background(), alice, animal())
	require.NoError(t, err)

	got, err := f.svc.Get(context.Background(), domain.GetTypeRequest{VersionedURL: created.Schema.ID})
	require.NoError(t, err)
	assert.Equal(t, created.Schema.ID, got.Schema.ID)
}

func TestCreate_DuplicateTitle(t *testing.T) {
	f := newEntityFixture()

	_, err := f.svc.Create(context.Background(), alice, animal())
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), alice, domain.EntityType{Title: "animal!"})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, domain.CodeDuplicateID, domainCode(t, err))
	assert.Len(t, f.store.recs, 1)
}

func TestCreate_SameTitleDifferentAuthors(t *testing.T) {
	f := newEntityFixture()

	_, err := f.svc.Create(context.Background(), alice, animal())
	require.NoError(t, err)
	_, err = f.svc.Create(context.Background(), bob, animal())
	require.NoError(t, err)
	assert.Len(t, f.store.recs, 2)
}

func TestCreate_RequiresSignedUpUser(t *testing.T) {
	f := newEntityFixture()

	_, err := f.svc.Create(context.Background(), &domain.User{UserID: "u3"}, animal())
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestCreate_TitleWithoutSlug(t *testing.T) {
	f := newEntityFixture()

	_, err := f.svc.Create(context.Background(), alice, domain.EntityType{Title: "!!!"})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
	assert.Empty(t, f.store.recs)
}

func TestCreate_InvalidSchemaStoresNothing(t *testing.T) {
	f := newEntityFixture()
	schema := animal()
	schema.Properties = map[string]domain.PropertyTypeReference{
		frontend + "/@alice/types/property-type/name/": {Ref: frontend + "/@alice/types/property-type/other/v/1"},
	}

	_, err := f.svc.Create(context.Background(), alice, schema)
	assert.ErrorIs(t, err, domain.ErrBadRequest)
	assert.Empty(t, f.store.recs)
	f.publisher.AssertNotCalled(t, "PublishTypeVersion", mock.Anything, mock.Anything)
}

func TestCreate_PublishesEvent(t *testing.T) {
	f := newEntityFixture()

	_, err := f.svc.Create(context.Background(), alice, animal())
	require.NoError(t, err)
	f.publisher.AssertCalled(t, "PublishTypeVersion", mock.Anything, mock.MatchedBy(func(e domain.TypeVersionPublished) bool {
		return e.Kind == domain.EntityTypeKind && e.Version == 1 && e.UserID == "u1" &&
			e.VersionedURL == frontend+"/@alice/types/entity-type/animal/v/1"
	}))
}

// --- Update ---

func TestUpdate_StaleVersionCreatesNothing(t *testing.T) {
	f := newEntityFixture()
	created, err := f.svc.Create(context.Background(), alice, animal())
	require.NoError(t, err)
	_, err = f.svc.Update(context.Background(), alice, created.Schema.ID, animal())
	require.NoError(t, err)

	_, err = f.svc.Update(context.Background(), alice, created.Schema.ID, animal())
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, domain.CodeStaleVersion, domainCode(t, err))
	assert.Len(t, f.store.recs, 2)
}

func TestUpdate_NotOwner(t *testing.T) {
	f := newEntityFixture()
	created, err := f.svc.Create(context.Background(), alice, animal())
	require.NoError(t, err)

	_, err = f.svc.Update(context.Background(), bob, created.Schema.ID, animal())
	assert.ErrorIs(t, err, domain.ErrBadRequest)
	assert.Equal(t, domain.CodeNotOwner, domainCode(t, err))
	assert.Len(t, f.store.recs, 1)
}

func TestUpdate_UnknownType(t *testing.T) {
	f := newEntityFixture()

	_, err := f.svc.Update(context.Background(), alice, frontend+"/@alice/types/entity-type/ghost/v/1", animal())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdate_MalformedVersionedURL(t *testing.T) {
	f := newEntityFixture()

	_, err := f.svc.Update(context.Background(), alice, frontend+"/@alice/types/entity-type/animal/", animal())
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

// --- Get / Query ---

func TestQuery_LatestOnlyAfterThreeUpdates(t *testing.T) {
	f := newEntityFixture()
	rec, err := f.svc.Create(context.Background(), alice, animal())
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		rec, err = f.svc.Update(context.Background(), alice, rec.Schema.ID, animal())
		require.NoError(t, err)
	}

	latest, err := f.svc.Query(context.Background(), domain.QueryTypesRequest{LatestOnly: true})
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, 4, latest[0].Metadata.RecordID.Version)

	all, err := f.svc.Query(context.Background(), domain.QueryTypesRequest{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	byBase, err := f.svc.Get(context.Background(), domain.GetTypeRequest{BaseURL: rec.Metadata.RecordID.BaseURL})
	require.NoError(t, err)
	assert.Equal(t, 4, byBase.Metadata.RecordID.Version)
}

func TestQuery_ByShortname(t *testing.T) {
	f := newEntityFixture()
	_, err := f.svc.Create(context.Background(), alice, animal())
	require.NoError(t, err)
	_, err = f.svc.Create(context.Background(), bob, domain.EntityType{Title: "Plant"})
	require.NoError(t, err)
	f.users.On("GetByShortname", mock.Anything, "bob").Return(bob, nil)
	f.users.On("GetByShortname", mock.Anything, "carol").Return(nil, domain.ErrNotFound)

	got, err := f.svc.Query(context.Background(), domain.QueryTypesRequest{Shortname: "bob"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Plant", got[0].Schema.Title)

	_, err = f.svc.Query(context.Background(), domain.QueryTypesRequest{Shortname: "carol"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGet_RequiresExactlyOneURL(t *testing.T) {
	f := newEntityFixture()

	_, err := f.svc.Get(context.Background(), domain.GetTypeRequest{})
	assert.ErrorIs(t, err, domain.ErrBadRequest)

	_, err = f.svc.Get(context.Background(), domain.GetTypeRequest{
		BaseURL:      frontend + "/@alice/types/entity-type/animal/",
		VersionedURL: frontend + "/@alice/types/entity-type/animal/v/1",
	})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

// --- property types share the implementation ---

func TestPropertyType_CreateAndUpdate(t *testing.T) {
	store := newMemTypeStore[domain.PropertyType]()
	pub := &mockPublisher{}
	pub.On("PublishTypeVersion", mock.Anything, mock.Anything).Return(nil)
	svc := NewService[domain.PropertyType](ServiceDeps[domain.PropertyType]{
		TypeRepo:    store,
		UserRepo:    &mockUserStore{},
		Publisher:   pub,
		FrontendURL: frontend,
		Kind:        domain.PropertyTypeKind,
	})
	textRef := domain.PropertyValues{Ref: "https://blockprotocol.org/@blockprotocol/types/data-type/text/v/1"}

	created, err := svc.Create(context.Background(), alice, domain.PropertyType{Title: "Name", OneOf: []domain.PropertyValues{textRef}})
	require.NoError(t, err)
	assert.Equal(t, frontend+"/@alice/types/property-type/name/v/1", created.Schema.ID)
	assert.Equal(t, "propertyType", created.Schema.Kind)

	_, err = svc.Create(context.Background(), alice, domain.PropertyType{Title: "Empty"})
	assert.ErrorIs(t, err, domain.ErrBadRequest)

	updated, err := svc.Update(context.Background(), alice, created.Schema.ID, domain.PropertyType{Title: "Name", OneOf: []domain.PropertyValues{textRef}})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Metadata.RecordID.Version)
}
