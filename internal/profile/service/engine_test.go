package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devdash/profile-backend/internal/profile/domain"
	"github.com/devdash/profile-backend/internal/publish"
)

type fakeDrafts struct {
	mu sync.Mutex
	m  map[string]*domain.Profile
}

func newFakeDrafts() *fakeDrafts {
	return &fakeDrafts{m: make(map[string]*domain.Profile)}
}

func (f *fakeDrafts) Load(_ context.Context, identity string) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.m[strings.ToLower(identity)]; ok {
		return p.Clone(), nil
	}
	return nil, nil
}

func (f *fakeDrafts) Save(_ context.Context, identity string, draft *domain.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.m[strings.ToLower(identity)] = draft.StripInline()
	return nil
}

func (f *fakeDrafts) Clear(_ context.Context, identity string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.m, strings.ToLower(identity))
	return nil
}

type fakeCache struct {
	m      map[string]*domain.Profile
	getErr error
}

func (f *fakeCache) Get(_ context.Context, identity string) (*domain.Profile, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if p, ok := f.m[strings.ToLower(identity)]; ok {
		return p.Clone(), nil
	}
	return nil, nil
}

func (f *fakeCache) Put(_ context.Context, identity string, p *domain.Profile) error {
	f.m[strings.ToLower(identity)] = p.Clone()
	return nil
}

type fakePointer struct {
	cid string
	err error
}

func (f *fakePointer) GetPointer(context.Context, string) (string, error) {
	return f.cid, f.err
}

type fakeContent struct {
	docs map[string]*domain.Profile
}

func (f *fakeContent) CatJSON(_ context.Context, cid string, v any) error {
	doc, ok := f.docs[cid]
	if !ok {
		return errors.New("not found")
	}
	*(v.(*domain.Profile)) = *doc.Clone()
	return nil
}

type fakePublisher struct {
	fn    func(draft *domain.Profile, confirm bool) (*publish.Result, error)
	calls int
}

func (f *fakePublisher) Publish(_ context.Context, _ string, draft *domain.Profile, confirm bool) (*publish.Result, error) {
	f.calls++
	if f.fn != nil {
		return f.fn(draft, confirm)
	}
	return &publish.Result{Profile: draft.StripInline(), TxHash: "0xtx", Path: publish.PathSponsored}, nil
}

type engineFixture struct {
	engine    *Engine
	drafts    *fakeDrafts
	cache     *fakeCache
	pointer   *fakePointer
	content   *fakeContent
	publisher *fakePublisher
}

func setupEngine(t *testing.T) *engineFixture {
	t.Helper()
	fx := &engineFixture{
		drafts:    newFakeDrafts(),
		cache:     &fakeCache{m: make(map[string]*domain.Profile)},
		pointer:   &fakePointer{},
		content:   &fakeContent{docs: make(map[string]*domain.Profile)},
		publisher: &fakePublisher{},
	}
	fx.engine = NewEngine(fx.drafts, fx.cache, fx.pointer, fx.content, fx.publisher)
	return fx
}

const identity = "0xAbC0000000000000000000000000000000000001"

func TestHydrate_FromChainPointer(t *testing.T) {
	fx := setupEngine(t)

	alice := domain.DefaultProfile()
	alice.Name = "Alice"
	fx.pointer.cid = "bafyalice"
	fx.content.docs["bafyalice"] = alice

	require.NoError(t, fx.engine.Hydrate(context.Background(), identity))
	assert.Equal(t, StateReady, fx.engine.StateOf(identity))

	draft, dirty, err := fx.engine.Draft(context.Background(), identity)
	require.NoError(t, err)
	assert.Equal(t, "Alice", draft.Name)
	assert.Empty(t, draft.Projects)
	assert.Equal(t, domain.DefaultAnimationID, draft.ActiveAnimationID)
	// Draft equals canonical right after hydration with no local draft.
	assert.False(t, dirty)
}

func TestHydrate_CacheWinsOverChain(t *testing.T) {
	fx := setupEngine(t)

	cached := domain.DefaultProfile()
	cached.Name = "FromCache"
	fx.cache.m[strings.ToLower(identity)] = cached

	chained := domain.DefaultProfile()
	chained.Name = "FromChain"
	fx.pointer.cid = "bafychain"
	fx.content.docs["bafychain"] = chained

	require.NoError(t, fx.engine.Hydrate(context.Background(), identity))

	draft, _, err := fx.engine.Draft(context.Background(), identity)
	require.NoError(t, err)
	assert.Equal(t, "FromCache", draft.Name)
}

func TestHydrate_AllSourcesEmptyFallsBackToDefault(t *testing.T) {
	fx := setupEngine(t)
	fx.cache.getErr = errors.New("db down")

	require.NoError(t, fx.engine.Hydrate(context.Background(), identity))

	draft, dirty, err := fx.engine.Draft(context.Background(), identity)
	require.NoError(t, err)
	assert.Empty(t, draft.Name)
	assert.Equal(t, domain.DefaultAnimationID, draft.ActiveAnimationID)
	assert.False(t, dirty)
}

func TestHydrate_LocalDraftWins(t *testing.T) {
	fx := setupEngine(t)

	canonical := domain.DefaultProfile()
	canonical.Name = "Published"
	fx.cache.m[strings.ToLower(identity)] = canonical

	stored := domain.DefaultProfile()
	stored.Name = "Edited Locally"
	fx.drafts.m[strings.ToLower(identity)] = stored

	require.NoError(t, fx.engine.Hydrate(context.Background(), identity))

	draft, dirty, err := fx.engine.Draft(context.Background(), identity)
	require.NoError(t, err)
	assert.Equal(t, "Edited Locally", draft.Name)
	assert.True(t, dirty)
}

func TestSaveDraft_MergesSequentialPatches(t *testing.T) {
	fx := setupEngine(t)
	require.NoError(t, fx.engine.Hydrate(context.Background(), identity))

	name := "X"
	_, _, err := fx.engine.SaveDraft(context.Background(), identity, domain.ProfilePatch{Name: &name})
	require.NoError(t, err)

	bio := "Y"
	draft, dirty, err := fx.engine.SaveDraft(context.Background(), identity, domain.ProfilePatch{Bio: &bio})
	require.NoError(t, err)

	assert.Equal(t, "X", draft.Name)
	assert.Equal(t, "Y", draft.Bio)
	assert.True(t, dirty)
}

func TestSaveDraft_RejectsFourthFeaturedWithoutMutating(t *testing.T) {
	fx := setupEngine(t)
	require.NoError(t, fx.engine.Hydrate(context.Background(), identity))

	three := []domain.Project{
		{ID: "p1", IsFeatured: true},
		{ID: "p2", IsFeatured: true},
		{ID: "p3", IsFeatured: true},
	}
	_, _, err := fx.engine.SaveDraft(context.Background(), identity, domain.ProfilePatch{Projects: &three})
	require.NoError(t, err)

	four := append(append([]domain.Project{}, three...), domain.Project{ID: "p4", IsFeatured: true})
	_, _, err = fx.engine.SaveDraft(context.Background(), identity, domain.ProfilePatch{Projects: &four})
	assert.ErrorIs(t, err, domain.ErrTooManyFeatured)

	draft, _, err := fx.engine.Draft(context.Background(), identity)
	require.NoError(t, err)
	assert.Len(t, draft.Projects, 3)
}

func TestDraft_LazyHydratesWithoutExplicitHydrate(t *testing.T) {
	fx := setupEngine(t)

	cached := domain.DefaultProfile()
	cached.Name = "Persisted"
	fx.cache.m[strings.ToLower(identity)] = cached

	// No Hydrate call first: the cookie outlives a process restart, so
	// the first authenticated request rebuilds the session itself.
	draft, dirty, err := fx.engine.Draft(context.Background(), identity)
	require.NoError(t, err)
	assert.Equal(t, "Persisted", draft.Name)
	assert.False(t, dirty)
	assert.Equal(t, StateReady, fx.engine.StateOf(identity))
}

func TestSaveDraft_LazyHydratesWithoutExplicitHydrate(t *testing.T) {
	fx := setupEngine(t)

	stored := domain.DefaultProfile()
	stored.Name = "Edited Before Restart"
	fx.drafts.m[strings.ToLower(identity)] = stored

	bio := "still here"
	draft, dirty, err := fx.engine.SaveDraft(context.Background(), identity, domain.ProfilePatch{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, "Edited Before Restart", draft.Name)
	assert.Equal(t, "still here", draft.Bio)
	assert.True(t, dirty)
}

func TestExists(t *testing.T) {
	fx := setupEngine(t)

	exists, err := fx.engine.Exists(context.Background(), identity)
	require.NoError(t, err)
	assert.False(t, exists)

	name := "Alice"
	_, _, err = fx.engine.SaveDraft(context.Background(), identity, domain.ProfilePatch{Name: &name})
	require.NoError(t, err)

	exists, err = fx.engine.Exists(context.Background(), identity)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestPublish_SuccessUpdatesCanonicalAndClearsDraft(t *testing.T) {
	fx := setupEngine(t)
	require.NoError(t, fx.engine.Hydrate(context.Background(), identity))

	name := "Alice"
	img := domain.InlineRef([]byte("raw"), "image/png")
	_, dirty, err := fx.engine.SaveDraft(context.Background(), identity, domain.ProfilePatch{Name: &name, ImageRef: &img})
	require.NoError(t, err)
	assert.True(t, dirty)

	fx.publisher.fn = func(draft *domain.Profile, _ bool) (*publish.Result, error) {
		materialized := draft.Clone()
		materialized.ImageRef = domain.ExternalRef("ipfs://bafyimg")
		return &publish.Result{Profile: materialized, TxHash: "0xtx", Path: publish.PathSponsored}, nil
	}

	result, err := fx.engine.Publish(context.Background(), identity, false)
	require.NoError(t, err)
	assert.Equal(t, "0xtx", result.TxHash)

	draft, dirty, err := fx.engine.Draft(context.Background(), identity)
	require.NoError(t, err)
	// The canonical snapshot holds the externalized reference even
	// though the draft's image was inline before the call.
	assert.Equal(t, "ipfs://bafyimg", draft.ImageRef.URI)
	assert.False(t, dirty)
	assert.Equal(t, StateReady, fx.engine.StateOf(identity))

	stored, err := fx.drafts.Load(context.Background(), identity)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestPublish_DeclinedFallbackLeavesEverythingUntouched(t *testing.T) {
	fx := setupEngine(t)
	require.NoError(t, fx.engine.Hydrate(context.Background(), identity))

	name := "Alice"
	_, _, err := fx.engine.SaveDraft(context.Background(), identity, domain.ProfilePatch{Name: &name})
	require.NoError(t, err)

	fx.publisher.fn = func(*domain.Profile, bool) (*publish.Result, error) {
		return nil, &publish.FallbackRequiredError{}
	}

	_, err = fx.engine.Publish(context.Background(), identity, false)
	var fallback *publish.FallbackRequiredError
	require.ErrorAs(t, err, &fallback)

	draft, dirty, err := fx.engine.Draft(context.Background(), identity)
	require.NoError(t, err)
	assert.Equal(t, "Alice", draft.Name)
	assert.True(t, dirty)
	assert.Equal(t, StateReady, fx.engine.StateOf(identity))
}

func TestPublish_FailureKeepsDraft(t *testing.T) {
	fx := setupEngine(t)
	require.NoError(t, fx.engine.Hydrate(context.Background(), identity))

	name := "Alice"
	_, _, err := fx.engine.SaveDraft(context.Background(), identity, domain.ProfilePatch{Name: &name})
	require.NoError(t, err)

	fx.publisher.fn = func(*domain.Profile, bool) (*publish.Result, error) {
		return nil, errors.New("relay exploded")
	}

	_, err = fx.engine.Publish(context.Background(), identity, false)
	require.Error(t, err)

	draft, dirty, err := fx.engine.Draft(context.Background(), identity)
	require.NoError(t, err)
	assert.Equal(t, "Alice", draft.Name)
	assert.True(t, dirty)
}

func TestPublish_SerializedPerIdentity(t *testing.T) {
	fx := setupEngine(t)
	require.NoError(t, fx.engine.Hydrate(context.Background(), identity))

	started := make(chan struct{})
	release := make(chan struct{})
	fx.publisher.fn = func(draft *domain.Profile, _ bool) (*publish.Result, error) {
		close(started)
		<-release
		return &publish.Result{Profile: draft.StripInline(), TxHash: "0xtx", Path: publish.PathSponsored}, nil
	}

	errs := make(chan error, 1)
	go func() {
		_, err := fx.engine.Publish(context.Background(), identity, false)
		errs <- err
	}()

	<-started
	_, err := fx.engine.Publish(context.Background(), identity, false)
	assert.ErrorIs(t, err, ErrPublishInFlight)

	close(release)
	require.NoError(t, <-errs)
}

func TestPublish_DraftFrozenAtEntry(t *testing.T) {
	fx := setupEngine(t)
	require.NoError(t, fx.engine.Hydrate(context.Background(), identity))

	name := "before"
	_, _, err := fx.engine.SaveDraft(context.Background(), identity, domain.ProfilePatch{Name: &name})
	require.NoError(t, err)

	started := make(chan struct{})
	release := make(chan struct{})
	var seen string
	fx.publisher.fn = func(draft *domain.Profile, _ bool) (*publish.Result, error) {
		close(started)
		<-release
		seen = draft.Name
		return nil, errors.New("abort so the draft is kept")
	}

	errs := make(chan error, 1)
	go func() {
		_, err := fx.engine.Publish(context.Background(), identity, false)
		errs <- err
	}()

	<-started
	// Edits during an in-flight publish land on the live draft only.
	during := "during"
	_, _, err = fx.engine.SaveDraft(context.Background(), identity, domain.ProfilePatch{Name: &during})
	require.NoError(t, err)

	close(release)
	<-errs

	assert.Equal(t, "before", seen)
	draft, _, err := fx.engine.Draft(context.Background(), identity)
	require.NoError(t, err)
	assert.Equal(t, "during", draft.Name)
}

func TestLogout_ClearsSessionAndStoredDraft(t *testing.T) {
	fx := setupEngine(t)
	require.NoError(t, fx.engine.Hydrate(context.Background(), identity))

	name := "Alice"
	_, _, err := fx.engine.SaveDraft(context.Background(), identity, domain.ProfilePatch{Name: &name})
	require.NoError(t, err)

	require.NoError(t, fx.engine.Logout(context.Background(), identity))
	assert.Equal(t, StateUnauthenticated, fx.engine.StateOf(identity))

	stored, err := fx.drafts.Load(context.Background(), identity)
	require.NoError(t, err)
	assert.Nil(t, stored)

	// A later request rebuilds from canonical sources; the unpublished
	// edits are gone with the draft.
	draft, dirty, err := fx.engine.Draft(context.Background(), identity)
	require.NoError(t, err)
	assert.Empty(t, draft.Name)
	assert.False(t, dirty)
}

func TestSessionsAreIdentityScoped(t *testing.T) {
	fx := setupEngine(t)
	other := "0xAbC0000000000000000000000000000000000002"

	require.NoError(t, fx.engine.Hydrate(context.Background(), identity))
	name := "Alice"
	_, _, err := fx.engine.SaveDraft(context.Background(), identity, domain.ProfilePatch{Name: &name})
	require.NoError(t, err)

	// Switching identity without logging out must not leak A's draft.
	require.NoError(t, fx.engine.Hydrate(context.Background(), other))
	draft, _, err := fx.engine.Draft(context.Background(), other)
	require.NoError(t, err)
	assert.Empty(t, draft.Name)
}
