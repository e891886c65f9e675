package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"github.com/devdash/profile-backend/internal/profile/domain"
	"github.com/devdash/profile-backend/internal/publish"
)

// State of a per-identity session within the engine.
type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateHydrating       State = "hydrating"
	StateReady           State = "ready"
	StatePublishing      State = "publishing"
)

var (
	ErrNotAuthenticated = errors.New("identity is not authenticated")
	ErrPublishInFlight  = errors.New("a publish is already in flight for this identity")
)

type DraftStore interface {
	Load(ctx context.Context, identity string) (*domain.Profile, error)
	Save(ctx context.Context, identity string, draft *domain.Profile) error
	Clear(ctx context.Context, identity string) error
}

type ProfileCache interface {
	Get(ctx context.Context, identity string) (*domain.Profile, error)
	Put(ctx context.Context, identity string, p *domain.Profile) error
}

type PointerReader interface {
	GetPointer(ctx context.Context, identity string) (string, error)
}

type ContentFetcher interface {
	CatJSON(ctx context.Context, cid string, v any) error
}

type Publisher interface {
	Publish(ctx context.Context, identity string, draft *domain.Profile, confirmFallback bool) (*publish.Result, error)
}

// Engine reconciles three views of a profile: the live draft, the
// canonical snapshot (cache, else chain-dereferenced, else default) and
// the persisted draft copy. It is the sole writer of draft state.
type Engine struct {
	drafts    DraftStore
	cache     ProfileCache
	pointer   PointerReader
	content   ContentFetcher
	publisher Publisher

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	state     State
	draft     *domain.Profile
	canonical *domain.Profile
}

func NewEngine(drafts DraftStore, cache ProfileCache, pointer PointerReader, content ContentFetcher, publisher Publisher) *Engine {
	return &Engine{
		drafts:    drafts,
		cache:     cache,
		pointer:   pointer,
		content:   content,
		publisher: publisher,
		sessions:  make(map[string]*session),
	}
}

func key(identity string) string {
	return strings.ToLower(identity)
}

func (e *Engine) StateOf(identity string) State {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s, ok := e.sessions[key(identity)]; ok {
		return s.state
	}
	return StateUnauthenticated
}

// Hydrate builds the identity's canonical snapshot and live draft.
// Source order: remote cache, then chain pointer dereference, then the
// default profile. A stored local draft, when present, wins over the
// canonical snapshot as the live draft. Source failures degrade to the
// next fallback; hydration itself never fails the login.
func (e *Engine) Hydrate(ctx context.Context, identity string) error {
	id := key(identity)

	e.mu.Lock()
	e.sessions[id] = &session{state: StateHydrating}
	e.mu.Unlock()

	canonical := e.loadCanonical(ctx, identity)

	draft := canonical.Clone()
	stored, err := e.drafts.Load(ctx, identity)
	if err != nil {
		log.Printf("Warning: draft load for %s: %v", identity, err)
	} else if stored != nil {
		draft = stored
	}

	e.mu.Lock()
	e.sessions[id] = &session{
		state:     StateReady,
		draft:     draft,
		canonical: canonical,
	}
	e.mu.Unlock()
	return nil
}

func (e *Engine) loadCanonical(ctx context.Context, identity string) *domain.Profile {
	cached, err := e.cache.Get(ctx, identity)
	if err != nil {
		log.Printf("Warning: profile cache read for %s: %v", identity, err)
	}
	if cached != nil {
		return cached
	}

	cid, err := e.pointer.GetPointer(ctx, identity)
	if err != nil {
		log.Printf("Warning: chain pointer read for %s: %v", identity, err)
	}
	if cid != "" {
		p := &domain.Profile{}
		if err := e.content.CatJSON(ctx, cid, p); err != nil {
			log.Printf("Warning: pointer dereference for %s: %v", identity, err)
		} else {
			return p
		}
	}

	return domain.DefaultProfile()
}

// Logout drops the in-memory session and the persisted draft.
func (e *Engine) Logout(ctx context.Context, identity string) error {
	e.mu.Lock()
	delete(e.sessions, key(identity))
	e.mu.Unlock()

	return e.drafts.Clear(ctx, identity)
}

// ensure hydrates lazily when no in-memory session exists. The auth
// middleware has already vouched for the identity by the time engine
// methods run, so a missing session means a process restart, not an
// unauthenticated caller.
func (e *Engine) ensure(ctx context.Context, identity string) error {
	e.mu.Lock()
	s, ok := e.sessions[key(identity)]
	e.mu.Unlock()
	if ok && s.state != StateHydrating {
		return nil
	}
	return e.Hydrate(ctx, identity)
}

// Draft returns a copy of the live draft together with the
// unpublished-changes signal, hydrating first if needed.
func (e *Engine) Draft(ctx context.Context, identity string) (*domain.Profile, bool, error) {
	if err := e.ensure(ctx, identity); err != nil {
		return nil, false, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.sessions[key(identity)]
	if !ok {
		return nil, false, ErrNotAuthenticated
	}
	return s.draft.Clone(), changed(s.draft, s.canonical), nil
}

// Exists reports whether the identity has anything beyond the pristine
// default profile, either published or as local edits.
func (e *Engine) Exists(ctx context.Context, identity string) (bool, error) {
	if err := e.ensure(ctx, identity); err != nil {
		return false, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.sessions[key(identity)]
	if !ok {
		return false, ErrNotAuthenticated
	}
	return changed(s.canonical, domain.DefaultProfile()) || changed(s.draft, s.canonical), nil
}

// SaveDraft shallow-merges the patch into the live draft, validates the
// result and persists a stripped copy. Allowed while ready or while a
// publish is in flight (the in-flight pipeline works on its own
// snapshot).
func (e *Engine) SaveDraft(ctx context.Context, identity string, patch domain.ProfilePatch) (*domain.Profile, bool, error) {
	if err := e.ensure(ctx, identity); err != nil {
		return nil, false, err
	}

	e.mu.Lock()

	s, ok := e.sessions[key(identity)]
	if !ok {
		e.mu.Unlock()
		return nil, false, ErrNotAuthenticated
	}

	merged := patch.Apply(s.draft)
	if err := merged.Validate(); err != nil {
		e.mu.Unlock()
		return nil, false, err
	}
	s.draft = merged
	dirty := changed(s.draft, s.canonical)
	e.mu.Unlock()

	// Persistence is advisory; the repository swallows quota-style
	// failures itself and the in-memory draft stays authoritative.
	if err := e.drafts.Save(ctx, identity, merged); err != nil {
		log.Printf("Warning: draft persist for %s: %v", identity, err)
	}

	return merged.Clone(), dirty, nil
}

// Publish snapshots the draft, runs the pipeline, and on success swaps
// both canonical and draft to the materialized document. Only one
// publish may be in flight per identity. On any failure the draft and
// canonical snapshot are exactly as they were.
func (e *Engine) Publish(ctx context.Context, identity string, confirmFallback bool) (*publish.Result, error) {
	id := key(identity)

	if err := e.ensure(ctx, identity); err != nil {
		return nil, err
	}

	e.mu.Lock()
	s, ok := e.sessions[id]
	if !ok {
		e.mu.Unlock()
		return nil, ErrNotAuthenticated
	}
	if s.state == StatePublishing {
		e.mu.Unlock()
		return nil, ErrPublishInFlight
	}
	s.state = StatePublishing
	snapshot := s.draft.Clone()
	e.mu.Unlock()

	result, err := e.publisher.Publish(ctx, identity, snapshot, confirmFallback)

	e.mu.Lock()
	defer e.mu.Unlock()

	// Session may have been logged out mid-publish; the commit stands
	// but there is no state left to update.
	s, ok = e.sessions[id]
	if ok {
		s.state = StateReady
	}
	if err != nil {
		return nil, err
	}
	if ok {
		s.canonical = result.Profile.Clone()
		s.draft = result.Profile.Clone()
	}

	if cerr := e.drafts.Clear(ctx, identity); cerr != nil {
		log.Printf("Warning: draft clear after publish for %s: %v", identity, cerr)
	}
	return result, nil
}

// HasUnpublishedChanges recomputes the change signal for an identity.
func (e *Engine) HasUnpublishedChanges(identity string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s, ok := e.sessions[key(identity)]; ok {
		return changed(s.draft, s.canonical)
	}
	return false
}
