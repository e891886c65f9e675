package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/devdash/profile-backend/internal/profile/domain"
)

const (
	draftKeyPrefix = "profile:draft:" // profile:draft:{identity}
	draftTTL       = 30 * 24 * time.Hour
)

// DraftRepository persists per-identity profile drafts in Redis. Inline
// media payloads are stripped before serialization so a draft entry
// stays small; the in-memory draft keeps them.
type DraftRepository struct {
	client *redis.Client
}

func NewDraftRepository(client *redis.Client) *DraftRepository {
	return &DraftRepository{client: client}
}

func (r *DraftRepository) key(identity string) string {
	return draftKeyPrefix + strings.ToLower(identity)
}

// Save writes the stripped draft. A write failure is advisory: it is
// logged and swallowed, never surfaced to the caller, and no retry is
// scheduled. The in-memory draft remains the live copy.
func (r *DraftRepository) Save(ctx context.Context, identity string, draft *domain.Profile) error {
	stored := draft.StripInline()
	raw, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("marshal draft: %w", err)
	}
	if err := r.client.Set(ctx, r.key(identity), raw, draftTTL).Err(); err != nil {
		log.Printf("Warning: draft save skipped for %s: %v", identity, err)
	}
	return nil
}

// Load returns the stored draft or nil when none exists.
func (r *DraftRepository) Load(ctx context.Context, identity string) (*domain.Profile, error) {
	raw, err := r.client.Get(ctx, r.key(identity)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load draft: %w", err)
	}
	draft := &domain.Profile{}
	if err := json.Unmarshal(raw, draft); err != nil {
		return nil, fmt.Errorf("unmarshal draft: %w", err)
	}
	return draft, nil
}

func (r *DraftRepository) Clear(ctx context.Context, identity string) error {
	if err := r.client.Del(ctx, r.key(identity)).Err(); err != nil {
		return fmt.Errorf("clear draft: %w", err)
	}
	return nil
}
