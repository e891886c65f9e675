package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/devdash/profile-backend/internal/profile/domain"
)

// CacheRepository is the server-side canonical profile cache: the
// authoritative hydration source when present, refreshed after every
// successful publish so readers never wait on chain propagation.
type CacheRepository struct {
	db *pgxpool.Pool
}

func NewCacheRepository(db *pgxpool.Pool) *CacheRepository {
	return &CacheRepository{db: db}
}

func (r *CacheRepository) Get(ctx context.Context, identity string) (*domain.Profile, error) {
	const q = `select document from profile_cache where identity = $1;`

	var raw []byte
	err := r.db.QueryRow(ctx, q, strings.ToLower(identity)).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}

	p := &domain.Profile{}
	if err := json.Unmarshal(raw, p); err != nil {
		return nil, fmt.Errorf("cache decode: %w", err)
	}
	return p, nil
}

func (r *CacheRepository) Put(ctx context.Context, identity string, p *domain.Profile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}

	const q = `
insert into profile_cache (identity, document, updated_at)
values ($1, $2, now())
on conflict (identity) do update
set document = excluded.document, updated_at = now();
`
	if _, err := r.db.Exec(ctx, q, strings.ToLower(identity), raw); err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}
