package extensions

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/devdash/profile-backend/internal/profile/domain"
)

// Installed animation extensions are global, not identity-scoped.
const extensionsKey = "extensions:animations"

type Repo struct {
	client *redis.Client
}

func NewRepo(client *redis.Client) *Repo {
	return &Repo{client: client}
}

func (r *Repo) List(ctx context.Context) ([]domain.AnimationExtension, error) {
	raws, err := r.client.LRange(ctx, extensionsKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list extensions: %w", err)
	}

	out := make([]domain.AnimationExtension, 0, len(raws))
	for _, raw := range raws {
		var ext domain.AnimationExtension
		if err := json.Unmarshal([]byte(raw), &ext); err != nil {
			continue
		}
		out = append(out, ext)
	}
	return out, nil
}

// Add registers an extension by repo URL; the display name is the last
// path segment.
func (r *Repo) Add(ctx context.Context, repoURL string) (*domain.AnimationExtension, error) {
	repoURL = strings.TrimSpace(repoURL)
	if repoURL == "" {
		return nil, fmt.Errorf("extension url required")
	}

	name := repoURL
	if i := strings.LastIndex(strings.TrimRight(repoURL, "/"), "/"); i >= 0 {
		name = strings.TrimRight(repoURL, "/")[i+1:]
	}
	if name == "" {
		name = "Custom Animation"
	}

	ext := domain.AnimationExtension{ID: repoURL, Name: name}
	raw, err := json.Marshal(ext)
	if err != nil {
		return nil, err
	}
	if err := r.client.RPush(ctx, extensionsKey, raw).Err(); err != nil {
		return nil, fmt.Errorf("add extension: %w", err)
	}
	return &ext, nil
}
