package publish

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devdash/profile-backend/internal/profile/domain"
)

type flakyCache struct {
	failFor map[string]bool
	puts    []string
}

func (c *flakyCache) Put(_ context.Context, identity string, _ *domain.Profile) error {
	if c.failFor[identity] {
		return errors.New("still down")
	}
	c.puts = append(c.puts, identity)
	return nil
}

func setupRetryQueue(t *testing.T) *RedisRetryQueue {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisRetryQueue(client)
}

func TestRetryQueue_FlushSyncsEntries(t *testing.T) {
	queue := setupRetryQueue(t)
	ctx := context.Background()

	p := domain.DefaultProfile()
	p.Name = "Alice"
	require.NoError(t, queue.Enqueue(ctx, "0xAAA", p))
	require.NoError(t, queue.Enqueue(ctx, "0xBBB", domain.DefaultProfile()))

	cache := &flakyCache{}
	synced, err := queue.Flush(ctx, cache)
	require.NoError(t, err)
	assert.Equal(t, 2, synced)
	assert.Equal(t, []string{"0xAAA", "0xBBB"}, cache.puts)

	// Queue drained; a second flush is a no-op.
	synced, err = queue.Flush(ctx, cache)
	require.NoError(t, err)
	assert.Zero(t, synced)
}

func TestRetryQueue_FailedEntriesRequeue(t *testing.T) {
	queue := setupRetryQueue(t)
	ctx := context.Background()

	require.NoError(t, queue.Enqueue(ctx, "0xAAA", domain.DefaultProfile()))
	require.NoError(t, queue.Enqueue(ctx, "0xBBB", domain.DefaultProfile()))

	cache := &flakyCache{failFor: map[string]bool{"0xAAA": true}}
	synced, err := queue.Flush(ctx, cache)
	require.NoError(t, err)
	assert.Equal(t, 1, synced)
	assert.Equal(t, []string{"0xBBB"}, cache.puts)

	// The failed entry is still queued and syncs once the cache heals.
	cache.failFor = nil
	synced, err = queue.Flush(ctx, cache)
	require.NoError(t, err)
	assert.Equal(t, 1, synced)
	assert.Equal(t, []string{"0xBBB", "0xAAA"}, cache.puts)
}
