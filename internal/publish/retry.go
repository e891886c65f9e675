package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/devdash/profile-backend/internal/profile/domain"
)

const retryQueueKey = "publish:cache-retry"

// RedisRetryQueue holds cache-sync writes that failed after a
// successful on-chain commit until a flusher replays them.
type RedisRetryQueue struct {
	client *redis.Client
}

func NewRedisRetryQueue(client *redis.Client) *RedisRetryQueue {
	return &RedisRetryQueue{client: client}
}

type retryEntry struct {
	Identity string          `json:"identity"`
	Document *domain.Profile `json:"document"`
}

func (q *RedisRetryQueue) Enqueue(ctx context.Context, identity string, p *domain.Profile) error {
	raw, err := json.Marshal(retryEntry{Identity: identity, Document: p})
	if err != nil {
		return fmt.Errorf("marshal retry entry: %w", err)
	}
	if err := q.client.RPush(ctx, retryQueueKey, raw).Err(); err != nil {
		return fmt.Errorf("enqueue retry: %w", err)
	}
	return nil
}

// Flush replays queued cache writes. Entries that fail again go back to
// the end of the queue. Returns how many entries were synced.
func (q *RedisRetryQueue) Flush(ctx context.Context, cache CacheWriter) (int, error) {
	length, err := q.client.LLen(ctx, retryQueueKey).Result()
	if err != nil {
		return 0, fmt.Errorf("retry queue length: %w", err)
	}

	synced := 0
	for i := int64(0); i < length; i++ {
		raw, err := q.client.LPop(ctx, retryQueueKey).Bytes()
		if err == redis.Nil {
			break
		}
		if err != nil {
			return synced, fmt.Errorf("retry dequeue: %w", err)
		}

		var entry retryEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			log.Printf("Warning: dropping undecodable retry entry: %v", err)
			continue
		}

		if err := cache.Put(ctx, entry.Identity, entry.Document); err != nil {
			log.Printf("Warning: cache retry for %s failed again: %v", entry.Identity, err)
			q.client.RPush(ctx, retryQueueKey, raw)
			continue
		}
		synced++
	}
	return synced, nil
}

// RetryFlusher drives the queue on a schedule.
type RetryFlusher struct {
	queue *RedisRetryQueue
	cache CacheWriter
	cron  *cron.Cron
}

func NewRetryFlusher(queue *RedisRetryQueue, cache CacheWriter) *RetryFlusher {
	return &RetryFlusher{queue: queue, cache: cache}
}

// Start flushes the queue once a minute.
func (f *RetryFlusher) Start() {
	c := cron.New()
	_, err := c.AddFunc("* * * * *", func() {
		synced, err := f.queue.Flush(context.Background(), f.cache)
		if err != nil {
			log.Printf("Cache retry flush error: %v", err)
			return
		}
		if synced > 0 {
			log.Printf("Cache retry flush synced %d entries", synced)
		}
	})
	if err != nil {
		log.Printf("Failed to create cache retry cron job: %v", err)
		return
	}
	f.cron = c
	c.Start()
	log.Println("Cache retry flusher started (every minute)")
}

func (f *RetryFlusher) Stop() {
	if f.cron != nil {
		f.cron.Stop()
	}
}
