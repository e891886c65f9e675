package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	nonceKeyPrefix = "auth:nonce:" // auth:nonce:{address}
	maxAttempts    = 5
)

// ChallengeStore issues and consumes one-time login nonces, keyed by
// wallet address with a TTL and a bounded attempt count.
type ChallengeStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewChallengeStore(client *redis.Client, ttl time.Duration) *ChallengeStore {
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	return &ChallengeStore{client: client, ttl: ttl}
}

func (s *ChallengeStore) key(address string) string {
	return nonceKeyPrefix + strings.ToLower(address)
}

// Issue creates or refreshes the nonce for an address.
func (s *ChallengeStore) Issue(ctx context.Context, address string) (string, error) {
	nonce, err := randomNonce()
	if err != nil {
		return "", err
	}
	pipe := s.client.Pipeline()
	pipe.HSet(ctx, s.key(address), "nonce", nonce, "attempts", 0)
	pipe.Expire(ctx, s.key(address), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("issue nonce: %w", err)
	}
	return nonce, nil
}

// Consume checks the submitted nonce against the outstanding challenge
// and deletes it on match. A missing, expired, mismatched or
// over-attempted challenge all fail the same way.
func (s *ChallengeStore) Consume(ctx context.Context, address, nonce string) (bool, error) {
	key := s.key(address)
	stored, err := s.client.HGet(ctx, key, "nonce").Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("consume nonce: %w", err)
	}

	attempts, err := s.client.HIncrBy(ctx, key, "attempts", 1).Result()
	if err != nil {
		return false, fmt.Errorf("consume nonce: %w", err)
	}
	if attempts > maxAttempts {
		s.client.Del(ctx, key)
		return false, nil
	}
	if stored != nonce {
		return false, nil
	}
	s.client.Del(ctx, key)
	return true, nil
}

func randomNonce() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
