package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSessionStore keeps session tokens as Redis keys with a TTL.
type RedisSessionStore struct {
	client *redis.Client
	prefix string
}

// NewRedisSessionStore creates a store from an existing Redis client.
func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{
		client: client,
		prefix: "cb:session:",
	}
}

func (s *RedisSessionStore) key(token string) string {
	return s.prefix + token
}

// Create implements SessionStore.
func (s *RedisSessionStore) Create(ctx context.Context, token string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(token), time.Now().UTC().Format(time.RFC3339), ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Valid implements SessionStore. Expiry is enforced by Redis.
func (s *RedisSessionStore) Valid(ctx context.Context, token string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(token)).Result()
	if err != nil {
		return false, fmt.Errorf("lookup session: %w", err)
	}
	return n == 1, nil
}

// Delete implements SessionStore.
func (s *RedisSessionStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, s.key(token)).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}
