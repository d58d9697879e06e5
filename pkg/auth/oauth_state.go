package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const stateKeyPrefix = "oauth:state:"

// RedisStateStore keeps one-time OAuth state tokens in Redis with a TTL, so
// state survives process restarts and is shared between replicas.
type RedisStateStore struct {
	client *redis.Client
}

// NewRedisStateStore wraps an established Redis client.
func NewRedisStateStore(client *redis.Client) *RedisStateStore {
	return &RedisStateStore{client: client}
}

func (s *RedisStateStore) Store(ctx context.Context, state string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return s.client.Set(ctx, stateKeyPrefix+state, "1", ttl).Err()
}

// Consume deletes the state atomically; a missing key means the state was
// never issued, expired, or was already redeemed.
func (s *RedisStateStore) Consume(ctx context.Context, state string) error {
	deleted, err := s.client.Del(ctx, stateKeyPrefix+state).Result()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrInvalidState
	}
	return nil
}
