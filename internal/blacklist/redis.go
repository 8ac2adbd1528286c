package blacklist

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "blacklist:"

// RedisStore keeps revoked tokens under blacklist:<token> with a TTL, so
// Redis eviction is the only cleanup the set needs.
type RedisStore struct {
	Client redis.UniversalClient
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{Client: client}
}

func (s *RedisStore) Exists(ctx context.Context, token string) (bool, error) {
	n, err := s.Client.Exists(ctx, keyPrefix+token).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

func (s *RedisStore) Add(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.Client.Set(ctx, keyPrefix+token, "true", ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
