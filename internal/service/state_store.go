package service

import (
	"context"
	"fmt"
	"time"

	"github.com/prperemyshlev/outreach-service/pkg/database"
)

// minStateTTL keeps a consumed state around even when it is about to expire
const minStateTTL = time.Second

// RedisStateStore remembers consumed authorization state ids until they expire
type RedisStateStore struct {
	redis *database.Redis
}

// NewStateStore creates a new Redis-backed state store
func NewStateStore(redis *database.Redis) *RedisStateStore {
	return &RedisStateStore{redis: redis}
}

// Consume marks the state id as used. It returns false if the id was consumed before.
func (s *RedisStateStore) Consume(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	if ttl < minStateTTL {
		ttl = minStateTTL
	}

	key := fmt.Sprintf("oauth:state:%s", id)
	first, err := s.redis.Client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to consume authorization state: %w", err)
	}
	return first, nil
}

