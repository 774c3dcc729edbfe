package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/feedback-desk-api/pkg/cache"
)

// RedisSlotStore keeps each slot as a plain Redis string without expiry.
type RedisSlotStore struct {
	client *redis.Client
	prefix string
}

// NewRedisSlotStore constructs a Redis backed slot store.
func NewRedisSlotStore(client *redis.Client, prefix string) *RedisSlotStore {
	return &RedisSlotStore{client: client, prefix: prefix}
}

// Read fetches the raw slot value.
func (s *RedisSlotStore) Read(ctx context.Context, key string) ([]byte, bool, error) {
	if s.client == nil {
		return nil, false, nil
	}
	raw, err := s.client.Get(ctx, cache.Key(s.prefix, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return raw, true, nil
}

// Write overwrites the slot value.
func (s *RedisSlotStore) Write(ctx context.Context, key string, value []byte) error {
	if s.client == nil {
		return fmt.Errorf("redis set %s: client not configured", key)
	}
	if err := s.client.Set(ctx, cache.Key(s.prefix, key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying Redis connection if present.
func (s *RedisSlotStore) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}
