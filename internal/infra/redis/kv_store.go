package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// KeyValueStore keeps whole-value slots as plain Redis strings without expiry.
// Keys are stored as: assessment:slot:{key}
type KeyValueStore struct {
	client *redis.Client
}

func NewKeyValueStore(client *redis.Client) *KeyValueStore {
	return &KeyValueStore{client: client}
}

func (s *KeyValueStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := s.client.Get(ctx, s.slotKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return raw, true, nil
}

func (s *KeyValueStore) Put(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.slotKey(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *KeyValueStore) slotKey(key string) string {
	return "assessment:slot:" + key
}
