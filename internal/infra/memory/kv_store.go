package memory

import (
	"context"
	"sync"
)

// KeyValueStore is an in-memory implementation of app.KeyValueStore.
// Values are copied on the way in and out.
type KeyValueStore struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

func NewKeyValueStore() *KeyValueStore {
	return &KeyValueStore{slots: make(map[string][]byte)}
}

func (s *KeyValueStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.slots[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

func (s *KeyValueStore) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[key] = append([]byte(nil), value...)
	return nil
}
