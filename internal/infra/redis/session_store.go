package redis

import (
	"context"
	"sync"
	"time"

	"assessment-service/internal/app"
	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "assessment:session:"

// SessionStore is a Redis-aware implementation of SessionRepository.
// Controllers (and their timers) live in process; Redis carries a liveness
// marker per session so Len counts candidates across instances. A marker
// expires ttl after its instance last refreshed it.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Controller
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Controller),
	}
}

func (s *SessionStore) Put(id string, ctrl *app.Controller) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = ctrl
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(id), "1", s.ttl).Err()
}

// Get returns the local controller and extends its marker.
func (s *SessionStore) Get(id string) (*app.Controller, bool) {
	s.mu.RLock()
	ctrl, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		_ = s.client.Expire(context.Background(), s.key(id), s.ttl).Err()
	}
	return ctrl, ok
}

func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return
	}
	delete(s.sessions, id)
	_ = s.client.Del(context.Background(), s.key(id)).Err()
}

// Len refreshes this instance's markers, then counts every live marker.
// When Redis is unreachable it falls back to the local count.
func (s *SessionStore) Len() int {
	ctx := context.Background()
	local := s.refresh(ctx)

	count := 0
	iter := s.client.Scan(ctx, 0, sessionKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		return local
	}
	return count
}

// refresh re-arms the marker of every local session and returns how many there are.
func (s *SessionStore) refresh(ctx context.Context) int {
	s.mu.RLock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	if len(ids) > 0 {
		pipe := s.client.Pipeline()
		for _, id := range ids {
			pipe.Set(ctx, s.key(id), "1", s.ttl)
		}
		_, _ = pipe.Exec(ctx)
	}
	return len(ids)
}

func (s *SessionStore) key(id string) string {
	return sessionKeyPrefix + id
}
