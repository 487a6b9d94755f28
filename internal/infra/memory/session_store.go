package memory

import (
	"sync"

	"assessment-service/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*app.Controller
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*app.Controller),
	}
}

func (s *SessionStore) Put(id string, ctrl *app.Controller) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = ctrl
}

func (s *SessionStore) Get(id string) (*app.Controller, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ctrl, ok := s.sessions[id]
	return ctrl, ok
}

func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
