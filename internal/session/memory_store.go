package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	userID    string
	expiresAt time.Time
}

// MemoryStore is a process-local Store used when Redis is unavailable.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
	now      func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]memoryEntry), now: time.Now}
}

func (s *MemoryStore) Create(_ context.Context, sessionID, userID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = memoryEntry{userID: userID, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Lookup(_ context.Context, sessionID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[sessionID]
	if !ok {
		return "", ErrNoSession
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.sessions, sessionID)
		return "", ErrNoSession
	}
	return e.userID, nil
}

func (s *MemoryStore) Revoke(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return ErrNoSession
	}
	delete(s.sessions, sessionID)
	return nil
}

func (s *MemoryStore) RevokeUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.sessions {
		if e.userID == userID {
			delete(s.sessions, id)
		}
	}
	return nil
}
