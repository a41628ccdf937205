package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memorySession struct {
	userID    uuid.UUID
	expiresAt time.Time
}

// MemoryStore keeps sessions in-process. Development and tests only.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]memorySession
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]memorySession),
		now:      time.Now,
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Create(_ context.Context, token string, userID uuid.UUID) error {
	s.mu.Lock()
	s.sessions[token] = memorySession{userID: userID, expiresAt: s.now().Add(TTL)}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, token string) (uuid.UUID, error) {
	s.mu.RLock()
	sess, ok := s.sessions[token]
	s.mu.RUnlock()
	if !ok {
		return uuid.Nil, ErrNotFound
	}
	if s.now().After(sess.expiresAt) {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return uuid.Nil, ErrNotFound
	}
	return sess.userID, nil
}

func (s *MemoryStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
	return nil
}
