package repository

import (
	"context"
	"sync"
	"time"

	"vocab_srs_backend/internal/model"
	"vocab_srs_backend/internal/util"
)

// MemorySessionStore is a process-local SessionStore. Used in tests and in
// single-process deployments running without redis; it does not survive a
// restart and does not coordinate across processes.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string][]byte
	locks    map[string]time.Time
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string][]byte),
		locks:    make(map[string]time.Time),
	}
}

func (s *MemorySessionStore) Save(_ context.Context, sp *model.SessionProgress, _ time.Duration) error {
	data, err := sp.Marshal()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sp.SessionID] = data
	return nil
}

func (s *MemorySessionStore) Get(_ context.Context, sessionID string) (*model.SessionProgress, error) {
	s.mu.Lock()
	data, ok := s.sessions[sessionID]
	s.mu.Unlock()
	if !ok {
		return nil, util.ErrSessionNotFound
	}
	return model.UnmarshalSessionProgress(data)
}

func (s *MemorySessionStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

func (s *MemorySessionStore) TryLock(_ context.Context, sessionID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if exp, held := s.locks[sessionID]; held && time.Now().Before(exp) {
		return false, nil
	}
	s.locks[sessionID] = time.Now().Add(ttl)
	return true, nil
}

func (s *MemorySessionStore) Unlock(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, sessionID)
	return nil
}
