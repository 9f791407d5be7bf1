package session

import (
	"context"
	"sync"
	"time"

	"github.com/garyjia/billed/internal/application/port"
	"github.com/garyjia/billed/internal/domain/entity"
)

// MemoryStore keeps sessions in process memory
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]entity.Session
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]entity.Session)}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*entity.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, port.ErrSessionNotFound
	}
	return &sess, nil
}

func (s *MemoryStore) Put(_ context.Context, id string, session *entity.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = *session
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// PurgeBefore deletes the sessions opened before cutoff
func (s *MemoryStore) PurgeBefore(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	purged := 0
	for id, sess := range s.sessions {
		if sess.ExpiredBefore(cutoff) {
			delete(s.sessions, id)
			purged++
		}
	}
	return purged, nil
}

var (
	_ port.SessionStore  = (*MemoryStore)(nil)
	_ port.SessionPurger = (*MemoryStore)(nil)
)
