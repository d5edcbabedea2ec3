package session

import (
	"context"
	"sync"
	"time"

	"github.com/felixgeelhaar/adminctl/internal/errors"
)

// MemoryStore keeps the session in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	session *Session
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// Load returns a copy of the current session.
func (m *MemoryStore) Load(ctx context.Context) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.session == nil {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "no session in memory")
	}
	s := *m.session
	return &s, nil
}

// Save replaces the current session.
func (m *MemoryStore) Save(ctx context.Context, s *Session) error {
	if err := s.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *s
	m.session = &copied
	return nil
}

// Clear removes the current session. Clearing an empty store is not an error.
func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.session = nil
	return nil
}

// Token implements api.TokenSource.
func (m *MemoryStore) Token(ctx context.Context) (string, error) {
	return tokenOf(ctx, m, m.now)
}
