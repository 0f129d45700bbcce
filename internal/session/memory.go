package session

import (
	"context"
	"sync"
	"time"
)

type memoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]*Data
}

// NewMemoryStore constructs the in-memory Store used by default and in tests.
func NewMemoryStore() Store {
	return &memoryStore{
		sessions: make(map[int64]*Data),
	}
}

// Get returns a copy of the stored session or ErrNotFound.
func (m *memoryStore) Get(_ context.Context, userID int64) (*Data, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.sessions[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return data.Clone(), nil
}

// Put stores a copy of the session for the user.
func (m *memoryStore) Put(_ context.Context, userID int64, data *Data) error {
	clone := data.Clone()
	clone.UpdatedAt = time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[userID] = clone
	return nil
}

// Clear removes the session entirely.
func (m *memoryStore) Clear(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	return nil
}
