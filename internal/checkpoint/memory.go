package checkpoint

import (
	"context"
	"encoding/json"
	"sync"

	"proppanda/internal/model"
)

// MemoryStore is an in-process Store for tests and single-node dev runs.
// State is copied through JSON so callers never share mutable references
// with the store, matching RedisStore semantics.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]byte
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]byte)}
}

// Load restores the state for a thread.
func (s *MemoryStore) Load(_ context.Context, threadID string) (*model.SessionState, error) {
	s.mu.RLock()
	data, ok := s.sessions[threadID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	var state model.SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Save persists the state.
func (s *MemoryStore) Save(_ context.Context, state *model.SessionState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.sessions[state.ThreadID] = data
	s.mu.Unlock()
	return nil
}

// Delete removes a thread's state.
func (s *MemoryStore) Delete(_ context.Context, threadID string) error {
	s.mu.Lock()
	delete(s.sessions, threadID)
	s.mu.Unlock()
	return nil
}
