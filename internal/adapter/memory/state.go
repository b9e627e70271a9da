package memory

import (
	"context"
	"sync"

	"stepquest/internal/domain"
)

// StateStore implements domain.StateStore in memory.
type StateStore struct {
	mu      sync.Mutex
	counter domain.CounterState
	hasCtr  bool
	kv      map[string]string

	// FailSaves, when true, makes SaveCounter fail. Used to exercise the
	// persistence-failure path.
	FailSaves bool
}

// NewStateStore creates an empty in-memory state store.
func NewStateStore() *StateStore {
	return &StateStore{kv: make(map[string]string)}
}

var _ domain.StateStore = (*StateStore)(nil)

// LoadCounter returns the stored counter.
func (s *StateStore) LoadCounter(ctx context.Context) (domain.CounterState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counter, s.hasCtr, nil
}

// SaveCounter stores the counter.
func (s *StateStore) SaveCounter(ctx context.Context, state domain.CounterState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSaves {
		return errSaveFailed
	}
	s.counter = state
	s.hasCtr = true
	return nil
}

// Get returns the value for key.
func (s *StateStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.kv[key]
	return v, ok, nil
}

// Set stores value under key.
func (s *StateStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kv[key] = value
	return nil
}

// Delete removes key.
func (s *StateStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.kv, key)
	return nil
}
