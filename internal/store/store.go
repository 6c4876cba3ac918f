package store

import (
	"sync"

	"mintflow/internal/models"
)

// StateStore holds the observable mapping from item key to purchase state.
// Writes replace the whole map (copy-on-write), so a snapshot handed to a
// reader is never mutated underneath it.
type StateStore struct {
	mu     sync.RWMutex
	states map[models.ItemKey]models.PurchaseState
}

// NewStateStore creates an empty state store
func NewStateStore() *StateStore {
	return &StateStore{
		states: make(map[models.ItemKey]models.PurchaseState),
	}
}

// Get returns the state for a key, defaulting to Idle
func (s *StateStore) Get(key models.ItemKey) models.PurchaseState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if state, ok := s.states[key]; ok {
		return state
	}
	return models.Idle()
}

// Set replaces the state for a key
func (s *StateStore) Set(key models.ItemKey, state models.PurchaseState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[models.ItemKey]models.PurchaseState, len(s.states)+1)
	for k, v := range s.states {
		next[k] = v
	}
	next[key] = state
	s.states = next
}

// Reset returns a key to Idle so a terminal state can be retried explicitly
func (s *StateStore) Reset(key models.ItemKey) {
	s.Set(key, models.Idle())
}

// Snapshot returns the current complete map. The returned map is never
// mutated; callers may read it without holding any lock.
func (s *StateStore) Snapshot() map[models.ItemKey]models.PurchaseState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.states
}
