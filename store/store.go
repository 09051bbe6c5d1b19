// Package store provides the keyed in-memory state abstraction consumed by
// stateful middleware (caching, rate limiting).
//
// Middleware holds its entries behind the Store protocol so tests can
// inspect or replace state without reaching into middleware internals.
package store

import "sync"

// Store is the canonical protocol for keyed in-memory state.
type Store interface {
	// Get returns the value for key and whether it exists.
	Get(key string) (any, bool)
	// Set stores value under key, replacing any prior value.
	Set(key string, value any)
	// Delete removes key. Missing keys are a no-op.
	Delete(key string)
	// Len returns the number of stored keys.
	Len() int
	// Range calls fn for each key/value pair until fn returns false.
	// The iteration order is unspecified.
	Range(fn func(key string, value any) bool)
	// Clear removes all keys.
	Clear()
}

// =============================================================================
// MEMORY STORE
// =============================================================================

// MemoryStore is a thread-safe map-backed Store.
type MemoryStore struct {
	entries map[string]any
	mu      sync.RWMutex
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]any)}
}

// Get returns the value for key.
func (s *MemoryStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.entries[key]
	return v, ok
}

// Set stores value under key.
func (s *MemoryStore) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = value
}

// Delete removes key.
func (s *MemoryStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// Len returns the number of stored keys.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Range iterates over a snapshot of the entries.
// fn may call back into the store without deadlocking.
func (s *MemoryStore) Range(fn func(key string, value any) bool) {
	s.mu.RLock()
	snapshot := make(map[string]any, len(s.entries))
	for k, v := range s.entries {
		snapshot[k] = v
	}
	s.mu.RUnlock()

	for k, v := range snapshot {
		if !fn(k, v) {
			return
		}
	}
}

// Clear removes all keys.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]any)
}

// Ensure MemoryStore implements the Store protocol.
var _ Store = (*MemoryStore)(nil)
