package store

import (
	"sync"

	"signet/internal/domain"
)

// MemStore is an in-memory secret store. It backs tests and throwaway
// sandbox runs where nothing should touch disk.
type MemStore struct {
	mu sync.RWMutex
	m  map[domain.Key]string
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{m: make(map[domain.Key]string)}
}

func (s *MemStore) Get(key domain.Key) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	return v, ok, nil
}

func (s *MemStore) Set(key domain.Key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}

func (s *MemStore) Delete(key domain.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}

func (s *MemStore) Close() error { return nil }

// Compile-time assertion that MemStore implements domain.SecretStore.
var _ domain.SecretStore = (*MemStore)(nil)
