package store

import (
	"context"
	"sync"
)

// InMemoryStore keeps passphrase hashes in a map for unit tests. Every user
// ID is considered to exist.
type InMemoryStore struct {
	mu     sync.RWMutex
	hashes map[int64]string
}

// NewInMemory creates an in-memory credential store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{hashes: make(map[int64]string)}
}

func (s *InMemoryStore) GetPassphraseHash(ctx context.Context, userID int64) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hashes[userID], nil
}

func (s *InMemoryStore) SetPassphraseHash(ctx context.Context, userID int64, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hashes[userID] = hash
	return nil
}
