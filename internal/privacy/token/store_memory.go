package token

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"sync"
	"time"
)

// InMemoryStore mirrors RedisStore semantics for unit tests and single-node
// dev runs. Expiry is checked lazily on read; there is no background sweeper.
type InMemoryStore struct {
	mu     sync.Mutex
	ttl    time.Duration
	tokens map[int64]memoryToken
	now    func() time.Time
}

type memoryToken struct {
	value     string
	expiresAt time.Time
}

// NewInMemory constructs an in-memory token store with the given TTL.
func NewInMemory(ttl time.Duration) *InMemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &InMemoryStore{
		ttl:    ttl,
		tokens: make(map[int64]memoryToken),
		now:    time.Now,
	}
}

// TTL returns the configured token lifetime.
func (s *InMemoryStore) TTL() time.Duration {
	return s.ttl
}

func (s *InMemoryStore) Issue(ctx context.Context, userID int64) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	tok := base64.RawURLEncoding.EncodeToString(buf)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[userID] = memoryToken{value: tok, expiresAt: s.now().Add(s.ttl)}
	return tok, nil
}

func (s *InMemoryStore) Verify(ctx context.Context, userID int64, tok string) (bool, error) {
	if tok == "" {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.tokens[userID]
	if !ok {
		return false, nil
	}
	if s.now().After(stored.expiresAt) {
		delete(s.tokens, userID)
		return false, nil
	}
	return subtle.ConstantTimeCompare([]byte(stored.value), []byte(tok)) == 1, nil
}

func (s *InMemoryStore) Refresh(ctx context.Context, userID int64, tok string) (bool, error) {
	ok, err := s.Verify(ctx, userID, tok)
	if err != nil || !ok {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	stored, exists := s.tokens[userID]
	if !exists {
		return false, nil
	}
	stored.expiresAt = s.now().Add(s.ttl)
	s.tokens[userID] = stored
	return true, nil
}

func (s *InMemoryStore) Revoke(ctx context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, userID)
	return nil
}
