package token

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"deskvault/pkg/sentinel"
)

const tokenKeyPrefix = "privacy_token:"

// RedisStore is the production Store: server-side expiry comes from the key
// TTL, and SET's overwrite semantics give single-liveness for free.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisStoreOption configures a RedisStore instance.
type RedisStoreOption func(*RedisStore)

// WithTTL overrides the default token TTL.
func WithTTL(ttl time.Duration) RedisStoreOption {
	return func(s *RedisStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// NewRedis constructs a Redis-backed token store.
func NewRedis(client *redis.Client, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{
		client: client,
		ttl:    DefaultTTL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// TTL returns the configured token lifetime.
func (s *RedisStore) TTL() time.Duration {
	return s.ttl
}

func tokenKey(userID int64) string {
	return fmt.Sprintf("%s%d", tokenKeyPrefix, userID)
}

func (s *RedisStore) Issue(ctx context.Context, userID int64) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	tok := base64.RawURLEncoding.EncodeToString(buf)

	if err := s.client.Set(ctx, tokenKey(userID), tok, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("%w: store token: %s", sentinel.ErrUnavailable, err)
	}
	return tok, nil
}

func (s *RedisStore) Verify(ctx context.Context, userID int64, tok string) (bool, error) {
	if tok == "" {
		return false, nil
	}
	stored, err := s.client.Get(ctx, tokenKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: read token: %s", sentinel.ErrUnavailable, err)
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(tok)) == 1, nil
}

func (s *RedisStore) Refresh(ctx context.Context, userID int64, tok string) (bool, error) {
	ok, err := s.Verify(ctx, userID, tok)
	if err != nil || !ok {
		return false, err
	}
	if err := s.client.Expire(ctx, tokenKey(userID), s.ttl).Err(); err != nil {
		return false, fmt.Errorf("%w: refresh token: %s", sentinel.ErrUnavailable, err)
	}
	return true, nil
}

func (s *RedisStore) Revoke(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, tokenKey(userID)).Err(); err != nil {
		return fmt.Errorf("%w: revoke token: %s", sentinel.ErrUnavailable, err)
	}
	return nil
}
