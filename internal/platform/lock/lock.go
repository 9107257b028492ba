package lock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker is a best-effort distributed mutex for periodic background work.
// TryAcquire never blocks: a false return means another instance holds the
// lock and the caller should skip this round entirely.
type Locker interface {
	TryAcquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// RedisLocker implements Locker with SET NX + TTL. The TTL must be shorter
// than the caller's tick interval so a crashed holder cannot stall peers for
// more than one round.
type RedisLocker struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	holder string
}

func NewRedisLocker(client *redis.Client, key string, ttl time.Duration) *RedisLocker {
	return &RedisLocker{
		client: client,
		key:    key,
		ttl:    ttl,
		holder: uuid.NewString(),
	}
}

func (l *RedisLocker) TryAcquire(ctx context.Context) (bool, error) {
	return l.client.SetNX(ctx, l.key, l.holder, l.ttl).Result()
}

// releaseScript deletes the lock only if this instance still holds it, so a
// slow tick cannot release a lock that already expired and was re-acquired.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

func (l *RedisLocker) Release(ctx context.Context) error {
	return releaseScript.Run(ctx, l.client, []string{l.key}, l.holder).Err()
}

// NoopLocker always acquires. Used for single-instance deployments and tests.
type NoopLocker struct{}

func (NoopLocker) TryAcquire(ctx context.Context) (bool, error) { return true, nil }
func (NoopLocker) Release(ctx context.Context) error            { return nil }
