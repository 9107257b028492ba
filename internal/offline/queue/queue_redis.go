package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"deskvault/pkg/sentinel"
)

const offlineDocsKey = "offline_docs"

// RedisQueue is the production Queue: a Redis list survives process restarts,
// so buffered writes outlive the instance that accepted them.
type RedisQueue struct {
	client *redis.Client
	key    string
}

// NewRedis constructs a Redis-backed offline queue.
func NewRedis(client *redis.Client) *RedisQueue {
	return &RedisQueue{client: client, key: offlineDocsKey}
}

func (q *RedisQueue) Push(ctx context.Context, rec Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode offline record: %w", err)
	}
	if err := q.client.RPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("%w: push offline record: %s", sentinel.ErrUnavailable, err)
	}
	return nil
}

func (q *RedisQueue) PeekRange(ctx context.Context, n int) ([]Record, error) {
	if n <= 0 {
		return nil, nil
	}
	items, err := q.client.LRange(ctx, q.key, 0, int64(n)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: peek offline records: %s", sentinel.ErrUnavailable, err)
	}

	records := make([]Record, 0, len(items))
	for _, item := range items {
		var rec Record
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, fmt.Errorf("decode offline record: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (q *RedisQueue) PopCount(ctx context.Context, n int) error {
	if n <= 0 {
		return nil
	}
	if err := q.client.LPopCount(ctx, q.key, n).Err(); err != nil {
		return fmt.Errorf("%w: pop offline records: %s", sentinel.ErrUnavailable, err)
	}
	return nil
}

func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	n, err := q.client.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: offline queue length: %s", sentinel.ErrUnavailable, err)
	}
	return n, nil
}
