package queue

import (
	"context"
	"sync"
)

// InMemoryQueue mirrors RedisQueue semantics for unit tests.
type InMemoryQueue struct {
	mu      sync.Mutex
	records []Record
}

// NewInMemory creates an empty in-memory queue.
func NewInMemory() *InMemoryQueue {
	return &InMemoryQueue{}
}

func (q *InMemoryQueue) Push(ctx context.Context, rec Record) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.records = append(q.records, rec)
	return nil
}

func (q *InMemoryQueue) PeekRange(ctx context.Context, n int) ([]Record, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if n <= 0 {
		return nil, nil
	}
	if n > len(q.records) {
		n = len(q.records)
	}
	out := make([]Record, n)
	copy(out, q.records[:n])
	return out, nil
}

func (q *InMemoryQueue) PopCount(ctx context.Context, n int) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if n <= 0 {
		return nil
	}
	if n > len(q.records) {
		n = len(q.records)
	}
	q.records = q.records[n:]
	return nil
}

func (q *InMemoryQueue) Len(ctx context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.records)), nil
}
