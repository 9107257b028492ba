package queue

import (
	"context"
	"time"
)

// Record is a document write parked while the primary store was unreachable.
// Records are never mutated in place; they are consumed from the head of the
// queue only after the matching rows are durably committed.
type Record struct {
	// ID is the idempotency key carried into the documents table as
	// sync_id, so a batch retried after a partial failure cannot
	// double-insert.
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	OwnerID    int64     `json:"owner_id"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// Queue is the durable FIFO buffer for offline document writes.
type Queue interface {
	// Push appends a record to the tail.
	Push(ctx context.Context, rec Record) error

	// PeekRange returns up to n records from the head without removing them.
	PeekRange(ctx context.Context, n int) ([]Record, error)

	// PopCount removes exactly n records from the head.
	PopCount(ctx context.Context, n int) error

	// Len returns the number of queued records.
	Len(ctx context.Context) (int64, error)
}
