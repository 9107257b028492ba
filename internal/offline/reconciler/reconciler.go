package reconciler

import (
	"context"
	"log/slog"
	"time"

	documentModel "deskvault/internal/document/models"
	"deskvault/internal/offline/metrics"
	"deskvault/internal/offline/queue"
	"deskvault/internal/platform/lock"
)

// DefaultInterval is the default drain cadence.
const DefaultInterval = 10 * time.Second

// DefaultBatchSize bounds how many records one tick moves.
const DefaultBatchSize = 10

// PrimaryStore is the slice of the document store the reconciler needs.
type PrimaryStore interface {
	Ping(ctx context.Context) error
	CreateBatch(ctx context.Context, docs []*documentModel.Document) (int, error)
}

// Reconciler drains the offline write buffer into the primary store. It is a
// best-effort background process: every tick is independent, errors are
// logged and swallowed, and cancellation of the run context is the only way
// it stops. Records are removed from the queue only after their batch
// commits, so a crash mid-tick re-applies the batch rather than losing it;
// the sync_id idempotency key keeps the retry from double-inserting.
type Reconciler struct {
	store     PrimaryStore
	queue     queue.Queue
	locker    lock.Locker
	metrics   *metrics.Metrics
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithInterval overrides the tick interval.
func WithInterval(d time.Duration) Option {
	return func(r *Reconciler) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithBatchSize overrides the per-tick batch bound.
func WithBatchSize(n int) Option {
	return func(r *Reconciler) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func New(store PrimaryStore, q queue.Queue, locker lock.Locker, m *metrics.Metrics, logger *slog.Logger, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:     store,
		queue:     q,
		locker:    locker,
		metrics:   m,
		logger:    logger,
		interval:  DefaultInterval,
		batchSize: DefaultBatchSize,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Run loops until ctx is cancelled. It never returns early on tick errors.
func (r *Reconciler) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "offline reconciler started",
		"interval", r.interval.String(),
		"batch_size", r.batchSize,
	)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "offline reconciler stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := r.Tick(ctx); err != nil {
				r.metrics.TickErrors.Inc()
				r.logger.WarnContext(ctx, "reconcile tick failed", "error", err.Error())
			}
		}
	}
}

// Tick performs one reconciliation round. Exported so tests can drive the
// loop deterministically.
func (r *Reconciler) Tick(ctx context.Context) error {
	start := time.Now()
	defer func() {
		r.metrics.TickDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	// Another instance reconciling this tick is success, not failure.
	acquired, err := r.locker.TryAcquire(ctx)
	if err != nil {
		return err
	}
	if !acquired {
		return nil
	}
	defer func() { _ = r.locker.Release(ctx) }()

	if err := r.store.Ping(ctx); err != nil {
		return err
	}

	records, err := r.queue.PeekRange(ctx, r.batchSize)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	docs := make([]*documentModel.Document, 0, len(records))
	for _, rec := range records {
		docs = append(docs, recordToDocument(rec))
	}

	inserted, err := r.store.CreateBatch(ctx, docs)
	if err != nil {
		// The whole batch rolled back; leave the queue untouched so the
		// next tick retries it.
		return err
	}

	if err := r.queue.PopCount(ctx, len(records)); err != nil {
		// Rows are committed but the queue still holds the batch. The next
		// tick retries and the sync_id conflict turns it into a no-op.
		return err
	}

	r.metrics.ReconciledDocuments.Add(float64(inserted))
	r.metrics.DuplicatesSkipped.Add(float64(len(records) - inserted))
	r.logger.InfoContext(ctx, "reconciled offline documents",
		"drained", len(records),
		"inserted", inserted,
	)
	return nil
}

func recordToDocument(rec queue.Record) *documentModel.Document {
	syncID := rec.ID
	return &documentModel.Document{
		Title:     rec.Title,
		Content:   rec.Content,
		OwnerID:   rec.OwnerID,
		SyncID:    &syncID,
		CreatedAt: rec.EnqueuedAt,
	}
}
