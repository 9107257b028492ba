package store

import (
	"context"
	"time"

	"deskvault/internal/document/models"
)

// Store is the primary document store. The write paths in the service layer
// and the reconciler both talk to it through this interface so the offline
// buffer can be exercised against a fake.
type Store interface {
	// Ping is the trivial liveness probe used to decide between a direct
	// write and the offline buffer.
	Ping(ctx context.Context) error

	Create(ctx context.Context, doc *models.Document) error

	// CreateBatch inserts docs in a single transaction, skipping rows whose
	// sync_id already exists. Returns the number actually inserted. A
	// partial failure rolls the whole batch back.
	CreateBatch(ctx context.Context, docs []*models.Document) (int, error)

	Get(ctx context.Context, id int64) (*models.Document, error)
	ListByOwner(ctx context.Context, ownerID int64, filter models.ListFilter) ([]*models.Document, error)
	Update(ctx context.Context, doc *models.Document) error
	SoftDelete(ctx context.Context, id int64, at time.Time) error
	Restore(ctx context.Context, id int64) error
}
