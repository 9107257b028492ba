package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"deskvault/internal/document/models"
	"deskvault/pkg/sentinel"
)

// InMemoryStore implements Store with a map. Tests flip SetDown to simulate
// an unreachable primary store without a real database.
type InMemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	docs   map[int64]*models.Document
	down   bool

	// failNextBatch makes the next CreateBatch fail after the store has
	// already seen the batch, modeling a mid-transaction failure.
	failNextBatch bool
}

// NewInMemory creates an empty in-memory document store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{nextID: 1, docs: make(map[int64]*models.Document)}
}

// SetDown toggles simulated unavailability.
func (s *InMemoryStore) SetDown(down bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.down = down
}

// FailNextBatch makes the next CreateBatch roll back with an error.
func (s *InMemoryStore) FailNextBatch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNextBatch = true
}

func (s *InMemoryStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.down {
		return fmt.Errorf("%w: store is down", sentinel.ErrUnavailable)
	}
	return nil
}

func (s *InMemoryStore) Create(ctx context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return fmt.Errorf("%w: store is down", sentinel.ErrUnavailable)
	}

	now := time.Now().UTC()
	doc.ID = s.nextID
	s.nextID++
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	copied := *doc
	s.docs[doc.ID] = &copied
	return nil
}

func (s *InMemoryStore) CreateBatch(ctx context.Context, docs []*models.Document) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return 0, fmt.Errorf("%w: store is down", sentinel.ErrUnavailable)
	}
	if s.failNextBatch {
		s.failNextBatch = false
		return 0, fmt.Errorf("simulated batch failure")
	}

	existing := make(map[string]bool)
	for _, doc := range s.docs {
		if doc.SyncID != nil {
			existing[*doc.SyncID] = true
		}
	}

	now := time.Now().UTC()
	inserted := 0
	for _, doc := range docs {
		if doc.SyncID != nil && existing[*doc.SyncID] {
			continue
		}
		copied := *doc
		copied.ID = s.nextID
		s.nextID++
		if copied.CreatedAt.IsZero() {
			copied.CreatedAt = now
		}
		copied.UpdatedAt = now
		s.docs[copied.ID] = &copied
		if copied.SyncID != nil {
			existing[*copied.SyncID] = true
		}
		inserted++
	}
	return inserted, nil
}

func (s *InMemoryStore) Get(ctx context.Context, id int64) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.down {
		return nil, fmt.Errorf("%w: store is down", sentinel.ErrUnavailable)
	}
	doc, ok := s.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: document %d", sentinel.ErrNotFound, id)
	}
	copied := *doc
	return &copied, nil
}

func (s *InMemoryStore) ListByOwner(ctx context.Context, ownerID int64, filter models.ListFilter) ([]*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.down {
		return nil, fmt.Errorf("%w: store is down", sentinel.ErrUnavailable)
	}

	var docs []*models.Document
	for _, doc := range s.docs {
		if doc.OwnerID != ownerID {
			continue
		}
		switch filter {
		case models.FilterRecycleBin:
			if !doc.IsDeleted {
				continue
			}
		case models.FilterPrivacy:
			if doc.IsDeleted || !doc.InPrivacySpace {
				continue
			}
		default:
			if doc.IsDeleted || doc.InPrivacySpace {
				continue
			}
		}
		copied := *doc
		docs = append(docs, &copied)
	}
	// Insertion-ordered enough for tests: sort by ID.
	for i := 0; i < len(docs); i++ {
		for j := i + 1; j < len(docs); j++ {
			if docs[j].ID < docs[i].ID {
				docs[i], docs[j] = docs[j], docs[i]
			}
		}
	}
	return docs, nil
}

func (s *InMemoryStore) Update(ctx context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return fmt.Errorf("%w: store is down", sentinel.ErrUnavailable)
	}
	stored, ok := s.docs[doc.ID]
	if !ok {
		return fmt.Errorf("%w: document %d", sentinel.ErrNotFound, doc.ID)
	}
	doc.UpdatedAt = time.Now().UTC()
	stored.Title = doc.Title
	stored.Content = doc.Content
	stored.FolderID = doc.FolderID
	stored.IsPinned = doc.IsPinned
	stored.UpdatedAt = doc.UpdatedAt
	return nil
}

func (s *InMemoryStore) SoftDelete(ctx context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return fmt.Errorf("%w: document %d", sentinel.ErrNotFound, id)
	}
	doc.IsDeleted = true
	t := at.UTC()
	doc.DeletedAt = &t
	return nil
}

func (s *InMemoryStore) Restore(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return fmt.Errorf("%w: document %d", sentinel.ErrNotFound, id)
	}
	doc.IsDeleted = false
	doc.DeletedAt = nil
	return nil
}
