package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"deskvault/internal/document/models"
	"deskvault/internal/document/store"
	"deskvault/internal/offline/metrics"
	"deskvault/internal/offline/queue"
	dErrors "deskvault/pkg/domain-errors"
	"deskvault/pkg/sentinel"
)

// PrivacyGate is the slice of the privacy service the document service needs:
// token verification plus content encryption for privacy-space documents.
type PrivacyGate interface {
	Check(ctx context.Context, userID int64, tok string) (bool, error)
	ReadProtected(ctx context.Context, userID int64, tok, passphrase, blob string) (string, error)
	WriteProtected(ctx context.Context, userID int64, tok, passphrase, plaintext string) (string, error)
}

// Service implements document CRUD. Privacy-space documents pass through the
// gate on every read and write; non-privacy creates fall back to the offline
// buffer when the primary store is unreachable.
type Service struct {
	store   store.Store
	queue   queue.Queue
	gate    PrivacyGate
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func New(st store.Store, q queue.Queue, gate PrivacyGate, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		store:   st,
		queue:   q,
		gate:    gate,
		metrics: m,
		logger:  logger,
	}
}

// Create stores a new document. Privacy-space documents are encrypted before
// they touch storage and are never buffered: parking ciphertext keyed by a
// passphrase the reconciler does not have would strand it. Plain documents
// divert to the offline queue when the store is down.
func (s *Service) Create(ctx context.Context, ownerID int64, privacyToken string, req models.CreateRequest) (*models.CreateResult, error) {
	doc := &models.Document{
		Title:          req.Title,
		Content:        req.Content,
		OwnerID:        ownerID,
		FolderID:       req.FolderID,
		IsPinned:       req.IsPinned,
		InPrivacySpace: req.InPrivacySpace,
	}

	if req.InPrivacySpace {
		if req.PrivacyPassword == "" {
			return nil, dErrors.New(dErrors.CodeBadRequest, "privacy passphrase is required")
		}
		var err error
		if doc.Title, err = s.gate.WriteProtected(ctx, ownerID, privacyToken, req.PrivacyPassword, req.Title); err != nil {
			return nil, err
		}
		if doc.Content, err = s.gate.WriteProtected(ctx, ownerID, privacyToken, req.PrivacyPassword, req.Content); err != nil {
			return nil, err
		}
	}

	if err := s.store.Ping(ctx); err != nil {
		if req.InPrivacySpace {
			return nil, translateStoreErr(err)
		}
		return s.bufferCreate(ctx, ownerID, req)
	}

	if err := s.store.Create(ctx, doc); err != nil {
		if errors.Is(err, sentinel.ErrUnavailable) && !req.InPrivacySpace {
			return s.bufferCreate(ctx, ownerID, req)
		}
		return nil, translateStoreErr(err)
	}

	return &models.CreateResult{ID: doc.ID, Outcome: models.OutcomeDirect}, nil
}

func (s *Service) bufferCreate(ctx context.Context, ownerID int64, req models.CreateRequest) (*models.CreateResult, error) {
	rec := queue.Record{
		ID:         uuid.NewString(),
		Title:      req.Title,
		Content:    req.Content,
		OwnerID:    ownerID,
		EnqueuedAt: time.Now().UTC(),
	}
	if err := s.queue.Push(ctx, rec); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeUnavailable, "document could not be stored or buffered", err)
	}
	s.metrics.BufferedWrites.Inc()
	s.logger.WarnContext(ctx, "primary store unreachable, document buffered",
		"owner_id", ownerID,
		"sync_id", rec.ID,
	)
	return &models.CreateResult{Outcome: models.OutcomeBuffered}, nil
}

// Get returns one document. Privacy-space documents require a live access
// token and the passphrase; the content is returned decrypted.
func (s *Service) Get(ctx context.Context, ownerID, id int64, privacyToken, passphrase string) (*models.Document, error) {
	doc, err := s.fetchOwned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if doc.InPrivacySpace {
		if err := s.requireGate(ctx, ownerID, privacyToken); err != nil {
			return nil, err
		}
		if passphrase == "" {
			return nil, dErrors.New(dErrors.CodeBadRequest, "privacy passphrase is required")
		}
		if err := s.decryptDocument(ctx, ownerID, privacyToken, passphrase, doc); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// List returns the owner's documents for the given filter. The privacy filter
// requires a live access token; with a passphrase each document is decrypted
// best-effort, leaving undecryptable ones as stored rather than failing the
// whole listing.
func (s *Service) List(ctx context.Context, ownerID int64, filter models.ListFilter, privacyToken, passphrase string) ([]*models.Document, error) {
	if filter == models.FilterPrivacy {
		if err := s.requireGate(ctx, ownerID, privacyToken); err != nil {
			return nil, err
		}
	}

	docs, err := s.store.ListByOwner(ctx, ownerID, filter)
	if err != nil {
		return nil, translateStoreErr(err)
	}

	if filter == models.FilterPrivacy && passphrase != "" {
		for _, doc := range docs {
			if err := s.decryptDocument(ctx, ownerID, privacyToken, passphrase, doc); err != nil {
				if dErrors.HasCode(err, dErrors.CodeDecryptionFailed) {
					continue
				}
				return nil, err
			}
		}
	}
	return docs, nil
}

// Update applies a partial update. Privacy-space title/content changes are
// re-encrypted under the supplied passphrase.
func (s *Service) Update(ctx context.Context, ownerID, id int64, privacyToken string, req models.UpdateRequest) (*models.Document, error) {
	doc, err := s.fetchOwned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if doc.InPrivacySpace {
		// Every write to a privacy-space document needs a live token, even
		// a metadata-only change like pinning.
		if err := s.requireGate(ctx, ownerID, privacyToken); err != nil {
			return nil, err
		}
		if req.Title != nil || req.Content != nil {
			if req.PrivacyPassword == "" {
				return nil, dErrors.New(dErrors.CodeBadRequest, "privacy passphrase is required")
			}
			if req.Title != nil {
				sealed, err := s.gate.WriteProtected(ctx, ownerID, privacyToken, req.PrivacyPassword, *req.Title)
				if err != nil {
					return nil, err
				}
				req.Title = &sealed
			}
			if req.Content != nil {
				sealed, err := s.gate.WriteProtected(ctx, ownerID, privacyToken, req.PrivacyPassword, *req.Content)
				if err != nil {
					return nil, err
				}
				req.Content = &sealed
			}
		}
	}

	if req.Title != nil {
		doc.Title = *req.Title
	}
	if req.Content != nil {
		doc.Content = *req.Content
	}
	if req.FolderID != nil {
		doc.FolderID = req.FolderID
	}
	if req.IsPinned != nil {
		doc.IsPinned = *req.IsPinned
	}

	if err := s.store.Update(ctx, doc); err != nil {
		return nil, translateStoreErr(err)
	}
	return doc, nil
}

// Delete moves a document to the recycle bin.
func (s *Service) Delete(ctx context.Context, ownerID, id int64) error {
	if _, err := s.fetchOwned(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.store.SoftDelete(ctx, id, time.Now().UTC()); err != nil {
		return translateStoreErr(err)
	}
	return nil
}

// Restore brings a document back from the recycle bin. Idempotent.
func (s *Service) Restore(ctx context.Context, ownerID, id int64) error {
	if _, err := s.fetchOwned(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.store.Restore(ctx, id); err != nil {
		return translateStoreErr(err)
	}
	return nil
}

func (s *Service) fetchOwned(ctx context.Context, ownerID, id int64) (*models.Document, error) {
	doc, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	if doc.OwnerID != ownerID {
		// Existence of someone else's document is not disclosed.
		return nil, dErrors.New(dErrors.CodeNotFound, "document not found")
	}
	return doc, nil
}

func (s *Service) requireGate(ctx context.Context, ownerID int64, privacyToken string) error {
	ok, err := s.gate.Check(ctx, ownerID, privacyToken)
	if err != nil {
		return err
	}
	if !ok {
		return dErrors.New(dErrors.CodeUnauthorized, "privacy access token invalid or expired")
	}
	return nil
}

func (s *Service) decryptDocument(ctx context.Context, ownerID int64, privacyToken, passphrase string, doc *models.Document) error {
	title, err := s.gate.ReadProtected(ctx, ownerID, privacyToken, passphrase, doc.Title)
	if err != nil {
		return err
	}
	content, err := s.gate.ReadProtected(ctx, ownerID, privacyToken, passphrase, doc.Content)
	if err != nil {
		return err
	}
	doc.Title = title
	doc.Content = content
	return nil
}

func translateStoreErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(dErrors.CodeNotFound, "document not found", err)
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(dErrors.CodeUnavailable, "document store unavailable", err)
	default:
		return err
	}
}
