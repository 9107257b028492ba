package service_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"deskvault/internal/document/models"
	docService "deskvault/internal/document/service"
	docStore "deskvault/internal/document/store"
	offlineMetrics "deskvault/internal/offline/metrics"
	"deskvault/internal/offline/queue"
	privMetrics "deskvault/internal/privacy/metrics"
	privService "deskvault/internal/privacy/service"
	privStore "deskvault/internal/privacy/store"
	"deskvault/internal/privacy/token"
	dErrors "deskvault/pkg/domain-errors"
)

// promauto registers into the default registry once per test binary.
var (
	sharedOfflineMetrics = offlineMetrics.New()
	sharedPrivacyMetrics = privMetrics.New()
)

const (
	ownerID    int64 = 11
	strangerID int64 = 22
	passphrase       = "hunter22"
)

type DocumentServiceSuite struct {
	suite.Suite
	ctx     context.Context
	store   *docStore.InMemoryStore
	queue   *queue.InMemoryQueue
	privacy *privService.Service
	svc     *docService.Service
}

func TestDocumentServiceSuite(t *testing.T) {
	suite.Run(t, new(DocumentServiceSuite))
}

func (s *DocumentServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = docStore.NewInMemory()
	s.queue = queue.NewInMemory()

	s.privacy = privService.New(
		privStore.NewInMemory(),
		token.NewInMemory(time.Minute),
		sharedPrivacyMetrics,
		time.Minute,
	)
	s.Require().NoError(s.privacy.SetPassphrase(s.ctx, ownerID, passphrase, ""))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.svc = docService.New(s.store, s.queue, s.privacy, sharedOfflineMetrics, logger)
}

// enterPrivacySpace verifies the passphrase and returns a live access token.
func (s *DocumentServiceSuite) enterPrivacySpace() string {
	res, err := s.privacy.Enter(s.ctx, ownerID, passphrase)
	s.Require().NoError(err)
	return res.Token
}

func (s *DocumentServiceSuite) TestCreateAndGet() {
	res, err := s.svc.Create(s.ctx, ownerID, "", models.CreateRequest{
		Title:   "meeting notes",
		Content: "agenda items",
	})
	s.Require().NoError(err)
	s.Equal(models.OutcomeDirect, res.Outcome)
	s.NotZero(res.ID)

	doc, err := s.svc.Get(s.ctx, ownerID, res.ID, "", "")
	s.Require().NoError(err)
	s.Equal("meeting notes", doc.Title)
	s.Equal("agenda items", doc.Content)
	s.False(doc.InPrivacySpace)
}

func (s *DocumentServiceSuite) TestCreateBuffersWhenStoreDown() {
	s.store.SetDown(true)

	res, err := s.svc.Create(s.ctx, ownerID, "", models.CreateRequest{
		Title:   "offline note",
		Content: "written while db was down",
	})
	s.Require().NoError(err)
	s.Equal(models.OutcomeBuffered, res.Outcome)
	s.Zero(res.ID)

	queued, err := s.queue.Len(s.ctx)
	s.Require().NoError(err)
	s.EqualValues(1, queued)

	recs, err := s.queue.PeekRange(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(recs, 1)
	s.Equal("offline note", recs[0].Title)
	s.Equal(ownerID, recs[0].OwnerID)
	s.NotEmpty(recs[0].ID)
}

func (s *DocumentServiceSuite) TestPrivacyCreateNeverBuffers() {
	tok := s.enterPrivacySpace()
	s.store.SetDown(true)

	_, err := s.svc.Create(s.ctx, ownerID, tok, models.CreateRequest{
		Title:           "secret",
		Content:         "secret body",
		InPrivacySpace:  true,
		PrivacyPassword: passphrase,
	})
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))

	queued, qErr := s.queue.Len(s.ctx)
	s.Require().NoError(qErr)
	s.Zero(queued)
}

func (s *DocumentServiceSuite) TestPrivacyCreateRequiresTokenAndPassphrase() {
	_, err := s.svc.Create(s.ctx, ownerID, "", models.CreateRequest{
		Title:          "secret",
		Content:        "body",
		InPrivacySpace: true,
	})
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))

	_, err = s.svc.Create(s.ctx, ownerID, "no-such-token", models.CreateRequest{
		Title:           "secret",
		Content:         "body",
		InPrivacySpace:  true,
		PrivacyPassword: passphrase,
	})
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *DocumentServiceSuite) TestPrivacyRoundTrip() {
	tok := s.enterPrivacySpace()

	res, err := s.svc.Create(s.ctx, ownerID, tok, models.CreateRequest{
		Title:           "secret title",
		Content:         "secret content",
		InPrivacySpace:  true,
		PrivacyPassword: passphrase,
	})
	s.Require().NoError(err)

	// The stored row must hold ciphertext, not plaintext.
	raw, err := s.store.Get(s.ctx, res.ID)
	s.Require().NoError(err)
	s.NotEqual("secret title", raw.Title)
	s.NotEqual("secret content", raw.Content)

	// With the passphrase the document comes back decrypted.
	doc, err := s.svc.Get(s.ctx, ownerID, res.ID, tok, passphrase)
	s.Require().NoError(err)
	s.Equal("secret title", doc.Title)
	s.Equal("secret content", doc.Content)

	// Without it the read is rejected; ciphertext is never handed back from
	// a single-document read.
	_, err = s.svc.Get(s.ctx, ownerID, res.ID, tok, "")
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))

	// A wrong passphrase is a decryption failure, not an auth failure.
	_, err = s.svc.Get(s.ctx, ownerID, res.ID, tok, "not-the-passphrase")
	s.True(dErrors.HasCode(err, dErrors.CodeDecryptionFailed))

	// Without a live token the document is unreachable either way.
	_, err = s.svc.Get(s.ctx, ownerID, res.ID, "", passphrase)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *DocumentServiceSuite) TestOwnerIsolation() {
	res, err := s.svc.Create(s.ctx, ownerID, "", models.CreateRequest{Title: "mine", Content: "x"})
	s.Require().NoError(err)

	_, err = s.svc.Get(s.ctx, strangerID, res.ID, "", "")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	err = s.svc.Delete(s.ctx, strangerID, res.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *DocumentServiceSuite) TestUpdateAppliesOnlyProvidedFields() {
	res, err := s.svc.Create(s.ctx, ownerID, "", models.CreateRequest{Title: "draft", Content: "v1"})
	s.Require().NoError(err)

	content := "v2"
	pinned := true
	doc, err := s.svc.Update(s.ctx, ownerID, res.ID, "", models.UpdateRequest{
		Content:  &content,
		IsPinned: &pinned,
	})
	s.Require().NoError(err)
	s.Equal("draft", doc.Title)
	s.Equal("v2", doc.Content)
	s.True(doc.IsPinned)
}

func (s *DocumentServiceSuite) TestPrivacyUpdateReencrypts() {
	tok := s.enterPrivacySpace()

	res, err := s.svc.Create(s.ctx, ownerID, tok, models.CreateRequest{
		Title:           "secret",
		Content:         "v1",
		InPrivacySpace:  true,
		PrivacyPassword: passphrase,
	})
	s.Require().NoError(err)

	content := "v2"
	_, err = s.svc.Update(s.ctx, ownerID, res.ID, tok, models.UpdateRequest{Content: &content})
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest), "content change without passphrase must be rejected")

	_, err = s.svc.Update(s.ctx, ownerID, res.ID, tok, models.UpdateRequest{
		Content:         &content,
		PrivacyPassword: passphrase,
	})
	s.Require().NoError(err)

	doc, err := s.svc.Get(s.ctx, ownerID, res.ID, tok, passphrase)
	s.Require().NoError(err)
	s.Equal("v2", doc.Content)

	raw, err := s.store.Get(s.ctx, res.ID)
	s.Require().NoError(err)
	s.NotEqual("v2", raw.Content)
}

func (s *DocumentServiceSuite) TestPrivacyMetadataUpdateRequiresToken() {
	tok := s.enterPrivacySpace()

	res, err := s.svc.Create(s.ctx, ownerID, tok, models.CreateRequest{
		Title:           "secret",
		Content:         "body",
		InPrivacySpace:  true,
		PrivacyPassword: passphrase,
	})
	s.Require().NoError(err)

	// A pin flip touches no content but still writes a privacy document;
	// without a live token it must be rejected.
	pinned := true
	_, err = s.svc.Update(s.ctx, ownerID, res.ID, "", models.UpdateRequest{IsPinned: &pinned})
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	raw, err := s.store.Get(s.ctx, res.ID)
	s.Require().NoError(err)
	s.False(raw.IsPinned)

	// With the token the same change goes through, no passphrase needed.
	_, err = s.svc.Update(s.ctx, ownerID, res.ID, tok, models.UpdateRequest{IsPinned: &pinned})
	s.Require().NoError(err)

	raw, err = s.store.Get(s.ctx, res.ID)
	s.Require().NoError(err)
	s.True(raw.IsPinned)
}

func (s *DocumentServiceSuite) TestRecycleBinLifecycle() {
	res, err := s.svc.Create(s.ctx, ownerID, "", models.CreateRequest{Title: "doomed", Content: "x"})
	s.Require().NoError(err)

	s.Require().NoError(s.svc.Delete(s.ctx, ownerID, res.ID))

	active, err := s.svc.List(s.ctx, ownerID, models.FilterActive, "", "")
	s.Require().NoError(err)
	s.Empty(active)

	binned, err := s.svc.List(s.ctx, ownerID, models.FilterRecycleBin, "", "")
	s.Require().NoError(err)
	s.Require().Len(binned, 1)
	s.True(binned[0].IsDeleted)
	s.NotNil(binned[0].DeletedAt)

	s.Require().NoError(s.svc.Restore(s.ctx, ownerID, res.ID))

	active, err = s.svc.List(s.ctx, ownerID, models.FilterActive, "", "")
	s.Require().NoError(err)
	s.Len(active, 1)
}

func (s *DocumentServiceSuite) TestPrivacyListRequiresToken() {
	_, err := s.svc.List(s.ctx, ownerID, models.FilterPrivacy, "stale", "")
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *DocumentServiceSuite) TestPrivacyListDecryptsBestEffort() {
	tok := s.enterPrivacySpace()

	_, err := s.svc.Create(s.ctx, ownerID, tok, models.CreateRequest{
		Title:           "readable",
		Content:         "readable body",
		InPrivacySpace:  true,
		PrivacyPassword: passphrase,
	})
	s.Require().NoError(err)

	// A row encrypted under a different key, as after a passphrase rotation
	// that predates this document's re-encryption.
	foreign := &models.Document{
		Title:          "AAAA",
		Content:        "BBBB",
		OwnerID:        ownerID,
		InPrivacySpace: true,
	}
	s.Require().NoError(s.store.Create(s.ctx, foreign))

	docs, err := s.svc.List(s.ctx, ownerID, models.FilterPrivacy, tok, passphrase)
	s.Require().NoError(err)
	s.Require().Len(docs, 2)

	byTitle := map[string]*models.Document{}
	for _, d := range docs {
		byTitle[d.Title] = d
	}
	s.Contains(byTitle, "readable")
	s.Equal("readable body", byTitle["readable"].Content)
	s.Contains(byTitle, "AAAA", "undecryptable rows stay encrypted instead of failing the listing")
}
