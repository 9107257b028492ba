package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"deskvault/internal/document/handler"
	"deskvault/internal/document/models"
	docService "deskvault/internal/document/service"
	docStore "deskvault/internal/document/store"
	jwttoken "deskvault/internal/jwt_token"
	offlineMetrics "deskvault/internal/offline/metrics"
	"deskvault/internal/offline/queue"
	privMetrics "deskvault/internal/privacy/metrics"
	privService "deskvault/internal/privacy/service"
	privStore "deskvault/internal/privacy/store"
	"deskvault/internal/privacy/token"
)

var (
	sharedOfflineMetrics = offlineMetrics.New()
	sharedPrivacyMetrics = privMetrics.New()
)

const passphrase = "correct-horse"

type HandlerSuite struct {
	suite.Suite
	router     chi.Router
	store      *docStore.InMemoryStore
	queue      *queue.InMemoryQueue
	privacy    *privService.Service
	authHeader string
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.store = docStore.NewInMemory()
	s.queue = queue.NewInMemory()
	s.privacy = privService.New(privStore.NewInMemory(), token.NewInMemory(token.DefaultTTL), sharedPrivacyMetrics, token.DefaultTTL)

	svc := docService.New(s.store, s.queue, s.privacy, sharedOfflineMetrics, logger)

	jwtService := jwttoken.NewJWTService("test-signing-key", "deskvault-test")
	h := handler.New(svc, logger, jwttoken.NewJWTServiceAdapter(jwtService))

	s.router = chi.NewRouter()
	h.Register(s.router)

	accessToken, err := jwtService.GenerateAccessToken(1, time.Hour)
	require.NoError(s.T(), err)
	s.authHeader = "Bearer " + accessToken
}

func (s *HandlerSuite) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	s.T().Helper()

	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", s.authHeader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) decode(rec *httptest.ResponseRecorder, v any) {
	s.T().Helper()
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), v))
}

func (s *HandlerSuite) createDocument(title, content string) int64 {
	s.T().Helper()
	rec := s.do(http.MethodPost, "/api/documents", map[string]string{
		"title":   title,
		"content": content,
	}, nil)
	s.Require().Equal(http.StatusCreated, rec.Code)

	var res models.CreateResult
	s.decode(rec, &res)
	return res.ID
}

// enterPrivacySpace sets the passphrase and returns a live access token,
// as the verify-password endpoint would.
func (s *HandlerSuite) enterPrivacySpace() string {
	s.T().Helper()
	s.Require().NoError(s.privacy.SetPassphrase(context.Background(), 1, passphrase, ""))
	res, err := s.privacy.Enter(context.Background(), 1, passphrase)
	s.Require().NoError(err)
	return res.Token
}

func (s *HandlerSuite) TestRequiresJWT() {
	req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *HandlerSuite) TestCreateListGet() {
	id := s.createDocument("roadmap", "q3 items")

	rec := s.do(http.MethodGet, "/api/documents", nil, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var docs []models.Document
	s.decode(rec, &docs)
	s.Require().Len(docs, 1)
	s.Equal("roadmap", docs[0].Title)

	rec = s.do(http.MethodGet, fmt.Sprintf("/api/documents/%d", id), nil, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var doc models.Document
	s.decode(rec, &doc)
	s.Equal("q3 items", doc.Content)
}

func (s *HandlerSuite) TestCreateValidation() {
	rec := s.do(http.MethodPost, "/api/documents", map[string]string{"content": "no title"}, nil)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestBufferedCreateReturns202() {
	s.store.SetDown(true)

	rec := s.do(http.MethodPost, "/api/documents", map[string]string{
		"title":   "offline",
		"content": "x",
	}, nil)
	s.Require().Equal(http.StatusAccepted, rec.Code)

	var res models.CreateResult
	s.decode(rec, &res)
	s.Equal(models.OutcomeBuffered, res.Outcome)
	s.Zero(res.ID)

	queued, err := s.queue.Len(context.Background())
	s.Require().NoError(err)
	s.EqualValues(1, queued)
}

func (s *HandlerSuite) TestUpdateAndRecycleBin() {
	id := s.createDocument("draft", "v1")

	rec := s.do(http.MethodPut, fmt.Sprintf("/api/documents/%d", id), map[string]string{"content": "v2"}, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var doc models.Document
	s.decode(rec, &doc)
	s.Equal("v2", doc.Content)

	rec = s.do(http.MethodDelete, fmt.Sprintf("/api/documents/%d", id), nil, nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/documents?recycle_bin=1", nil, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var docs []models.Document
	s.decode(rec, &docs)
	s.Require().Len(docs, 1)

	rec = s.do(http.MethodPost, fmt.Sprintf("/api/documents/%d/restore", id), nil, nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/documents", nil, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.decode(rec, &docs)
	s.Len(docs, 1)
}

func (s *HandlerSuite) TestPrivacyDocumentFlow() {
	tok := s.enterPrivacySpace()

	rec := s.do(http.MethodPost, "/api/documents", map[string]any{
		"title":             "secret",
		"content":           "secret body",
		"in_privacy_space":  true,
		"_privacy_password": passphrase,
	}, map[string]string{"X-Privacy-Token": tok})
	s.Require().Equal(http.StatusCreated, rec.Code)

	var res models.CreateResult
	s.decode(rec, &res)

	// Privacy listing without a token is rejected.
	rec = s.do(http.MethodGet, "/api/documents?privacy_space=1", nil, nil)
	s.Equal(http.StatusUnauthorized, rec.Code)

	// With the token but no passphrase the content stays encrypted.
	rec = s.do(http.MethodGet, "/api/documents?privacy_space=1", nil,
		map[string]string{"X-Privacy-Token": tok})
	s.Require().Equal(http.StatusOK, rec.Code)
	var docs []models.Document
	s.decode(rec, &docs)
	s.Require().Len(docs, 1)
	s.NotEqual("secret", docs[0].Title)

	// With token and passphrase the plaintext comes back.
	rec = s.do(http.MethodGet, "/api/documents?privacy_space=1&_privacy_password="+passphrase, nil,
		map[string]string{"X-Privacy-Token": tok})
	s.Require().Equal(http.StatusOK, rec.Code)
	s.decode(rec, &docs)
	s.Require().Len(docs, 1)
	s.Equal("secret", docs[0].Title)
	s.Equal("secret body", docs[0].Content)

	// A wrong passphrase on a single read is a 422.
	rec = s.do(http.MethodGet, fmt.Sprintf("/api/documents/%d?_privacy_password=wrong-pass", res.ID), nil,
		map[string]string{"X-Privacy-Token": tok})
	s.Equal(http.StatusUnprocessableEntity, rec.Code)

	// A single read without the passphrase is a 400, never raw ciphertext.
	rec = s.do(http.MethodGet, fmt.Sprintf("/api/documents/%d", res.ID), nil,
		map[string]string{"X-Privacy-Token": tok})
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestInvalidDocumentID() {
	rec := s.do(http.MethodGet, "/api/documents/not-a-number", nil, nil)
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/api/documents/999", nil, nil)
	s.Equal(http.StatusNotFound, rec.Code)
}
