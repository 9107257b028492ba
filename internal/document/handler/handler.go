package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"deskvault/internal/document/models"
	"deskvault/internal/platform/middleware"
	"deskvault/internal/transport/http/shared"
	dErrors "deskvault/pkg/domain-errors"
)

// privacyTokenHeader carries the privacy-space access token on document
// requests that touch protected content.
const privacyTokenHeader = "X-Privacy-Token"

// Service defines the interface for document operations.
type Service interface {
	Create(ctx context.Context, ownerID int64, privacyToken string, req models.CreateRequest) (*models.CreateResult, error)
	Get(ctx context.Context, ownerID, id int64, privacyToken, passphrase string) (*models.Document, error)
	List(ctx context.Context, ownerID int64, filter models.ListFilter, privacyToken, passphrase string) ([]*models.Document, error)
	Update(ctx context.Context, ownerID, id int64, privacyToken string, req models.UpdateRequest) (*models.Document, error)
	Delete(ctx context.Context, ownerID, id int64) error
	Restore(ctx context.Context, ownerID, id int64) error
}

// Handler handles document endpoints.
type Handler struct {
	logger       *slog.Logger
	documents    Service
	jwtValidator middleware.JWTValidator
}

// New creates a new document Handler.
func New(documents Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		documents:    documents,
		jwtValidator: jwtValidator,
	}
}

// Register registers the document routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	docRouter := chi.NewRouter()
	docRouter.Use(middleware.Recovery(h.logger))
	docRouter.Use(middleware.RequestID)
	docRouter.Use(middleware.Logger(h.logger))
	docRouter.Use(middleware.ContentTypeJSON)
	docRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
	docRouter.Post("/", h.handleCreate)
	docRouter.Get("/", h.handleList)
	docRouter.Get("/{id}", h.handleGet)
	docRouter.Put("/{id}", h.handleUpdate)
	docRouter.Delete("/{id}", h.handleDelete)
	docRouter.Post("/{id}/restore", h.handleRestore)

	r.Mount("/api/documents", docRouter)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req models.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.Title == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "title is required"))
		return
	}

	res, err := h.documents.Create(ctx, userID, r.Header.Get(privacyTokenHeader), req)
	if err != nil {
		h.logError(ctx, "document create failed", err)
		shared.WriteError(w, err)
		return
	}

	status := http.StatusCreated
	if res.Outcome == models.OutcomeBuffered {
		// The write is parked, not committed; it gains a row once the
		// reconciler drains it.
		status = http.StatusAccepted
	}
	shared.WriteJSON(w, status, res)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	filter := models.FilterActive
	switch {
	case queryFlag(r, "recycle_bin"):
		filter = models.FilterRecycleBin
	case queryFlag(r, "privacy_space"):
		filter = models.FilterPrivacy
	}

	docs, err := h.documents.List(ctx, userID, filter,
		r.Header.Get(privacyTokenHeader),
		r.URL.Query().Get("_privacy_password"),
	)
	if err != nil {
		h.logError(ctx, "document list failed", err)
		shared.WriteError(w, err)
		return
	}
	if docs == nil {
		docs = []*models.Document{}
	}
	shared.WriteJSON(w, http.StatusOK, docs)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	id, err := documentID(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	doc, err := h.documents.Get(ctx, userID, id,
		r.Header.Get(privacyTokenHeader),
		r.URL.Query().Get("_privacy_password"),
	)
	if err != nil {
		h.logError(ctx, "document get failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, doc)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	id, err := documentID(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req models.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	doc, err := h.documents.Update(ctx, userID, id, r.Header.Get(privacyTokenHeader), req)
	if err != nil {
		h.logError(ctx, "document update failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, doc)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	id, err := documentID(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	if err := h.documents.Delete(ctx, userID, id); err != nil {
		h.logError(ctx, "document delete failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{"msg": "document moved to recycle bin"})
}

func (h *Handler) handleRestore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	id, err := documentID(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	if err := h.documents.Restore(ctx, userID, id); err != nil {
		h.logError(ctx, "document restore failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{"msg": "document restored"})
}

func documentID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "invalid document id")
	}
	return id, nil
}

func queryFlag(r *http.Request, name string) bool {
	switch r.URL.Query().Get(name) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	h.logger.WarnContext(ctx, msg,
		"request_id", middleware.GetRequestID(ctx),
		"error", err.Error(),
	)
}
