package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"deskvault/internal/platform/middleware"
	privacyModel "deskvault/internal/privacy/models"
	"deskvault/internal/privacy/service"
	"deskvault/internal/transport/http/shared"
	dErrors "deskvault/pkg/domain-errors"
)

// Service defines the interface for privacy-space operations.
type Service interface {
	HasPassphrase(ctx context.Context, userID int64) (bool, error)
	SetPassphrase(ctx context.Context, userID int64, newPassphrase, oldPassphrase string) error
	Enter(ctx context.Context, userID int64, passphrase string) (*service.EnterResult, error)
	Check(ctx context.Context, userID int64, token string) (bool, error)
	Refresh(ctx context.Context, userID int64, token string) (int, error)
	Leave(ctx context.Context, userID int64) error
}

// Handler handles privacy-space endpoints.
type Handler struct {
	logger       *slog.Logger
	privacy      Service
	jwtValidator middleware.JWTValidator
}

// New creates a new privacy Handler.
func New(privacy Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		privacy:      privacy,
		jwtValidator: jwtValidator,
	}
}

// Register registers the privacy routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	privacyRouter := chi.NewRouter()
	privacyRouter.Use(middleware.Recovery(h.logger))
	privacyRouter.Use(middleware.RequestID)
	privacyRouter.Use(middleware.Logger(h.logger))
	privacyRouter.Use(middleware.ContentTypeJSON)
	privacyRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
	privacyRouter.Get("/check-password", h.handleCheckPassphrase)
	privacyRouter.Post("/set-password", h.handleSetPassphrase)
	privacyRouter.Post("/verify-password", h.handleVerifyPassphrase)
	privacyRouter.Post("/verify-token", h.handleVerifyToken)
	privacyRouter.Post("/refresh-token", h.handleRefreshToken)
	privacyRouter.Post("/revoke-token", h.handleRevokeToken)

	r.Mount("/api/privacy", privacyRouter)
}

func (h *Handler) handleCheckPassphrase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	has, err := h.privacy.HasPassphrase(ctx, userID)
	if err != nil {
		h.logError(ctx, "check passphrase failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, privacyModel.CheckPassphraseResponse{HasPassword: has})
}

func (h *Handler) handleSetPassphrase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req privacyModel.SetPassphraseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.privacy.SetPassphrase(ctx, userID, req.Password, req.OldPassword); err != nil {
		h.logError(ctx, "set passphrase failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{"msg": "privacy passphrase set"})
}

func (h *Handler) handleVerifyPassphrase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req privacyModel.VerifyPassphraseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.Password == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "password is required"))
		return
	}

	res, err := h.privacy.Enter(ctx, userID, req.Password)
	if err != nil {
		h.logError(ctx, "privacy passphrase verification failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, privacyModel.VerifyPassphraseResponse{
		AccessToken: res.Token,
		ExpiresIn:   res.ExpiresIn,
	})
}

func (h *Handler) handleVerifyToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req privacyModel.TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "token is required"))
		return
	}

	valid, err := h.privacy.Check(ctx, userID, req.Token)
	if err != nil {
		h.logError(ctx, "token check failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, privacyModel.TokenValidityResponse{Valid: valid})
}

func (h *Handler) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req privacyModel.TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "token is required"))
		return
	}

	expiresIn, err := h.privacy.Refresh(ctx, userID, req.Token)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, privacyModel.RefreshTokenResponse{ExpiresIn: expiresIn})
}

func (h *Handler) handleRevokeToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	if err := h.privacy.Leave(ctx, userID); err != nil {
		h.logError(ctx, "token revoke failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{"msg": "left privacy space"})
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	h.logger.WarnContext(ctx, msg,
		"request_id", middleware.GetRequestID(ctx),
		"error", err.Error(),
	)
}
