package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"medbee/internal/auth/models"
	"medbee/internal/auth/service"
	id "medbee/pkg/domain"
	dErrors "medbee/pkg/domain-errors"
	"medbee/pkg/platform/httputil"
	authmw "medbee/pkg/platform/middleware/auth"
	"medbee/pkg/requestcontext"
)

// Service defines the auth operations the handler needs.
type Service interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error)
	Me(ctx context.Context, userID id.UserID) (*models.User, error)
	UpdateProfile(ctx context.Context, userID id.UserID, req *models.UpdateProfileRequest) (*models.ProfileResponse, error)
	ForgotPassword(ctx context.Context, req *models.ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, token string, req *models.ResetPasswordRequest) error
}

// formErrors is the body the auth forms expect on validation failure.
type formErrors struct {
	Success bool     `json:"success"`
	Errors  []string `json:"errors"`
}

// Handler serves /api/v1/auth.
type Handler struct {
	auth       Service
	guard      *authmw.Guard
	logger     *slog.Logger
	authLimit  func(http.Handler) http.Handler
	resetLimit func(http.Handler) http.Handler
}

type Option func(*Handler)

// WithRateLimits installs limiters for the credential and reset endpoints.
func WithRateLimits(auth, reset func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		if auth != nil {
			h.authLimit = auth
		}
		if reset != nil {
			h.resetLimit = reset
		}
	}
}

func New(auth Service, guard *authmw.Guard, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		auth:       auth,
		guard:      guard,
		logger:     logger,
		authLimit:  passthrough,
		resetLimit: passthrough,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func passthrough(next http.Handler) http.Handler { return next }

// Register mounts the auth routes on r.
func (h *Handler) Register(r chi.Router) {
	r.With(h.authLimit).Post("/register", h.handleRegister)
	r.With(h.authLimit).Post("/login", h.handleLogin)
	r.Get("/me", h.guard.Protect(h.handleMe))
	r.Put("/profile", h.guard.Protect(h.handleUpdateProfile))
	r.With(h.resetLimit).Post("/forgot-password", h.handleForgotPassword)
	r.With(h.resetLimit).Post("/reset-password/{token}", h.handleResetPassword)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.RegisterRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	resp, err := h.auth.Register(ctx, &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, resp)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.LoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	resp, err := h.auth.Login(ctx, &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request, identity authmw.Identity) {
	user, err := h.auth.Me(r.Context(), identity.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request, identity authmw.Identity) {
	var req models.UpdateProfileRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	resp, err := h.auth.UpdateProfile(r.Context(), identity.ID, &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ForgotPasswordRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.auth.ForgotPassword(r.Context(), &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteMessage(w, http.StatusOK, service.MsgResetRequested)
}

func (h *Handler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ResetPasswordRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.auth.ResetPassword(r.Context(), chi.URLParam(r, "token"), &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteMessage(w, http.StatusOK, service.MsgResetSucceeded)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	de, ok := dErrors.As(err)
	switch {
	case ok && de.Code == dErrors.CodeValidation:
		httputil.WriteJSON(w, http.StatusBadRequest, formErrors{Success: false, Errors: de.Details})
		return
	case !ok || httputil.StatusFor(de.Code) == http.StatusInternalServerError:
		h.logger.ErrorContext(ctx, "auth request failed",
			"error", err,
			"path", r.URL.Path,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	httputil.WriteError(w, err)
}
