package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"medbee/internal/chat/models"
	id "medbee/pkg/domain"
	dErrors "medbee/pkg/domain-errors"
	"medbee/pkg/platform/httputil"
	authmw "medbee/pkg/platform/middleware/auth"
	"medbee/pkg/requestcontext"
)

type Service interface {
	Send(ctx context.Context, owner id.UserID, req *models.SendRequest) (*models.Message, error)
	Log(ctx context.Context, owner id.UserID, req *models.LogRequest) (*models.Message, error)
	History(ctx context.Context, owner id.UserID, page, limit int) (*models.History, error)
	Insights(ctx context.Context, timeframe string) (*models.Insights, error)
}

// envelope is the chat response body.
type envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// Handler serves /api/v1/chat.
type Handler struct {
	chat   Service
	guard  *authmw.Guard
	logger *slog.Logger
}

func New(chat Service, guard *authmw.Guard, logger *slog.Logger) *Handler {
	return &Handler{chat: chat, guard: guard, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/send", h.guard.Protect(h.handleSend))
	r.Post("/log", h.guard.Protect(h.handleLog))
	r.Get("/history", h.guard.Protect(h.handleHistory))
	r.Get("/insights", h.guard.Admin(h.handleInsights))
}

func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request, identity authmw.Identity) {
	var req models.SendRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	m, err := h.chat.Send(r.Context(), identity.ID, &req)
	h.respond(w, r, m, err)
}

func (h *Handler) handleLog(w http.ResponseWriter, r *http.Request, identity authmw.Identity) {
	var req models.LogRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	m, err := h.chat.Log(r.Context(), identity.ID, &req)
	h.respond(w, r, m, err)
}

// handleHistory treats unparsable page and limit values as absent.
func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request, identity authmw.Identity) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	history, err := h.chat.History(r.Context(), identity.ID, page, limit)
	h.respond(w, r, history, err)
}

func (h *Handler) handleInsights(w http.ResponseWriter, r *http.Request, _ authmw.Identity) {
	insights, err := h.chat.Insights(r.Context(), r.URL.Query().Get("timeframe"))
	h.respond(w, r, insights, err)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, data any, err error) {
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, envelope{Success: true, Data: data})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	if de, ok := dErrors.As(err); !ok || httputil.StatusFor(de.Code) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, "chat request failed",
			"error", err,
			"path", r.URL.Path,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	httputil.WriteError(w, err)
}
