package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"medbee/internal/analytics/service"
	"medbee/internal/health/models"
	"medbee/pkg/platform/httputil"
	authmw "medbee/pkg/platform/middleware/auth"
	"medbee/pkg/requestcontext"
)

type Service interface {
	HealthMetrics(ctx context.Context) ([]models.MetricSummary, error)
	MedicationAdherence(ctx context.Context) ([]models.AdherenceDay, error)
	VaccinationStatus(ctx context.Context) (models.VaccinationSummary, error)
	AppUsage(ctx context.Context) (*service.AppUsage, error)
}

var _ Service = (*service.Service)(nil)

type envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// Handler serves /api/v1/analytics. Every report is admin only.
type Handler struct {
	analytics Service
	guard     *authmw.Guard
	logger    *slog.Logger
}

func New(analytics Service, guard *authmw.Guard, logger *slog.Logger) *Handler {
	return &Handler{analytics: analytics, guard: guard, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/health-metrics", h.guard.Admin(report(h, h.analytics.HealthMetrics)))
	r.Get("/medication-adherence", h.guard.Admin(report(h, h.analytics.MedicationAdherence)))
	r.Get("/vaccination-status", h.guard.Admin(report(h, h.analytics.VaccinationStatus)))
	r.Get("/app-usage", h.guard.Admin(report(h, h.analytics.AppUsage)))
}

func report[T any](h *Handler, build func(context.Context) (T, error)) authmw.AuthenticatedFunc {
	return func(w http.ResponseWriter, r *http.Request, _ authmw.Identity) {
		data, err := build(r.Context())
		if err != nil {
			h.logger.ErrorContext(r.Context(), "analytics request failed",
				"path", r.URL.Path,
				"error", err,
				"request_id", requestcontext.RequestID(r.Context()),
			)
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, envelope{Success: true, Data: data})
	}
}
