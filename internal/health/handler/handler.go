package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"medbee/internal/health/models"
	"medbee/internal/health/service"
	id "medbee/pkg/domain"
	dErrors "medbee/pkg/domain-errors"
	"medbee/pkg/platform/httputil"
	authmw "medbee/pkg/platform/middleware/auth"
	"medbee/pkg/requestcontext"
)

// Service defines the owner-scoped health operations the handler needs.
type Service interface {
	ListMetrics(ctx context.Context, owner id.UserID) ([]*models.HealthMetric, error)
	ListMetricsByType(ctx context.Context, owner id.UserID, metricType string) ([]*models.HealthMetric, error)
	LatestMetrics(ctx context.Context, owner id.UserID) (map[models.MetricType]*models.HealthMetric, error)
	AddMetric(ctx context.Context, owner id.UserID, req *models.MetricRequest) (*models.HealthMetric, error)
	UpdateMetric(ctx context.Context, owner id.UserID, metricID id.RecordID, req *models.MetricRequest) (*models.HealthMetric, error)
	DeleteMetric(ctx context.Context, owner id.UserID, metricID id.RecordID) error

	ListRecords(ctx context.Context, owner id.UserID) ([]*models.MedicalRecord, error)
	ListRecordsByCategory(ctx context.Context, owner id.UserID, category string) ([]*models.MedicalRecord, error)
	SearchRecords(ctx context.Context, owner id.UserID, query string) ([]*models.MedicalRecord, error)
	GetRecord(ctx context.Context, owner id.UserID, recordID id.RecordID) (*models.MedicalRecord, error)
	AddRecord(ctx context.Context, owner id.UserID, req *models.RecordRequest) (*models.MedicalRecord, error)
	UpdateRecord(ctx context.Context, owner id.UserID, recordID id.RecordID, req *models.RecordRequest) (*models.MedicalRecord, error)
	ArchiveRecord(ctx context.Context, owner id.UserID, recordID id.RecordID) error

	ListVaccinations(ctx context.Context, owner id.UserID) ([]*models.Vaccination, error)
	UpcomingVaccinations(ctx context.Context, owner id.UserID) ([]*models.Vaccination, error)
	GetVaccination(ctx context.Context, owner id.UserID, vaccinationID id.RecordID) (*models.Vaccination, error)
	AddVaccination(ctx context.Context, owner id.UserID, req *models.VaccinationRequest) (*models.Vaccination, error)
	UpdateVaccination(ctx context.Context, owner id.UserID, vaccinationID id.RecordID, req *models.VaccinationRequest) (*models.Vaccination, error)
	UpdateVaccinationStatus(ctx context.Context, owner id.UserID, vaccinationID id.RecordID, req *models.VaccinationStatusRequest) (*models.Vaccination, error)
	DeleteVaccination(ctx context.Context, owner id.UserID, vaccinationID id.RecordID) error

	ListMedications(ctx context.Context, owner id.UserID) ([]*models.Medication, error)
	ActiveMedications(ctx context.Context, owner id.UserID) ([]*models.Medication, error)
	ListMedicationsByCategory(ctx context.Context, owner id.UserID, category string) ([]*models.Medication, error)
	GetMedication(ctx context.Context, owner id.UserID, medicationID id.RecordID) (*models.Medication, error)
	AddMedication(ctx context.Context, owner id.UserID, req *models.MedicationRequest) (*models.Medication, error)
	UpdateMedication(ctx context.Context, owner id.UserID, medicationID id.RecordID, req *models.MedicationRequest) (*models.Medication, error)
	DiscontinueMedication(ctx context.Context, owner id.UserID, medicationID id.RecordID) error
	UpdateReminders(ctx context.Context, owner id.UserID, medicationID id.RecordID, req *models.RemindersRequest) (*models.Medication, error)
}

// Handler serves /api/v1/health. Every route requires an authenticated user.
type Handler struct {
	health Service
	guard  *authmw.Guard
	logger *slog.Logger
}

func New(health Service, guard *authmw.Guard, logger *slog.Logger) *Handler {
	return &Handler{health: health, guard: guard, logger: logger}
}

// Register mounts the health routes on r. Static segments are registered
// before {id} so chi resolves /metrics/latest and /records/search first.
func (h *Handler) Register(r chi.Router) {
	p := h.guard.Protect

	r.Get("/metrics", p(h.handleListMetrics))
	r.Get("/metrics/latest", p(h.handleLatestMetrics))
	r.Get("/metrics/{type}", p(h.handleMetricsByType))
	r.Post("/metrics", p(h.handleAddMetric))
	r.Put("/metrics/{id}", p(h.handleUpdateMetric))
	r.Delete("/metrics/{id}", p(h.handleDeleteMetric))

	r.Get("/records", p(h.handleListRecords))
	r.Get("/records/search", p(h.handleSearchRecords))
	r.Get("/records/category/{category}", p(h.handleRecordsByCategory))
	r.Get("/records/{id}", p(h.handleGetRecord))
	r.Post("/records", p(h.handleAddRecord))
	r.Put("/records/{id}", p(h.handleUpdateRecord))
	r.Patch("/records/{id}/archive", p(h.handleArchiveRecord))

	r.Get("/vaccinations", p(h.handleListVaccinations))
	r.Get("/vaccinations/upcoming", p(h.handleUpcomingVaccinations))
	r.Get("/vaccinations/{id}", p(h.handleGetVaccination))
	r.Post("/vaccinations", p(h.handleAddVaccination))
	r.Put("/vaccinations/{id}", p(h.handleUpdateVaccination))
	r.Delete("/vaccinations/{id}", p(h.handleDeleteVaccination))
	r.Patch("/vaccinations/{id}/status", p(h.handleVaccinationStatus))

	r.Get("/medications", p(h.handleListMedications))
	r.Get("/medications/active", p(h.handleActiveMedications))
	r.Get("/medications/category/{category}", p(h.handleMedicationsByCategory))
	r.Get("/medications/{id}", p(h.handleGetMedication))
	r.Post("/medications", p(h.handleAddMedication))
	r.Put("/medications/{id}", p(h.handleUpdateMedication))
	r.Patch("/medications/{id}/discontinue", p(h.handleDiscontinueMedication))
	r.Patch("/medications/{id}/reminders", p(h.handleUpdateReminders))
}

// pathID parses the {id} segment. A malformed id cannot name an owned row,
// so it reports the resource's not-found error.
func pathID(r *http.Request, notFound string) (id.RecordID, error) {
	recordID, err := id.ParseRecordID(chi.URLParam(r, "id"))
	if err != nil {
		return id.RecordID{}, dErrors.New(dErrors.CodeNotFound, notFound)
	}
	return recordID, nil
}

// respond writes v with status, or the error when set.
func respond[T any](h *Handler, w http.ResponseWriter, r *http.Request, status int, v T, err error) {
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, status, v)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	if de, ok := dErrors.As(err); !ok || httputil.StatusFor(de.Code) == http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, "health request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	httputil.WriteError(w, err)
}

func (h *Handler) writeMessage(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteMessage(w, http.StatusOK, msg)
}

var _ Service = (*service.Service)(nil)
