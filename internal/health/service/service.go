package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"medbee/internal/health/models"
	id "medbee/pkg/domain"
	dErrors "medbee/pkg/domain-errors"
	"medbee/pkg/platform/sentinel"
)

type MetricStore interface {
	Create(ctx context.Context, metric *models.HealthMetric) error
	Update(ctx context.Context, metric *models.HealthMetric) error
	Delete(ctx context.Context, owner id.UserID, metricID id.RecordID) error
	FindByID(ctx context.Context, owner id.UserID, metricID id.RecordID) (*models.HealthMetric, error)
	ListByUser(ctx context.Context, owner id.UserID) ([]*models.HealthMetric, error)
	ListByType(ctx context.Context, owner id.UserID, metricType models.MetricType) ([]*models.HealthMetric, error)
	Latest(ctx context.Context, owner id.UserID, metricType models.MetricType) (*models.HealthMetric, error)
}

type RecordStore interface {
	Create(ctx context.Context, r *models.MedicalRecord) error
	Update(ctx context.Context, r *models.MedicalRecord) error
	FindByID(ctx context.Context, owner id.UserID, recordID id.RecordID) (*models.MedicalRecord, error)
	ListActive(ctx context.Context, owner id.UserID) ([]*models.MedicalRecord, error)
	ListByCategory(ctx context.Context, owner id.UserID, category string) ([]*models.MedicalRecord, error)
	Search(ctx context.Context, owner id.UserID, query string) ([]*models.MedicalRecord, error)
}

type VaccinationStore interface {
	Create(ctx context.Context, v *models.Vaccination) error
	Update(ctx context.Context, v *models.Vaccination) error
	Delete(ctx context.Context, owner id.UserID, vaccinationID id.RecordID) error
	FindByID(ctx context.Context, owner id.UserID, vaccinationID id.RecordID) (*models.Vaccination, error)
	ListByUser(ctx context.Context, owner id.UserID) ([]*models.Vaccination, error)
	ListUpcoming(ctx context.Context, owner id.UserID, now time.Time) ([]*models.Vaccination, error)
}

type MedicationStore interface {
	Create(ctx context.Context, medication *models.Medication) error
	Update(ctx context.Context, medication *models.Medication) error
	FindByID(ctx context.Context, owner id.UserID, medicationID id.RecordID) (*models.Medication, error)
	ListByUser(ctx context.Context, owner id.UserID) ([]*models.Medication, error)
	ListActive(ctx context.Context, owner id.UserID, now time.Time) ([]*models.Medication, error)
	ListByCategory(ctx context.Context, owner id.UserID, category string) ([]*models.Medication, error)
}

const (
	MsgMetricNotFound      = "Health metric not found"
	MsgRecordNotFound      = "Medical record not found"
	MsgVaccinationNotFound = "Vaccination record not found"
	MsgMedicationNotFound  = "Medication not found"

	MsgMetricDeleted          = "Health metric deleted successfully"
	MsgRecordArchived         = "Medical record archived successfully"
	MsgVaccinationDeleted     = "Vaccination record deleted successfully"
	MsgMedicationDiscontinued = "Medication discontinued successfully"
)

// Service is the owner-scoped health data API. Every lookup is keyed by the
// caller's user ID, so another user's row is indistinguishable from a
// missing one.
type Service struct {
	metrics      MetricStore
	records      RecordStore
	vaccinations VaccinationStore
	medications  MedicationStore
	logger       *slog.Logger
}

func New(metrics MetricStore, records RecordStore, vaccinations VaccinationStore, medications MedicationStore, logger *slog.Logger) *Service {
	return &Service{
		metrics:      metrics,
		records:      records,
		vaccinations: vaccinations,
		medications:  medications,
		logger:       logger,
	}
}

func validationError(errs []string) error {
	return dErrors.Validation("Validation error", errs)
}

// lookupError maps a store miss to a 404 carrying notFound.
func lookupError(err error, notFound, op string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, notFound)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, op)
}

func storeError(err error, op string) error {
	return dErrors.Wrap(err, dErrors.CodeInternal, op)
}

func orEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
