// Package storage selects the persistence backend. Business code depends on
// the narrow interfaces declared by each service; Stores bundles one
// implementation of every store so the backend is chosen in one place.
package storage

import (
	"context"
	"time"

	authmodels "medbee/internal/auth/models"
	authservice "medbee/internal/auth/service"
	chatservice "medbee/internal/chat/service"
	healthmodels "medbee/internal/health/models"
	healthservice "medbee/internal/health/service"
	"medbee/pkg/platform/audit"
	authmw "medbee/pkg/platform/middleware/auth"
)

// UserStore is the directory as seen by auth, admin and analytics.
type UserStore interface {
	authservice.UserStore
	Count(ctx context.Context) (int, error)
	CountByRole(ctx context.Context, role authmw.Role) (int, error)
	ListLatest(ctx context.Context, limit int) ([]*authmodels.User, error)
}

type MetricStore interface {
	healthservice.MetricStore
	ListSince(ctx context.Context, since time.Time) ([]*healthmodels.HealthMetric, error)
}

type VaccinationStore interface {
	healthservice.VaccinationStore
	Summary(ctx context.Context, now time.Time) (healthmodels.VaccinationSummary, error)
}

type MedicationStore interface {
	healthservice.MedicationStore
	AdherenceSince(ctx context.Context, since, now time.Time) ([]healthmodels.AdherenceDay, error)
}

// Stores is one backend's implementation of every store.
type Stores struct {
	Backend      string
	Users        UserStore
	Resets       authservice.ResetStore
	Metrics      MetricStore
	Records      healthservice.RecordStore
	Vaccinations VaccinationStore
	Medications  MedicationStore
	Messages     chatservice.Store
	Audit        audit.Store
}
