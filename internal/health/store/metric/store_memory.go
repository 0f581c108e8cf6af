package metric

import (
	"context"
	"time"

	"medbee/internal/health/models"
	"medbee/internal/platform/store"
	id "medbee/pkg/domain"
	"medbee/pkg/platform/sentinel"
)

type InMemoryStore struct {
	table *store.Table[*models.HealthMetric]
}

func New() *InMemoryStore {
	return &InMemoryStore{table: store.NewTable[*models.HealthMetric]()}
}

func newestFirst(a, b *models.HealthMetric) int {
	return b.Timestamp.Compare(a.Timestamp)
}

func (s *InMemoryStore) Create(_ context.Context, m *models.HealthMetric) error {
	return s.table.Insert(m)
}

func (s *InMemoryStore) Update(_ context.Context, m *models.HealthMetric) error {
	return s.table.Replace(m)
}

func (s *InMemoryStore) Delete(_ context.Context, owner id.UserID, metricID id.RecordID) error {
	return s.table.Delete(owner, metricID)
}

func (s *InMemoryStore) FindByID(_ context.Context, owner id.UserID, metricID id.RecordID) (*models.HealthMetric, error) {
	return s.table.Get(owner, metricID)
}

func (s *InMemoryStore) ListByUser(_ context.Context, owner id.UserID) ([]*models.HealthMetric, error) {
	return s.table.Select(store.OwnedBy[*models.HealthMetric](owner, nil), newestFirst), nil
}

func (s *InMemoryStore) ListByType(_ context.Context, owner id.UserID, metricType models.MetricType) ([]*models.HealthMetric, error) {
	return s.table.Select(store.OwnedBy(owner, func(m *models.HealthMetric) bool {
		return m.Type == metricType
	}), newestFirst), nil
}

// Latest returns the newest metric of a type, or sentinel.ErrNotFound.
func (s *InMemoryStore) Latest(ctx context.Context, owner id.UserID, metricType models.MetricType) (*models.HealthMetric, error) {
	metrics, _ := s.ListByType(ctx, owner, metricType)
	if len(metrics) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return metrics[0], nil
}

// ListSince returns every user's metrics created at or after since.
func (s *InMemoryStore) ListSince(_ context.Context, since time.Time) ([]*models.HealthMetric, error) {
	return s.table.Select(func(m *models.HealthMetric) bool {
		return !m.CreatedAt.Before(since)
	}, newestFirst), nil
}
