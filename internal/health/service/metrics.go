package service

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"medbee/internal/health/models"
	id "medbee/pkg/domain"
	"medbee/pkg/platform/sentinel"
	"medbee/pkg/requestcontext"
)

func (s *Service) ListMetrics(ctx context.Context, owner id.UserID) ([]*models.HealthMetric, error) {
	metrics, err := s.metrics.ListByUser(ctx, owner)
	if err != nil {
		return nil, storeError(err, "failed to list health metrics")
	}
	return metrics, nil
}

// ListMetricsByType returns readings of one type. Unknown types yield an
// empty list.
func (s *Service) ListMetricsByType(ctx context.Context, owner id.UserID, metricType string) ([]*models.HealthMetric, error) {
	metrics, err := s.metrics.ListByType(ctx, owner, models.MetricType(metricType))
	if err != nil {
		return nil, storeError(err, "failed to list health metrics")
	}
	return metrics, nil
}

// LatestMetrics returns the newest reading per type, querying every type
// concurrently. Types without readings are absent from the map.
func (s *Service) LatestMetrics(ctx context.Context, owner id.UserID) (map[models.MetricType]*models.HealthMetric, error) {
	var mu sync.Mutex
	latest := make(map[models.MetricType]*models.HealthMetric, len(models.MetricTypes))

	g, gctx := errgroup.WithContext(ctx)
	for _, metricType := range models.MetricTypes {
		g.Go(func() error {
			m, err := s.metrics.Latest(gctx, owner, metricType)
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			mu.Lock()
			latest[metricType] = m
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, storeError(err, "failed to fetch latest metrics")
	}
	return latest, nil
}

func (s *Service) AddMetric(ctx context.Context, owner id.UserID, req *models.MetricRequest) (*models.HealthMetric, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, validationError(errs)
	}
	now := requestcontext.Now(ctx)
	m := &models.HealthMetric{
		ID:        id.NewRecordID(),
		UserID:    owner,
		Type:      models.MetricType(req.Type),
		Value:     req.Parsed(),
		Notes:     req.Notes,
		Timestamp: now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.metrics.Create(ctx, m); err != nil {
		return nil, storeError(err, "failed to add health metric")
	}
	return m, nil
}

// UpdateMetric replaces the reading and, when sent, the notes. The type of an
// existing metric never changes.
func (s *Service) UpdateMetric(ctx context.Context, owner id.UserID, metricID id.RecordID, req *models.MetricRequest) (*models.HealthMetric, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, validationError(errs)
	}
	m, err := s.metrics.FindByID(ctx, owner, metricID)
	if err != nil {
		return nil, lookupError(err, MsgMetricNotFound, "failed to load health metric")
	}
	m.Value = req.Parsed()
	if req.Notes != "" {
		m.Notes = req.Notes
	}
	m.UpdatedAt = requestcontext.Now(ctx)
	if err := s.metrics.Update(ctx, m); err != nil {
		return nil, lookupError(err, MsgMetricNotFound, "failed to update health metric")
	}
	return m, nil
}

func (s *Service) DeleteMetric(ctx context.Context, owner id.UserID, metricID id.RecordID) error {
	if err := s.metrics.Delete(ctx, owner, metricID); err != nil {
		return lookupError(err, MsgMetricNotFound, "failed to delete health metric")
	}
	return nil
}
