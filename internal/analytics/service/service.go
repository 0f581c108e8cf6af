package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	chatmodels "medbee/internal/chat/models"
	"medbee/internal/health/models"
	id "medbee/pkg/domain"
	dErrors "medbee/pkg/domain-errors"
	"medbee/pkg/platform/audit"
	authmw "medbee/pkg/platform/middleware/auth"
	"medbee/pkg/requestcontext"
)

const (
	metricWindow    = 30 * 24 * time.Hour
	adherenceWindow = 7 * 24 * time.Hour
	usageDays       = 30
	day             = 24 * time.Hour
)

type MetricSource interface {
	ListSince(ctx context.Context, since time.Time) ([]*models.HealthMetric, error)
}

type AdherenceSource interface {
	AdherenceSince(ctx context.Context, since, now time.Time) ([]models.AdherenceDay, error)
}

type VaccinationSource interface {
	Summary(ctx context.Context, now time.Time) (models.VaccinationSummary, error)
}

type UserCounter interface {
	Count(ctx context.Context) (int, error)
	CountByRole(ctx context.Context, role authmw.Role) (int, error)
}

type ChatStats interface {
	Stats(ctx context.Context) (chatmodels.Stats, error)
}

type AuditLog interface {
	ListSince(ctx context.Context, since time.Time) ([]audit.Entry, error)
}

// UserCounts splits the directory by role.
type UserCounts struct {
	Total  int `json:"total"`
	Admins int `json:"admins"`
	Users  int `json:"users"`
}

type ActiveUsers struct {
	Daily   int `json:"daily"`
	Weekly  int `json:"weekly"`
	Monthly int `json:"monthly"`
}

type APIHits struct {
	Total     int    `json:"total"`
	AvgPerDay int    `json:"avgPerDay"`
	PeakHour  string `json:"peakHour"`
}

// AppUsage is derived from the audit trail of the last 30 days. ErrorRate is
// the share of audited requests answered with a 5xx.
type AppUsage struct {
	Users       UserCounts       `json:"users"`
	Chat        chatmodels.Stats `json:"chat"`
	ActiveUsers ActiveUsers      `json:"activeUsers"`
	APIHits     APIHits          `json:"apiHits"`
	ErrorRate   string           `json:"errorRate"`
}

type Service struct {
	metrics      MetricSource
	adherence    AdherenceSource
	vaccinations VaccinationSource
	users        UserCounter
	chat         ChatStats
	audit        AuditLog
	logger       *slog.Logger
}

func New(metrics MetricSource, adherence AdherenceSource, vaccinations VaccinationSource, users UserCounter, chat ChatStats, auditLog AuditLog, logger *slog.Logger) *Service {
	return &Service{
		metrics:      metrics,
		adherence:    adherence,
		vaccinations: vaccinations,
		users:        users,
		chat:         chat,
		audit:        auditLog,
		logger:       logger,
	}
}

// HealthMetrics summarizes every user's readings of the last 30 days by type.
func (s *Service) HealthMetrics(ctx context.Context) ([]models.MetricSummary, error) {
	metrics, err := s.metrics.ListSince(ctx, requestcontext.Now(ctx).Add(-metricWindow))
	if err != nil {
		return nil, s.failed(ctx, "health metrics", err)
	}
	return models.SummarizeMetrics(metrics), nil
}

func (s *Service) MedicationAdherence(ctx context.Context) ([]models.AdherenceDay, error) {
	now := requestcontext.Now(ctx)
	days, err := s.adherence.AdherenceSince(ctx, now.Add(-adherenceWindow), now)
	if err != nil {
		return nil, s.failed(ctx, "medication adherence", err)
	}
	if days == nil {
		days = []models.AdherenceDay{}
	}
	return days, nil
}

func (s *Service) VaccinationStatus(ctx context.Context) (models.VaccinationSummary, error) {
	summary, err := s.vaccinations.Summary(ctx, requestcontext.Now(ctx))
	if err != nil {
		return models.VaccinationSummary{}, s.failed(ctx, "vaccination status", err)
	}
	return summary, nil
}

func (s *Service) AppUsage(ctx context.Context) (*AppUsage, error) {
	now := requestcontext.Now(ctx)
	usage := &AppUsage{}
	var entries []audit.Entry

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		counts, err := CountUsers(gctx, s.users)
		usage.Users = counts
		return err
	})
	g.Go(func() error {
		stats, err := s.chat.Stats(gctx)
		usage.Chat = stats
		return err
	})
	g.Go(func() error {
		var err error
		entries, err = s.audit.ListSince(gctx, now.Add(-usageDays*day))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, s.failed(ctx, "app usage", err)
	}

	usage.ActiveUsers = ActiveUsers{
		Daily:   distinctActors(entries, now.Add(-day)),
		Weekly:  distinctActors(entries, now.Add(-7*day)),
		Monthly: distinctActors(entries, now.Add(-usageDays*day)),
	}
	usage.APIHits = apiHits(entries)
	usage.ErrorRate = errorRate(entries)
	return usage, nil
}

// CountUsers reads total and per-role counts from the user directory.
func CountUsers(ctx context.Context, users UserCounter) (UserCounts, error) {
	var counts UserCounts
	var err error
	if counts.Total, err = users.Count(ctx); err != nil {
		return counts, err
	}
	if counts.Admins, err = users.CountByRole(ctx, authmw.RoleAdmin); err != nil {
		return counts, err
	}
	counts.Users, err = users.CountByRole(ctx, authmw.RoleUser)
	return counts, err
}

func (s *Service) failed(ctx context.Context, report string, err error) error {
	s.logger.ErrorContext(ctx, "analytics query failed",
		"report", report,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to build "+report+" report")
}

func distinctActors(entries []audit.Entry, since time.Time) int {
	seen := make(map[id.UserID]struct{})
	for _, e := range entries {
		if e.Timestamp.Before(since) || e.ActorID.IsNil() {
			continue
		}
		seen[e.ActorID] = struct{}{}
	}
	return len(seen)
}

// apiHits reports the busiest UTC hour; PeakHour is empty when nothing was
// recorded.
func apiHits(entries []audit.Entry) APIHits {
	hits := APIHits{Total: len(entries)}
	if len(entries) == 0 {
		return hits
	}
	hits.AvgPerDay = int(math.Round(float64(len(entries)) / usageDays))

	var byHour [24]int
	for _, e := range entries {
		byHour[e.Timestamp.UTC().Hour()]++
	}
	peak := 0
	for h := 1; h < len(byHour); h++ {
		if byHour[h] > byHour[peak] {
			peak = h
		}
	}
	hits.PeakHour = fmt.Sprintf("%02d:00", peak)
	return hits
}

func errorRate(entries []audit.Entry) string {
	if len(entries) == 0 {
		return "0.0%"
	}
	failed := 0
	for _, e := range entries {
		if e.ResponseStatus >= 500 {
			failed++
		}
	}
	return fmt.Sprintf("%.1f%%", float64(failed)*100/float64(len(entries)))
}
