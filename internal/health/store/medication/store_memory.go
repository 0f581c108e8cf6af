package medication

import (
	"context"
	"slices"
	"strings"
	"time"

	"medbee/internal/health/models"
	"medbee/internal/platform/store"
	id "medbee/pkg/domain"
)

type InMemoryStore struct {
	table *store.Table[*models.Medication]
}

func New() *InMemoryStore {
	return &InMemoryStore{table: store.NewTable[*models.Medication]()}
}

func byStartDateDesc(a, b *models.Medication) int {
	return b.StartDate.Compare(a.StartDate)
}

func (s *InMemoryStore) Create(_ context.Context, m *models.Medication) error {
	return s.table.Insert(m)
}

func (s *InMemoryStore) Update(_ context.Context, m *models.Medication) error {
	return s.table.Replace(m)
}

func (s *InMemoryStore) FindByID(_ context.Context, owner id.UserID, medicationID id.RecordID) (*models.Medication, error) {
	return s.table.Get(owner, medicationID)
}

func (s *InMemoryStore) ListByUser(_ context.Context, owner id.UserID) ([]*models.Medication, error) {
	return s.table.Select(store.OwnedBy[*models.Medication](owner, nil), byStartDateDesc), nil
}

// ListActive returns medications not discontinued whose end date is absent
// or after now.
func (s *InMemoryStore) ListActive(_ context.Context, owner id.UserID, now time.Time) ([]*models.Medication, error) {
	return s.table.Select(store.OwnedBy(owner, func(m *models.Medication) bool {
		return m.IsCurrent(now)
	}), byStartDateDesc), nil
}

func (s *InMemoryStore) ListByCategory(_ context.Context, owner id.UserID, category string) ([]*models.Medication, error) {
	return s.table.Select(store.OwnedBy(owner, func(m *models.Medication) bool {
		return !m.IsDiscontinued && m.Category == category
	}), byStartDateDesc), nil
}

// AdherenceSince groups every user's medications updated at or after since
// by UTC update day and effective status, oldest day first.
func (s *InMemoryStore) AdherenceSince(_ context.Context, since, now time.Time) ([]models.AdherenceDay, error) {
	days := make(map[string]*models.AdherenceDay)
	s.table.Select(func(m *models.Medication) bool {
		if m.UpdatedAt.Before(since) {
			return false
		}
		key := m.UpdatedAt.UTC().Format(time.DateOnly)
		day, ok := days[key]
		if !ok {
			day = &models.AdherenceDay{Date: key}
			days[key] = day
		}
		switch m.EffectiveStatus(now) {
		case models.MedicationDiscontinued:
			day.Discontinued++
		case models.MedicationCompleted:
			day.Completed++
		default:
			day.Active++
		}
		return false
	}, nil)

	out := make([]models.AdherenceDay, 0, len(days))
	for _, day := range days {
		out = append(out, *day)
	}
	slices.SortFunc(out, func(a, b models.AdherenceDay) int { return strings.Compare(a.Date, b.Date) })
	return out, nil
}
