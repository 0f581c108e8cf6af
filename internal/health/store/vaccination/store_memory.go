package vaccination

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
	table *store.Table[*models.Vaccination]
}

func New() *InMemoryStore {
	return &InMemoryStore{table: store.NewTable[*models.Vaccination]()}
}

func (s *InMemoryStore) Create(_ context.Context, v *models.Vaccination) error {
	return s.table.Insert(v)
}

func (s *InMemoryStore) Update(_ context.Context, v *models.Vaccination) error {
	return s.table.Replace(v)
}

func (s *InMemoryStore) Delete(_ context.Context, owner id.UserID, vaccinationID id.RecordID) error {
	return s.table.Delete(owner, vaccinationID)
}

func (s *InMemoryStore) FindByID(_ context.Context, owner id.UserID, vaccinationID id.RecordID) (*models.Vaccination, error) {
	return s.table.Get(owner, vaccinationID)
}

// ListByUser returns vaccinations, most recently received first.
func (s *InMemoryStore) ListByUser(_ context.Context, owner id.UserID) ([]*models.Vaccination, error) {
	return s.table.Select(store.OwnedBy[*models.Vaccination](owner, nil), func(a, b *models.Vaccination) int {
		return b.DateReceived.Compare(a.DateReceived)
	}), nil
}

// ListUpcoming returns scheduled doses after now, soonest first.
func (s *InMemoryStore) ListUpcoming(_ context.Context, owner id.UserID, now time.Time) ([]*models.Vaccination, error) {
	return s.table.Select(store.OwnedBy(owner, func(v *models.Vaccination) bool {
		return v.Upcoming(now)
	}), func(a, b *models.Vaccination) int {
		return a.NextDoseDate.Compare(*b.NextDoseDate)
	}), nil
}

// Summary tallies every user's vaccinations by name.
func (s *InMemoryStore) Summary(_ context.Context, now time.Time) (models.VaccinationSummary, error) {
	completed := make(map[string]int)
	upcoming := make(map[string]int)
	overdue := make(map[string]int)
	s.table.Select(func(v *models.Vaccination) bool {
		if !v.DateReceived.IsZero() {
			completed[v.Name]++
		}
		if v.NextDoseDate != nil {
			switch {
			case v.NextDoseDate.After(now):
				upcoming[v.Name]++
			case v.NextDoseDate.Before(now):
				overdue[v.Name]++
			}
		}
		return false
	}, nil)
	return models.VaccinationSummary{
		Completed: tally(completed),
		Upcoming:  tally(upcoming),
		Overdue:   tally(overdue),
	}, nil
}

func tally(counts map[string]int) []models.NameCount {
	out := make([]models.NameCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, models.NameCount{Name: name, Count: n})
	}
	slices.SortFunc(out, func(a, b models.NameCount) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}
