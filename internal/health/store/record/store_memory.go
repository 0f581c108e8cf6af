package record

import (
	"context"

	"medbee/internal/health/models"
	"medbee/internal/platform/store"
	id "medbee/pkg/domain"
)

type InMemoryStore struct {
	table *store.Table[*models.MedicalRecord]
}

func New() *InMemoryStore {
	return &InMemoryStore{table: store.NewTable[*models.MedicalRecord]()}
}

func byRecordDateDesc(a, b *models.MedicalRecord) int {
	return b.RecordDate.Compare(a.RecordDate)
}

func notArchived(r *models.MedicalRecord) bool { return !r.IsArchived }

func (s *InMemoryStore) Create(_ context.Context, r *models.MedicalRecord) error {
	return s.table.Insert(r)
}

func (s *InMemoryStore) Update(_ context.Context, r *models.MedicalRecord) error {
	return s.table.Replace(r)
}

func (s *InMemoryStore) FindByID(_ context.Context, owner id.UserID, recordID id.RecordID) (*models.MedicalRecord, error) {
	return s.table.Get(owner, recordID)
}

// ListActive returns non-archived records, newest record date first.
func (s *InMemoryStore) ListActive(_ context.Context, owner id.UserID) ([]*models.MedicalRecord, error) {
	return s.table.Select(store.OwnedBy(owner, notArchived), byRecordDateDesc), nil
}

func (s *InMemoryStore) ListByCategory(_ context.Context, owner id.UserID, category string) ([]*models.MedicalRecord, error) {
	return s.table.Select(store.OwnedBy(owner, func(r *models.MedicalRecord) bool {
		return !r.IsArchived && r.Category == category
	}), byRecordDateDesc), nil
}

func (s *InMemoryStore) Search(_ context.Context, owner id.UserID, query string) ([]*models.MedicalRecord, error) {
	return s.table.Select(store.OwnedBy(owner, func(r *models.MedicalRecord) bool {
		return !r.IsArchived && r.Matches(query)
	}), byRecordDateDesc), nil
}
