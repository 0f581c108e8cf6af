package message

import (
	"context"
	"time"

	"medbee/internal/chat/models"
	"medbee/internal/platform/store"
	id "medbee/pkg/domain"
)

type InMemoryStore struct {
	table *store.Table[*models.Message]
}

func New() *InMemoryStore {
	return &InMemoryStore{table: store.NewTable[*models.Message]()}
}

func newestFirst(a, b *models.Message) int {
	return b.Timestamp.Compare(a.Timestamp)
}

func (s *InMemoryStore) Create(_ context.Context, m *models.Message) error {
	return s.table.Insert(m)
}

// ListByUser returns one page of the owner's messages, newest first.
func (s *InMemoryStore) ListByUser(_ context.Context, owner id.UserID, offset, limit int) ([]*models.Message, error) {
	all := s.table.Select(store.OwnedBy[*models.Message](owner, nil), newestFirst)
	if offset >= len(all) {
		return []*models.Message{}, nil
	}
	end := min(offset+limit, len(all))
	return all[offset:end], nil
}

func (s *InMemoryStore) CountByUser(_ context.Context, owner id.UserID) (int, error) {
	return len(s.table.Select(store.OwnedBy[*models.Message](owner, nil), nil)), nil
}

func (s *InMemoryStore) ListSince(_ context.Context, since time.Time) ([]*models.Message, error) {
	return s.table.Select(func(m *models.Message) bool {
		return !m.Timestamp.Before(since)
	}, newestFirst), nil
}

func (s *InMemoryStore) Stats(_ context.Context, since time.Time) (models.Stats, error) {
	var stats models.Stats
	for _, m := range s.table.Select(func(*models.Message) bool { return true }, nil) {
		stats.Total++
		if !m.Timestamp.Before(since) {
			stats.LastSevenDays++
		}
		if m.AIResponse != "" {
			stats.AIResponses++
		}
	}
	return stats, nil
}
