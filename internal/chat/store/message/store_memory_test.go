package message

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medbee/internal/chat/models"
	id "medbee/pkg/domain"
)

func seed(t *testing.T, s *InMemoryStore, owner id.UserID, at time.Time, reply string) *models.Message {
	t.Helper()
	m := &models.Message{
		ID: id.NewRecordID(), UserID: owner, Message: "hello", AIResponse: reply,
		MessageType: models.MessageGeneralQuestion, AIResponseType: models.ResponseOther, Timestamp: at,
	}
	require.NoError(t, s.Create(context.Background(), m))
	return m
}

func TestListByUserPaginatesNewestFirst(t *testing.T) {
	s := New()
	ctx := context.Background()
	owner := id.NewUserID()
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	var ids []id.RecordID
	for i := range 5 {
		ids = append(ids, seed(t, s, owner, base.Add(time.Duration(i)*time.Minute), "ok").ID)
	}
	seed(t, s, id.NewUserID(), base, "ok")

	page, err := s.ListByUser(ctx, owner, 0, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, ids[4], page[0].ID)
	assert.Equal(t, ids[3], page[1].ID)

	last, err := s.ListByUser(ctx, owner, 4, 2)
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, ids[0], last[0].ID)

	beyond, err := s.ListByUser(ctx, owner, 10, 2)
	require.NoError(t, err)
	assert.Empty(t, beyond)

	n, err := s.CountByUser(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestStatsAndListSince(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	seed(t, s, id.NewUserID(), now.AddDate(0, 0, -30), "old")
	recent := seed(t, s, id.NewUserID(), now.AddDate(0, 0, -1), "")

	stats, err := s.Stats(ctx, now.AddDate(0, 0, -7))
	require.NoError(t, err)
	assert.Equal(t, models.Stats{Total: 2, LastSevenDays: 1, AIResponses: 1}, stats)

	since, err := s.ListSince(ctx, now.AddDate(0, 0, -7))
	require.NoError(t, err)
	require.Len(t, since, 1)
	assert.Equal(t, recent.ID, since[0].ID)
}
