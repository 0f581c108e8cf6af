package medication

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medbee/internal/health/models"
	id "medbee/pkg/domain"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := New()
	owner := id.NewUserID()
	now := time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)
	ended := now.AddDate(0, 0, -1)

	add := func(name, category string, discontinued bool, end *time.Time, updated time.Time) *models.Medication {
		m := &models.Medication{
			ID: id.NewRecordID(), UserID: owner, Name: name, Category: category,
			StartDate: updated, EndDate: end, IsDiscontinued: discontinued, UpdatedAt: updated,
		}
		require.NoError(t, s.Create(ctx, m))
		return m
	}
	current := add("Metformin", "diabetes", false, nil, now.AddDate(0, 0, -2))
	add("Amoxicillin", "antibiotic", false, &ended, now.AddDate(0, 0, -2))
	add("Ibuprofen", "pain", true, nil, now.AddDate(0, 0, -1))
	add("Old", "pain", false, nil, now.AddDate(0, 0, -30))

	active, err := s.ListActive(ctx, owner, now)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	pain, _ := s.ListByCategory(ctx, owner, "pain")
	require.Len(t, pain, 1)
	assert.Equal(t, "Old", pain[0].Name)

	diabetes, _ := s.ListByCategory(ctx, owner, "diabetes")
	require.Len(t, diabetes, 1)
	assert.Equal(t, current.ID, diabetes[0].ID)

	days, err := s.AdherenceSince(ctx, now.AddDate(0, 0, -7), now)
	require.NoError(t, err)
	assert.Equal(t, []models.AdherenceDay{
		{Date: "2026-06-08", Active: 1, Completed: 1},
		{Date: "2026-06-09", Discontinued: 1},
	}, days)
}
