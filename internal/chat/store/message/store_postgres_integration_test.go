//go:build integration

package message_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	authmodels "medbee/internal/auth/models"
	"medbee/internal/auth/store/user"
	"medbee/internal/chat/models"
	"medbee/internal/chat/store/message"
	id "medbee/pkg/domain"
	authmw "medbee/pkg/platform/middleware/auth"
	"medbee/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *message.PostgresStore
	owner    id.UserID
	now      time.Time
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = message.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "chat_messages", "users"))
	s.now = time.Now().UTC().Truncate(time.Microsecond)
	s.owner = id.NewUserID()
	s.Require().NoError(user.NewPostgres(s.postgres.DB).Create(ctx, &authmodels.User{
		ID: s.owner, Email: "chat@example.com", PasswordHash: "x", FirstName: "Chat", LastName: "User",
		Role: authmw.RoleUser, CreatedAt: s.now, UpdatedAt: s.now,
	}))
}

func (s *PostgresStoreSuite) TestRoundTripsMetadata() {
	ctx := context.Background()
	confidence := 1.0
	m := &models.Message{
		ID: id.NewRecordID(), UserID: s.owner, Message: "fever and cough", AIResponse: "Consider resting",
		MessageType: models.MessageSymptomQuery, AIResponseType: models.ResponseSuggestion,
		Metadata:  models.Metadata{QueryTopics: []string{"fever", "cough"}, Confidence: &confidence},
		Timestamp: s.now,
	}
	s.Require().NoError(s.store.Create(ctx, m))

	page, err := s.store.ListByUser(ctx, s.owner, 0, 10)
	s.Require().NoError(err)
	s.Require().Len(page, 1)
	s.Equal([]string{"fever", "cough"}, page[0].Metadata.QueryTopics)
	s.Equal([]string{}, page[0].Metadata.SuggestedActions)
	s.Require().NotNil(page[0].Metadata.Confidence)
	s.Equal(models.MessageSymptomQuery, page[0].MessageType)

	stats, err := s.store.Stats(ctx, s.now.AddDate(0, 0, -7))
	s.Require().NoError(err)
	s.Equal(models.Stats{Total: 1, LastSevenDays: 1, AIResponses: 1}, stats)

	n, err := s.store.CountByUser(ctx, s.owner)
	s.Require().NoError(err)
	s.Equal(1, n)
}
