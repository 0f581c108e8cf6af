//go:build integration

package user_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"medbee/internal/auth/models"
	"medbee/internal/auth/store/user"
	id "medbee/pkg/domain"
	authmw "medbee/pkg/platform/middleware/auth"
	"medbee/pkg/platform/sentinel"
	"medbee/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *user.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = user.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "users"))
}

func newTestUser(email string) *models.User {
	now := time.Now().UTC().Truncate(time.Microsecond)
	age := 34
	return &models.User{
		ID:            id.NewUserID(),
		Email:         email,
		PasswordHash:  "$2a$10$hash",
		FirstName:     "Grace",
		LastName:      "Hopper",
		Role:          authmw.RoleUser,
		HealthProfile: models.HealthProfile{Age: &age, Allergies: "penicillin"},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	u := newTestUser("Grace@Example.com")
	s.Require().NoError(s.store.Create(ctx, u))

	found, err := s.store.FindByEmail(ctx, "grace@example.com")
	s.Require().NoError(err)
	s.Equal(u.ID, found.ID)
	s.Equal("grace@example.com", found.Email, "emails are stored lowercased")
	s.Require().NotNil(found.HealthProfile.Age)
	s.Equal(34, *found.HealthProfile.Age)
	s.Equal("penicillin", found.HealthProfile.Allergies)

	s.ErrorIs(s.store.Create(ctx, newTestUser("GRACE@example.com")), sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestUpdateAndDelete() {
	ctx := context.Background()
	u := newTestUser("ada@example.com")
	s.Require().NoError(s.store.Create(ctx, u))

	u.FirstName = "Ada"
	u.Role = authmw.RoleAdmin
	s.Require().NoError(s.store.Update(ctx, u))

	admins, err := s.store.CountByRole(ctx, authmw.RoleAdmin)
	s.Require().NoError(err)
	s.Equal(1, admins)

	s.Require().NoError(s.store.Delete(ctx, u.ID))
	_, err = s.store.FindByID(ctx, u.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.ErrorIs(s.store.Update(ctx, u), sentinel.ErrNotFound)
}
