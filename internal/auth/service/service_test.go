package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"medbee/internal/auth/models"
	"medbee/internal/auth/secrets"
	"medbee/internal/auth/service/mocks"
	jwttoken "medbee/internal/jwt_token"
	"medbee/internal/notification/email"
	"medbee/internal/platform/logger"
	id "medbee/pkg/domain"
	dErrors "medbee/pkg/domain-errors"
	authmw "medbee/pkg/platform/middleware/auth"
	"medbee/pkg/platform/sentinel"
	"medbee/pkg/requestcontext"
)

// =============================================================================
// Auth Service Test Suite
// =============================================================================
// Stores and the mailer are mocked; hashing and token signing are real so the
// tests see actual credentials.

type ServiceSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	users   *mocks.MockUserStore
	resets  *mocks.MockResetStore
	mailer  *mocks.MockMailer
	hasher  *secrets.Hasher
	jwt     *jwttoken.JWTService
	metrics *countingMetrics
	service *Service
	now     time.Time
	ctx     context.Context
}

type countingMetrics struct {
	created int
	failed  int
}

func (m *countingMetrics) IncrementUsersCreated() { m.created++ }
func (m *countingMetrics) IncrementLoginsFailed() { m.failed++ }

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.users = mocks.NewMockUserStore(s.ctrl)
	s.resets = mocks.NewMockResetStore(s.ctrl)
	s.mailer = mocks.NewMockMailer(s.ctrl)
	s.hasher = secrets.NewHasher(bcrypt.MinCost)
	s.jwt = jwttoken.NewJWTService("test-secret", "medbee")
	s.metrics = &countingMetrics{}
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.service = New(s.users, s.resets, s.jwt, s.hasher, s.mailer, logger.Discard(), Config{
		TokenTTL:      time.Hour,
		ResetTokenTTL: time.Hour,
		FrontendURL:   "https://app.medbee.test/",
	}, WithMetrics(s.metrics))
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ServiceSuite) storedUser(password string) *models.User {
	hash, err := s.hasher.Hash(password)
	s.Require().NoError(err)
	return &models.User{
		ID:           id.NewUserID(),
		Email:        "ada@example.com",
		PasswordHash: hash,
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Role:         authmw.RoleUser,
	}
}

func (s *ServiceSuite) assertCode(err error, code dErrors.Code, message string) {
	s.Require().Error(err)
	de, ok := dErrors.As(err)
	s.Require().True(ok, "expected domain error, got %v", err)
	s.Equal(code, de.Code)
	s.Equal(message, de.Message)
}

func (s *ServiceSuite) TestRegister() {
	s.Run("creates user with default role and returns a verifiable token", func() {
		s.users.EXPECT().FindByEmail(gomock.Any(), "ada@example.com").Return(nil, sentinel.ErrNotFound)
		var created *models.User
		s.users.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, u *models.User) error {
			created = u
			return nil
		})

		resp, err := s.service.Register(s.ctx, &models.RegisterRequest{
			Email:     "  Ada@Example.com ",
			Password:  "correct-horse",
			FirstName: "Ada",
			LastName:  "Lovelace",
		})
		s.Require().NoError(err)
		s.Require().NotNil(created)
		s.Equal(authmw.RoleUser, created.Role)
		s.Equal("ada@example.com", resp.Email)
		s.Equal(created.ID.String(), resp.ID)
		s.Equal(s.now, created.CreatedAt)
		s.NoError(s.hasher.Verify("correct-horse", created.PasswordHash))

		claims, err := s.jwt.ValidateToken(resp.Token)
		s.Require().NoError(err)
		s.Equal(created.ID.String(), claims.UserID)
		s.Equal(1, s.metrics.created)
	})

	s.Run("duplicate email is rejected", func() {
		s.users.EXPECT().FindByEmail(gomock.Any(), "ada@example.com").Return(s.storedUser("whatever1"), nil)

		_, err := s.service.Register(s.ctx, &models.RegisterRequest{
			Email: "ada@example.com", Password: "correct-horse", FirstName: "Ada", LastName: "Lovelace",
		})
		s.assertCode(err, dErrors.CodeBadRequest, MsgUserExists)
	})

	s.Run("racing insert maps conflict to duplicate", func() {
		s.users.EXPECT().FindByEmail(gomock.Any(), gomock.Any()).Return(nil, sentinel.ErrNotFound)
		s.users.EXPECT().Create(gomock.Any(), gomock.Any()).Return(sentinel.ErrConflict)

		_, err := s.service.Register(s.ctx, &models.RegisterRequest{
			Email: "ada@example.com", Password: "correct-horse", FirstName: "Ada", LastName: "Lovelace",
		})
		s.assertCode(err, dErrors.CodeBadRequest, MsgUserExists)
	})

	s.Run("invalid fields return every message", func() {
		_, err := s.service.Register(s.ctx, &models.RegisterRequest{Email: "nope", Password: "short", FirstName: " A ", LastName: "B"})
		de, ok := dErrors.As(err)
		s.Require().True(ok)
		s.Equal(dErrors.CodeValidation, de.Code)
		s.ElementsMatch([]string{
			"Please provide a valid email address",
			"Password must be at least 8 characters long",
			"First name must be at least 2 characters long",
			"Last name must be at least 2 characters long",
		}, de.Details)
	})
}

func (s *ServiceSuite) TestLogin() {
	s.Run("valid credentials", func() {
		user := s.storedUser("correct-horse")
		s.users.EXPECT().FindByEmail(gomock.Any(), "ada@example.com").Return(user, nil)

		resp, err := s.service.Login(s.ctx, &models.LoginRequest{Email: "ADA@example.com", Password: "correct-horse"})
		s.Require().NoError(err)
		s.Equal(user.ID.String(), resp.ID)
		s.NotEmpty(resp.Token)
	})

	s.Run("missing fields", func() {
		_, err := s.service.Login(s.ctx, &models.LoginRequest{Email: "ada@example.com"})
		s.assertCode(err, dErrors.CodeBadRequest, MsgCredentialsRequired)
	})

	s.Run("unknown email and wrong password look the same", func() {
		before := s.metrics.failed
		s.users.EXPECT().FindByEmail(gomock.Any(), "ghost@example.com").Return(nil, sentinel.ErrNotFound)
		_, errUnknown := s.service.Login(s.ctx, &models.LoginRequest{Email: "ghost@example.com", Password: "correct-horse"})

		s.users.EXPECT().FindByEmail(gomock.Any(), "ada@example.com").Return(s.storedUser("correct-horse"), nil)
		_, errWrong := s.service.Login(s.ctx, &models.LoginRequest{Email: "ada@example.com", Password: "wrong-horse"})

		s.assertCode(errUnknown, dErrors.CodeUnauthorized, MsgInvalidCredentials)
		s.assertCode(errWrong, dErrors.CodeUnauthorized, MsgInvalidCredentials)
		s.Equal(before+2, s.metrics.failed)
	})

	s.Run("store failure is internal", func() {
		s.users.EXPECT().FindByEmail(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))
		_, err := s.service.Login(s.ctx, &models.LoginRequest{Email: "ada@example.com", Password: "correct-horse"})
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *ServiceSuite) TestMeAndResolveIdentity() {
	user := s.storedUser("correct-horse")

	s.Run("me omits password hash", func() {
		s.users.EXPECT().FindByID(gomock.Any(), user.ID).Return(user, nil)
		got, err := s.service.Me(s.ctx, user.ID)
		s.Require().NoError(err)
		s.Empty(got.PasswordHash)
		s.Equal("Ada", got.FirstName)
	})

	s.Run("me for a deleted user", func() {
		s.users.EXPECT().FindByID(gomock.Any(), user.ID).Return(nil, sentinel.ErrNotFound)
		_, err := s.service.Me(s.ctx, user.ID)
		s.assertCode(err, dErrors.CodeNotFound, MsgUserNotFound)
	})

	s.Run("resolve passes not found through for the guard", func() {
		s.users.EXPECT().FindByID(gomock.Any(), user.ID).Return(nil, sentinel.ErrNotFound)
		_, err := s.service.ResolveIdentity(s.ctx, user.ID)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("resolve returns identity", func() {
		s.users.EXPECT().FindByID(gomock.Any(), user.ID).Return(user, nil)
		identity, err := s.service.ResolveIdentity(s.ctx, user.ID)
		s.Require().NoError(err)
		s.Equal(user.ID, identity.ID)
		s.Equal(authmw.RoleUser, identity.Role)
	})
}

func (s *ServiceSuite) TestUpdateProfile() {
	s.Run("merges fields and issues a fresh token", func() {
		user := s.storedUser("correct-horse")
		oldHash := user.PasswordHash
		s.users.EXPECT().FindByID(gomock.Any(), user.ID).Return(user, nil)
		var saved *models.User
		s.users.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, u *models.User) error {
			saved = u
			return nil
		})

		gender := "female"
		resp, err := s.service.UpdateProfile(s.ctx, user.ID, &models.UpdateProfileRequest{
			FirstName: "Augusta",
			Password:  "new-password",
			HealthProfile: &models.HealthProfilePatch{
				Age:    models.LooseNumber{Value: 36, Present: true, Valid: true},
				Gender: &gender,
			},
		})
		s.Require().NoError(err)
		s.Equal("Augusta", resp.FirstName)
		s.Equal("Lovelace", resp.LastName)
		s.Require().NotNil(resp.HealthProfile.Age)
		s.Equal(36, *resp.HealthProfile.Age)
		s.Equal("female", resp.HealthProfile.Gender)
		s.NotEqual(oldHash, saved.PasswordHash)
		s.NoError(s.hasher.Verify("new-password", saved.PasswordHash))
		s.NotEmpty(resp.Token)
	})

	s.Run("non numeric age is rejected", func() {
		_, err := s.service.UpdateProfile(s.ctx, id.NewUserID(), &models.UpdateProfileRequest{
			HealthProfile: &models.HealthProfilePatch{Age: models.LooseNumber{Present: true}},
		})
		de, ok := dErrors.As(err)
		s.Require().True(ok)
		s.Contains(de.Details, "Age must be a valid number")
	})

	s.Run("email taken by someone else", func() {
		user := s.storedUser("correct-horse")
		s.users.EXPECT().FindByID(gomock.Any(), user.ID).Return(user, nil)
		s.users.EXPECT().Update(gomock.Any(), gomock.Any()).Return(sentinel.ErrConflict)

		_, err := s.service.UpdateProfile(s.ctx, user.ID, &models.UpdateProfileRequest{Email: "taken@example.com"})
		s.assertCode(err, dErrors.CodeBadRequest, MsgUserExists)
	})
}

func (s *ServiceSuite) TestForgotPassword() {
	s.Run("known email stores a token and mails a link", func() {
		user := s.storedUser("correct-horse")
		s.users.EXPECT().FindByEmail(gomock.Any(), "ada@example.com").Return(user, nil)
		var stored *models.PasswordReset
		s.resets.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, r *models.PasswordReset) error {
			stored = r
			return nil
		})
		var sent email.Message
		s.mailer.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, m email.Message) error {
			sent = m
			return nil
		})

		err := s.service.ForgotPassword(s.ctx, &models.ForgotPasswordRequest{Email: "Ada@example.com"})
		s.Require().NoError(err)
		s.Equal(user.ID, stored.UserID)
		s.Equal(s.now.Add(time.Hour), stored.ExpiresAt)
		s.Equal("ada@example.com", sent.To)
		s.Contains(sent.Text, "https://app.medbee.test/reset-password/"+stored.Token)
	})

	s.Run("unknown email is silent", func() {
		s.users.EXPECT().FindByEmail(gomock.Any(), "ghost@example.com").Return(nil, sentinel.ErrNotFound)
		s.NoError(s.service.ForgotPassword(s.ctx, &models.ForgotPasswordRequest{Email: "ghost@example.com"}))
	})
}

func (s *ServiceSuite) TestResetPassword() {
	validReset := func(userID id.UserID) *models.PasswordReset {
		return &models.PasswordReset{Token: "tok", UserID: userID, ExpiresAt: s.now.Add(time.Minute)}
	}

	s.Run("sets the new password and consumes the token", func() {
		user := s.storedUser("correct-horse")
		s.resets.EXPECT().FindByToken(gomock.Any(), "tok").Return(validReset(user.ID), nil)
		s.users.EXPECT().FindByID(gomock.Any(), user.ID).Return(user, nil)
		s.resets.EXPECT().MarkUsed(gomock.Any(), "tok").Return(nil)
		var saved *models.User
		s.users.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, u *models.User) error {
			saved = u
			return nil
		})
		s.mailer.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil)

		s.Require().NoError(s.service.ResetPassword(s.ctx, "tok", &models.ResetPasswordRequest{Password: "brand-new-pass"}))
		s.NoError(s.hasher.Verify("brand-new-pass", saved.PasswordHash))
	})

	s.Run("unknown token", func() {
		s.resets.EXPECT().FindByToken(gomock.Any(), "nope").Return(nil, sentinel.ErrNotFound)
		err := s.service.ResetPassword(s.ctx, "nope", &models.ResetPasswordRequest{Password: "brand-new-pass"})
		s.assertCode(err, dErrors.CodeBadRequest, MsgInvalidResetToken)
	})

	s.Run("expired token", func() {
		reset := validReset(id.NewUserID())
		reset.ExpiresAt = s.now.Add(-time.Second)
		s.resets.EXPECT().FindByToken(gomock.Any(), "tok").Return(reset, nil)
		err := s.service.ResetPassword(s.ctx, "tok", &models.ResetPasswordRequest{Password: "brand-new-pass"})
		s.assertCode(err, dErrors.CodeBadRequest, MsgInvalidResetToken)
	})

	s.Run("token consumed concurrently", func() {
		user := s.storedUser("correct-horse")
		s.resets.EXPECT().FindByToken(gomock.Any(), "tok").Return(validReset(user.ID), nil)
		s.users.EXPECT().FindByID(gomock.Any(), user.ID).Return(user, nil)
		s.resets.EXPECT().MarkUsed(gomock.Any(), "tok").Return(sentinel.ErrAlreadyUsed)

		err := s.service.ResetPassword(s.ctx, "tok", &models.ResetPasswordRequest{Password: "brand-new-pass"})
		s.assertCode(err, dErrors.CodeBadRequest, MsgInvalidResetToken)
	})

	s.Run("short password", func() {
		s.resets.EXPECT().FindByToken(gomock.Any(), "tok").Return(validReset(id.NewUserID()), nil)
		err := s.service.ResetPassword(s.ctx, "tok", &models.ResetPasswordRequest{Password: "short"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("confirmation mail failure does not undo the reset", func() {
		user := s.storedUser("correct-horse")
		s.resets.EXPECT().FindByToken(gomock.Any(), "tok").Return(validReset(user.ID), nil)
		s.users.EXPECT().FindByID(gomock.Any(), user.ID).Return(user, nil)
		s.resets.EXPECT().MarkUsed(gomock.Any(), "tok").Return(nil)
		s.users.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)
		s.mailer.EXPECT().Send(gomock.Any(), gomock.Any()).Return(errors.New("smtp down"))

		s.NoError(s.service.ResetPassword(s.ctx, "tok", &models.ResetPasswordRequest{Password: "brand-new-pass"}))
	})
}
