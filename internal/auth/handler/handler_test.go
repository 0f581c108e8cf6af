package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"medbee/internal/auth/handler/mocks"
	"medbee/internal/auth/models"
	"medbee/internal/auth/service"
	"medbee/internal/platform/logger"
	dErrors "medbee/pkg/domain-errors"
	authmw "medbee/pkg/platform/middleware/auth"
	"medbee/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	service  *mocks.MockService
	identity authmw.Identity
	token    string
	router   chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	identities := testutil.NewIdentities()
	s.identity, s.token = identities.Add(authmw.RoleUser)

	s.router = chi.NewRouter()
	New(s.service, identities.Guard(), logger.Discard()).Register(s.router)
}

func (s *HandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *HandlerSuite) TestRegister() {
	s.Run("created", func() {
		s.service.EXPECT().Register(gomock.Any(), &models.RegisterRequest{
			Email: "ada@example.com", Password: "correct-horse", FirstName: "Ada", LastName: "Lovelace",
		}).Return(&models.AuthResponse{ID: "u1", Email: "ada@example.com", Token: "t"}, nil)

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/register", map[string]string{
			"email": "ada@example.com", "password": "correct-horse", "firstName": "Ada", "lastName": "Lovelace",
		}))
		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		body := testutil.UnmarshalResponse[map[string]string](s.T(), rr)
		s.Equal("u1", (*body)["_id"])
		s.Equal("t", (*body)["token"])
	})

	s.Run("validation uses the form error shape", func() {
		s.service.EXPECT().Register(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.Validation("Validation error", []string{"Please provide a valid email address"}))

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/register", map[string]string{"email": "x"}))
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
		body := testutil.UnmarshalResponse[formErrors](s.T(), rr)
		s.False(body.Success)
		s.Equal([]string{"Please provide a valid email address"}, body.Errors)
	})

	s.Run("duplicate", func() {
		s.service.EXPECT().Register(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeBadRequest, service.MsgUserExists))

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/register", map[string]string{"email": "ada@example.com"}))
		testutil.AssertMessage(s.T(), rr, http.StatusBadRequest, "User already exists")
	})

	s.Run("malformed body", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequestWithBody(s.T(), http.MethodPost, "/register", "{nope"))
		testutil.AssertMessage(s.T(), rr, http.StatusBadRequest, "Malformed JSON body")
	})
}

func (s *HandlerSuite) TestLogin() {
	s.Run("bad credentials", func() {
		s.service.EXPECT().Login(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeUnauthorized, service.MsgInvalidCredentials))

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/login", map[string]string{
			"email": "ada@example.com", "password": "nope",
		}))
		testutil.AssertMessage(s.T(), rr, http.StatusUnauthorized, "Invalid credentials")
	})

	s.Run("ok", func() {
		s.service.EXPECT().Login(gomock.Any(), &models.LoginRequest{Email: "ada@example.com", Password: "correct-horse"}).
			Return(&models.AuthResponse{ID: "u1", Token: "t"}, nil)

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/login", map[string]string{
			"email": "ada@example.com", "password": "correct-horse",
		}))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
	})
}

func (s *HandlerSuite) TestMe() {
	s.Run("requires a credential", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/me", nil))
		testutil.AssertMessage(s.T(), rr, http.StatusUnauthorized, authmw.MsgNotAuthorized)
	})

	s.Run("returns the caller", func() {
		s.service.EXPECT().Me(gomock.Any(), s.identity.ID).Return(&models.User{
			ID: s.identity.ID, Email: s.identity.Email, PasswordHash: "secret-hash",
		}, nil)

		req := testutil.WithBearer(testutil.NewJSONRequest(s.T(), http.MethodGet, "/me", nil), s.token)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		s.NotContains(rr.Body.String(), "secret-hash")
		s.Contains(rr.Body.String(), s.identity.ID.String())
	})
}

func (s *HandlerSuite) TestUpdateProfile() {
	s.service.EXPECT().UpdateProfile(gomock.Any(), s.identity.ID, gomock.Any()).
		DoAndReturn(func(_ any, _ any, req *models.UpdateProfileRequest) (*models.ProfileResponse, error) {
			s.Require().NotNil(req.HealthProfile)
			s.True(req.HealthProfile.Age.Valid)
			s.Equal(float64(40), req.HealthProfile.Age.Value)
			return &models.ProfileResponse{ID: s.identity.ID.String(), Token: "fresh"}, nil
		})

	req := testutil.WithBearer(testutil.NewRequestWithBody(s.T(), http.MethodPut, "/profile", `{"healthProfile":{"age":"40"}}`), s.token)
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	s.Contains(rr.Body.String(), `"token":"fresh"`)
}

func (s *HandlerSuite) TestPasswordReset() {
	s.Run("forgot password always acknowledges", func() {
		s.service.EXPECT().ForgotPassword(gomock.Any(), &models.ForgotPasswordRequest{Email: "ghost@example.com"}).Return(nil)

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/forgot-password", map[string]string{"email": "ghost@example.com"}))
		testutil.AssertMessage(s.T(), rr, http.StatusOK, service.MsgResetRequested)
	})

	s.Run("reset passes the path token", func() {
		s.service.EXPECT().ResetPassword(gomock.Any(), "abc123", &models.ResetPasswordRequest{Password: "brand-new-pass"}).Return(nil)

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/reset-password/abc123", map[string]string{"password": "brand-new-pass"}))
		testutil.AssertMessage(s.T(), rr, http.StatusOK, service.MsgResetSucceeded)
	})

	s.Run("invalid token", func() {
		s.service.EXPECT().ResetPassword(gomock.Any(), "stale", gomock.Any()).
			Return(dErrors.New(dErrors.CodeBadRequest, service.MsgInvalidResetToken))

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/reset-password/stale", map[string]string{"password": "brand-new-pass"}))
		testutil.AssertMessage(s.T(), rr, http.StatusBadRequest, service.MsgInvalidResetToken)
	})
}

func (s *HandlerSuite) TestRateLimitersWrapCredentialRoutes() {
	var hits int
	limit := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits++
			w.WriteHeader(http.StatusTooManyRequests)
		})
	}
	router := chi.NewRouter()
	New(s.service, testutil.NewIdentities().Guard(), logger.Discard(), WithRateLimits(limit, limit)).Register(router)

	for _, path := range []string{"/login", "/register", "/forgot-password", "/reset-password/x"} {
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(s.T(), http.MethodPost, path, map[string]string{}))
		s.Equal(http.StatusTooManyRequests, rr.Code, path)
	}
	s.Equal(4, hits)
}
