package handler

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"medbee/internal/analytics/service"
	"medbee/internal/auth/store/user"
	"medbee/internal/chat/assistant"
	chatservice "medbee/internal/chat/service"
	"medbee/internal/chat/store/message"
	"medbee/internal/health/models"
	"medbee/internal/health/store/medication"
	"medbee/internal/health/store/metric"
	"medbee/internal/health/store/vaccination"
	"medbee/internal/platform/logger"
	auditmemory "medbee/pkg/platform/audit/store/memory"
	authmw "medbee/pkg/platform/middleware/auth"
	"medbee/pkg/testutil"
)

type response[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
}

type HandlerSuite struct {
	suite.Suite
	router     chi.Router
	userToken  string
	adminToken string
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	identities := testutil.NewIdentities()
	_, s.userToken = identities.Add(authmw.RoleUser)
	_, s.adminToken = identities.Add(authmw.RoleAdmin)

	chat := chatservice.New(message.New(), assistant.Echo{}, logger.Discard())
	svc := service.New(metric.New(), medication.New(), vaccination.New(), user.New(), chat,
		auditmemory.NewInMemoryStore(), logger.Discard())
	s.router = chi.NewRouter()
	New(svc, identities.Guard(), logger.Discard()).Register(s.router)
}

func (s *HandlerSuite) get(path, token string) *http.Request {
	req := testutil.NewJSONRequest(s.T(), http.MethodGet, path, nil)
	if token != "" {
		testutil.WithBearer(req, token)
	}
	return req
}

func (s *HandlerSuite) TestReportsAreAdminOnly() {
	for _, path := range []string{"/health-metrics", "/medication-adherence", "/vaccination-status", "/app-usage"} {
		res := testutil.DoRequest(s.router, s.get(path, ""))
		testutil.AssertMessage(s.T(), res, http.StatusUnauthorized, authmw.MsgNotAuthorized)

		res = testutil.DoRequest(s.router, s.get(path, s.userToken))
		testutil.AssertMessage(s.T(), res, http.StatusForbidden, authmw.MsgAdminRequired)

		res = testutil.DoRequest(s.router, s.get(path, s.adminToken))
		testutil.AssertStatus(s.T(), res, http.StatusOK)
	}
}

func (s *HandlerSuite) TestEnvelope() {
	res := testutil.DoRequest(s.router, s.get("/vaccination-status", s.adminToken))
	body := testutil.UnmarshalResponse[response[models.VaccinationSummary]](s.T(), res)
	s.True(body.Success)
	s.NotNil(body.Data.Completed)

	res = testutil.DoRequest(s.router, s.get("/app-usage", s.adminToken))
	usage := testutil.UnmarshalResponse[response[service.AppUsage]](s.T(), res)
	s.Equal("0.0%", usage.Data.ErrorRate)
}
