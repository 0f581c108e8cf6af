package admin

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	chatmodels "medbee/internal/chat/models"
	"medbee/internal/platform/logger"
	"medbee/internal/platform/postgres"
	dErrors "medbee/pkg/domain-errors"
	"medbee/pkg/requestcontext"
)

type fakeUsers struct{ err error }

func (f fakeUsers) Stats(context.Context) (UserStats, error) {
	return UserStats{Total: 3, Admins: 1, Users: 2}, f.err
}

func (f fakeUsers) Latest(context.Context, int) ([]*UserSummary, error) {
	return []*UserSummary{{Email: "a@medbee.com"}}, nil
}

type fakeRequests struct {
	since time.Time
}

func (f *fakeRequests) Latest(_ context.Context, limit int) ([]*RequestSummary, error) {
	return []*RequestSummary{
		{Client: "Firefox on Linux"},
		{Client: "Chrome on Windows"},
		{Client: "Firefox on Linux"},
	}, nil
}

func (f *fakeRequests) DailyByMethod(_ context.Context, since time.Time) (APIStats, error) {
	f.since = since
	return APIStats{Dates: []string{"2026-03-14"}, Methods: map[string][]int{"GET": {4}, "POST": {1}}}, nil
}

type fakeChat struct{}

func (fakeChat) Stats(context.Context) (chatmodels.Stats, error) {
	return chatmodels.Stats{Total: 9, LastSevenDays: 4, AIResponses: 9}, nil
}

type fixedState postgres.State

func (s fixedState) State() postgres.State { return postgres.State(s) }

type ServiceSuite struct {
	suite.Suite
	ctx      context.Context
	now      time.Time
	frontend *httptest.Server
	requests *fakeRequests
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.now = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.requests = &fakeRequests{}
	s.frontend = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	s.T().Cleanup(s.frontend.Close)
}

func (s *ServiceSuite) TestDashboard() {
	svc := NewService(fakeUsers{}, s.requests, fakeChat{}, logger.Discard(),
		WithDatabase(fixedState(postgres.StateConnected)),
		WithFrontend(s.frontend.URL, s.frontend.Client()),
	)

	d, err := svc.Dashboard(s.ctx)
	s.Require().NoError(err)

	s.Equal(SystemStatus{
		Backend:       true,
		Database:      true,
		DatabaseState: "connected",
		Frontend:      true,
		LastChecked:   s.now,
	}, d.SystemStatus)
	s.Equal(3, d.UserStats.Total)
	s.Len(d.LatestUsers, 1)
	s.Equal(4, d.ChatStats.LastSevenDays)
	s.Equal([]int{4}, d.APIStats.Methods["GET"])
	s.Equal(s.now.Add(-7*24*time.Hour), s.requests.since)
	s.Equal([]ClientCount{
		{Client: "Firefox on Linux", Count: 2},
		{Client: "Chrome on Windows", Count: 1},
	}, d.Clients)
	s.Equal(s.now, d.Timestamp)
}

func (s *ServiceSuite) TestSystemStatusDegraded() {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()
	svc := NewService(fakeUsers{}, s.requests, fakeChat{}, logger.Discard(),
		WithDatabase(fixedState(postgres.StateDisconnected)),
		WithFrontend(down.URL, nil),
	)

	d, err := svc.Dashboard(s.ctx)
	s.Require().NoError(err)
	s.False(d.SystemStatus.Database)
	s.Equal("disconnected", d.SystemStatus.DatabaseState)
	s.False(d.SystemStatus.Frontend)
}

func (s *ServiceSuite) TestWithoutDatabaseOrFrontend() {
	d, err := NewService(fakeUsers{}, s.requests, fakeChat{}, logger.Discard()).Dashboard(s.ctx)
	s.Require().NoError(err)
	s.Equal(DatabaseNotConfigured, d.SystemStatus.DatabaseState)
	s.False(d.SystemStatus.Frontend)
	s.True(d.SystemStatus.Backend)
}

func (s *ServiceSuite) TestSectionFailureFailsDashboard() {
	svc := NewService(fakeUsers{err: errors.New("count failed")}, s.requests, fakeChat{}, logger.Discard())
	_, err := svc.Dashboard(s.ctx)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}
