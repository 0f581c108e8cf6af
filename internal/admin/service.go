package admin

import (
	"cmp"
	"context"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	chatmodels "medbee/internal/chat/models"
	"medbee/internal/platform/postgres"
	dErrors "medbee/pkg/domain-errors"
	"medbee/pkg/requestcontext"
)

const (
	latestLimit    = 50
	apiStatsWindow = 7 * 24 * time.Hour
	probeTimeout   = 3 * time.Second

	// DatabaseNotConfigured is reported when the server runs on in-memory stores.
	DatabaseNotConfigured = "not configured"
)

type UserDirectory interface {
	Stats(ctx context.Context) (UserStats, error)
	Latest(ctx context.Context, limit int) ([]*UserSummary, error)
}

type RequestLog interface {
	Latest(ctx context.Context, limit int) ([]*RequestSummary, error)
	DailyByMethod(ctx context.Context, since time.Time) (APIStats, error)
}

type ChatStats interface {
	Stats(ctx context.Context) (chatmodels.Stats, error)
}

// DatabaseState is satisfied by the postgres connection manager.
type DatabaseState interface {
	State() postgres.State
}

type Service struct {
	users       UserDirectory
	requests    RequestLog
	chat        ChatStats
	database    DatabaseState
	frontendURL string
	client      *http.Client
	logger      *slog.Logger
}

type Option func(*Service)

// WithDatabase reports the manager's connection state on the dashboard.
func WithDatabase(db DatabaseState) Option {
	return func(s *Service) {
		s.database = db
	}
}

// WithFrontend probes url on every dashboard build.
func WithFrontend(url string, client *http.Client) Option {
	return func(s *Service) {
		s.frontendURL = url
		if client != nil {
			s.client = client
		}
	}
}

func NewService(users UserDirectory, requests RequestLog, chat ChatStats, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		users:    users,
		requests: requests,
		chat:     chat,
		client:   &http.Client{Timeout: probeTimeout},
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dashboard gathers every dashboard section concurrently. Any failing section
// fails the whole build.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	now := requestcontext.Now(ctx)
	d := &Dashboard{Timestamp: now}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d.SystemStatus = s.systemStatus(gctx, now)
		return nil
	})
	g.Go(func() error {
		var err error
		d.UserStats, err = s.users.Stats(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		d.LatestUsers, err = s.users.Latest(gctx, latestLimit)
		return err
	})
	g.Go(func() error {
		var err error
		d.ChatStats, err = s.chat.Stats(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		d.APIStats, err = s.requests.DailyByMethod(gctx, now.Add(-apiStatsWindow))
		return err
	})
	g.Go(func() error {
		var err error
		d.LatestRequests, err = s.requests.Latest(gctx, latestLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(ctx, "dashboard build failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, MsgMetricsFailed)
	}

	d.Clients = clientBreakdown(d.LatestRequests)
	return d, nil
}

func (s *Service) systemStatus(ctx context.Context, now time.Time) SystemStatus {
	status := SystemStatus{Backend: true, DatabaseState: DatabaseNotConfigured, LastChecked: now}
	if s.database != nil {
		state := s.database.State()
		status.DatabaseState = string(state)
		status.Database = state == postgres.StateConnected
	}
	status.Frontend = s.probeFrontend(ctx)
	return status
}

func (s *Service) probeFrontend(ctx context.Context) bool {
	if s.frontendURL == "" {
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.frontendURL, nil)
	if err != nil {
		s.logger.WarnContext(ctx, "frontend probe failed", "error", err)
		return false
	}
	res, err := s.client.Do(req)
	if err != nil {
		s.logger.WarnContext(ctx, "frontend probe failed", "error", err, "url", s.frontendURL)
		return false
	}
	defer res.Body.Close()
	return res.StatusCode == http.StatusOK
}

// clientBreakdown tallies requests by client, most frequent first.
func clientBreakdown(requests []*RequestSummary) []ClientCount {
	counts := make(map[string]int)
	for _, r := range requests {
		counts[r.Client]++
	}
	out := make([]ClientCount, 0, len(counts))
	for client, n := range counts {
		out = append(out, ClientCount{Client: client, Count: n})
	}
	slices.SortFunc(out, func(a, b ClientCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Client, b.Client)
	})
	return out
}
