package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"medbee/internal/platform/logger"
	"medbee/internal/ratelimit/models"
	"medbee/internal/ratelimit/store/window"
	"medbee/pkg/platform/middleware/metadata"
	"medbee/pkg/testutil"
)

type failingLimiter struct {
	calls int
}

func (f *failingLimiter) Allow(context.Context, string, int, time.Duration) (*models.RateLimitResult, error) {
	f.calls++
	return nil, errors.New("connection refused")
}

type countingMetrics struct {
	limited map[string]int
}

func (c *countingMetrics) IncrementRateLimited(class string) {
	c.limited[class]++
}

type RateLimitSuite struct {
	suite.Suite
	rule    models.Rule
	metrics *countingMetrics
}

func TestRateLimitSuite(t *testing.T) {
	suite.Run(t, new(RateLimitSuite))
}

func (s *RateLimitSuite) SetupTest() {
	s.rule = models.Rule{Requests: 2, Window: time.Minute}
	s.metrics = &countingMetrics{limited: map[string]int{}}
}

func (s *RateLimitSuite) handler(m *Middleware) http.Handler {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return m.Limit(models.ClassAuth, s.rule)(ok)
}

func (s *RateLimitSuite) hit(h http.Handler, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	req.RemoteAddr = ip + ":43120"
	return testutil.DoRequest(h, req)
}

func (s *RateLimitSuite) TestRedisWindow() {
	mr := miniredis.RunT(s.T())
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s.T().Cleanup(func() { _ = client.Close() })
	h := s.handler(New(window.NewRedis(client), logger.Discard(), WithMetrics(s.metrics)))

	first := s.hit(h, "10.0.0.1")
	s.Equal(http.StatusOK, first.Code)
	s.Equal("2", first.Header().Get("X-RateLimit-Limit"))
	s.Equal("1", first.Header().Get("X-RateLimit-Remaining"))
	s.Equal(http.StatusOK, s.hit(h, "10.0.0.1").Code)

	res := s.hit(h, "10.0.0.1")
	testutil.AssertMessage(s.T(), res, http.StatusTooManyRequests, MsgTooManyRequests)
	s.Equal("60", res.Header().Get("Retry-After"))
	s.Equal(1, s.metrics.limited["auth"])

	s.Equal(http.StatusOK, s.hit(h, "10.0.0.2").Code)
}

func (s *RateLimitSuite) TestInProcessWithoutLimiter() {
	h := s.handler(New(nil, logger.Discard(), WithMetrics(s.metrics)))

	s.Equal(http.StatusOK, s.hit(h, "10.0.0.1").Code)
	s.Equal(http.StatusOK, s.hit(h, "10.0.0.1").Code)
	testutil.AssertMessage(s.T(), s.hit(h, "10.0.0.1"), http.StatusTooManyRequests, MsgTooManyRequests)
	s.Equal(http.StatusOK, s.hit(h, "10.0.0.9").Code)
	s.Equal(1, s.metrics.limited["auth"])
}

func (s *RateLimitSuite) TestForwardedHeaderDoesNotSplitPeerBudget() {
	client := redis.NewClient(&redis.Options{Addr: miniredis.RunT(s.T()).Addr()})
	s.T().Cleanup(func() { _ = client.Close() })

	for name, limiter := range map[string]Limiter{
		"in process": nil,
		"redis":      window.NewRedis(client),
	} {
		s.Run(name, func() {
			h := metadata.ClientMetadata(s.handler(New(limiter, logger.Discard())))
			passed := 0
			for i := range 20 {
				req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
				req.RemoteAddr = "203.0.113.9:52000"
				req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
				if testutil.DoRequest(h, req).Code == http.StatusOK {
					passed++
				}
			}
			s.Equal(s.rule.Requests, passed)
		})
	}
}

func (s *RateLimitSuite) TestTrustedProxyKeysByForwardedClient() {
	rv, err := metadata.NewResolver(false, []string{"10.1.0.0/16"})
	s.Require().NoError(err)
	h := rv.Middleware(s.handler(New(nil, logger.Discard())))

	send := func(client string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = "10.1.0.5:52000"
		req.Header.Set("X-Forwarded-For", client)
		return testutil.DoRequest(h, req).Code
	}
	s.Equal(http.StatusOK, send("198.51.100.1"))
	s.Equal(http.StatusOK, send("198.51.100.1"))
	s.Equal(http.StatusTooManyRequests, send("198.51.100.1"))
	s.Equal(http.StatusOK, send("198.51.100.2"))
}

func (s *RateLimitSuite) TestFallbackWhenLimiterFails() {
	limiter := &failingLimiter{}
	h := s.handler(New(limiter, logger.Discard()))

	res := s.hit(h, "10.0.0.1")
	s.Equal(http.StatusOK, res.Code)
	s.Equal("degraded", res.Header().Get("X-RateLimit-Status"))
	s.Equal(http.StatusOK, s.hit(h, "10.0.0.1").Code)
	s.Equal(http.StatusTooManyRequests, s.hit(h, "10.0.0.1").Code)
}

func (s *RateLimitSuite) TestBreakerStopsCallingFailingLimiter() {
	s.rule.Requests = 100
	limiter := &failingLimiter{}
	h := s.handler(New(limiter, logger.Discard()))

	for range 8 {
		s.Equal(http.StatusOK, s.hit(h, "10.0.0.1").Code)
	}
	s.Equal(5, limiter.calls)
}

func (s *RateLimitSuite) TestDisabled() {
	s.rule.Requests = 1
	h := s.handler(New(&failingLimiter{}, logger.Discard(), WithDisabled(true)))
	for range 3 {
		s.Equal(http.StatusOK, s.hit(h, "10.0.0.1").Code)
	}
}

func TestCircuitBreakerRecovers(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := newCircuitBreaker()
	cb.now = func() time.Time { return now }

	for range 5 {
		cb.RecordFailure()
	}
	if !cb.IsOpen() || cb.UsePrimary() {
		t.Fatal("expected open circuit routing to fallback")
	}

	now = now.Add(31 * time.Second)
	if !cb.UsePrimary() {
		t.Fatal("expected probe after cooldown")
	}
	cb.RecordSuccess()
	cb.RecordSuccess()
	if closed := cb.RecordSuccess(); !closed || cb.IsOpen() {
		t.Fatal("expected circuit to close after three successes")
	}
}
