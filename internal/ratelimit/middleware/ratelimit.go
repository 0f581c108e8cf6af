package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"medbee/internal/ratelimit/models"
	"medbee/pkg/platform/httputil"
	metadata "medbee/pkg/platform/middleware/metadata"
	"medbee/pkg/requestcontext"
)

// MsgTooManyRequests is the body of every 429.
const MsgTooManyRequests = "Too many requests from this IP, please try again later."

// Limiter is a shared fixed-window counter, normally backed by Redis.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error)
}

type Metrics interface {
	IncrementRateLimited(class string)
}

type Middleware struct {
	limiter  Limiter
	logger   *slog.Logger
	metrics  Metrics
	breaker  *CircuitBreaker
	disabled bool
}

type Option func(*Middleware)

// WithDisabled disables rate limiting entirely (for testing/demo mode).
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

func WithMetrics(metrics Metrics) Option {
	return func(m *Middleware) {
		m.metrics = metrics
	}
}

// New builds the middleware. A nil limiter keeps all counting in process.
func New(limiter Limiter, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		limiter: limiter,
		logger:  logger,
		breaker: newCircuitBreaker(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// Limit enforces rule per client IP for one endpoint class. The in-process
// httprate limiter serves when no shared limiter is configured or while the
// breaker is open.
func (m *Middleware) Limit(class models.EndpointClass, rule models.Rule) func(http.Handler) http.Handler {
	if m.disabled {
		return func(next http.Handler) http.Handler { return next }
	}
	local := httprate.Limit(rule.Requests, rule.Window,
		httprate.WithKeyFuncs(clientKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			m.rejected(w, r, class, nil)
		}),
	)

	return func(next http.Handler) http.Handler {
		fallback := local(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.limiter == nil || !m.breaker.UsePrimary() {
				fallback.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			result, err := m.limiter.Allow(ctx, models.NewKey(class, clientIP(r)), rule.Requests, rule.Window)
			if err != nil {
				if m.breaker.RecordFailure() {
					m.logger.WarnContext(ctx, "rate limiter degraded, using in-process fallback", "error", err, "class", string(class))
				} else {
					m.logger.ErrorContext(ctx, "rate limit check failed", "error", err, "class", string(class))
				}
				w.Header().Set("X-RateLimit-Status", "degraded")
				fallback.ServeHTTP(w, r)
				return
			}
			m.breaker.RecordSuccess()

			addRateLimitHeaders(w, result)
			if !result.Allowed {
				m.rejected(w, r, class, result)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m *Middleware) rejected(w http.ResponseWriter, r *http.Request, class models.EndpointClass, result *models.RateLimitResult) {
	m.logger.WarnContext(r.Context(), "rate limit exceeded",
		"class", string(class),
		"path", r.URL.Path,
		"request_id", requestcontext.RequestID(r.Context()),
	)
	if m.metrics != nil {
		m.metrics.IncrementRateLimited(string(class))
	}
	body := models.RateLimitExceededResponse{Message: MsgTooManyRequests}
	if result != nil {
		w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
		body.RetryAfter = result.RetryAfter
	}
	httputil.WriteJSON(w, http.StatusTooManyRequests, body)
}

func clientIP(r *http.Request) string {
	if ip := requestcontext.ClientIP(r.Context()); ip != "" {
		return ip
	}
	return metadata.ClientIPFromRequest(r)
}

func clientKey(r *http.Request) (string, error) {
	return clientIP(r), nil
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.RateLimitResult) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}
