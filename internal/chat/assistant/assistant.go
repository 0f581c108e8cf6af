// Package assistant produces replies to chat messages, either from the
// configured AI upstream or by echoing.
package assistant

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	id "medbee/pkg/domain"
	dErrors "medbee/pkg/domain-errors"
)

const (
	breakerName    = "ai-upstream"
	defaultTimeout = 15 * time.Second
	maxReplyBytes  = 1 << 20
)

// MsgUnavailable is returned while the upstream is failing or the breaker is open.
const MsgUnavailable = "AI service is unavailable, please try again later"

// Echo replies with the message itself. It stands in when no upstream is
// configured.
type Echo struct{}

func (Echo) Reply(_ context.Context, _ id.UserID, message string) (string, error) {
	return "Echo: " + message, nil
}

// StateRecorder observes breaker transitions.
type StateRecorder interface {
	SetBreakerState(name string, state int)
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.http = c
	}
}

func WithStateRecorder(r StateRecorder) Option {
	return func(cl *Client) {
		cl.recorder = r
	}
}

// WithBreakerSettings overrides the trip policy. Name and OnStateChange are
// always set by the client.
func WithBreakerSettings(s gobreaker.Settings) Option {
	return func(cl *Client) {
		cl.settings = s
	}
}

// Client calls the AI upstream through a circuit breaker.
type Client struct {
	url      string
	http     *http.Client
	logger   *slog.Logger
	recorder StateRecorder
	settings gobreaker.Settings
	cb       *gobreaker.CircuitBreaker[string]
}

type upstreamRequest struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

type upstreamResponse struct {
	Response string `json:"response"`
}

// New builds a client for url. The breaker opens after five consecutive
// failures and probes again after thirty seconds.
func New(url string, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		url:    url,
		http:   &http.Client{Timeout: defaultTimeout},
		logger: logger,
		settings: gobreaker.Settings{
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.settings.Name = breakerName
	c.settings.OnStateChange = c.onStateChange
	c.cb = gobreaker.NewCircuitBreaker[string](c.settings)
	if c.recorder != nil {
		c.recorder.SetBreakerState(breakerName, int(gobreaker.StateClosed))
	}
	return c
}

// State reports the breaker state.
func (c *Client) State() gobreaker.State { return c.cb.State() }

// Reply forwards message to the upstream. Failures and an open breaker both
// surface as CodeUnavailable.
func (c *Client) Reply(ctx context.Context, userID id.UserID, message string) (string, error) {
	reply, err := c.cb.Execute(func() (string, error) {
		return c.call(ctx, userID, message)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.logger.WarnContext(ctx, "ai upstream rejected by circuit breaker", "state", c.cb.State().String())
		} else {
			c.logger.ErrorContext(ctx, "ai upstream call failed", "error", err)
		}
		return "", dErrors.Wrap(err, dErrors.CodeUnavailable, MsgUnavailable)
	}
	return reply, nil
}

func (c *Client) call(ctx context.Context, userID id.UserID, message string) (string, error) {
	body, err := json.Marshal(upstreamRequest{Message: message, UserID: userID.String()})
	if err != nil {
		return "", fmt.Errorf("encode ai request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build ai request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("ai request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return "", fmt.Errorf("read ai response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ai upstream returned %d", resp.StatusCode)
	}
	var out upstreamResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode ai response: %w", err)
	}
	if out.Response == "" {
		return "", errors.New("ai upstream returned an empty response")
	}
	return out.Response, nil
}

func (c *Client) onStateChange(name string, from, to gobreaker.State) {
	c.logger.Info("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
	if c.recorder != nil {
		c.recorder.SetBreakerState(name, int(to))
	}
}
