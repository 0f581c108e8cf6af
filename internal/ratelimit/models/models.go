package models

import "time"

// EndpointClass groups routes that share a limit.
type EndpointClass string

const (
	// ClassAuth covers registration and login.
	ClassAuth EndpointClass = "auth"
	// ClassReset covers forgot-password and reset-password.
	ClassReset EndpointClass = "reset"
)

// Rule is a fixed-window limit: Requests per Window for one client.
type Rule struct {
	Requests int
	Window   time.Duration
}

// RateLimitResult represents the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed    bool      `json:"allowed"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
	RetryAfter int       `json:"retry_after,omitempty"` // seconds, only set when not allowed
}

// NewKey builds the window key for a client within a class.
func NewKey(class EndpointClass, client string) string {
	return string(class) + ":" + client
}
