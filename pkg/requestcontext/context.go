// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// This package defines context keys and getter/setter functions for values that are
// typically set by middleware but consumed by services and the audit pipeline. By keeping
// this package free of net/http dependencies, services can import only what they need.
//
// Usage in services (read values):
//
//	principal, ok := requestcontext.PrincipalFrom(ctx)
//	requestID := requestcontext.RequestID(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in middleware (set values):
//
//	ctx = requestcontext.WithPrincipalSlot(ctx)
//	ctx = requestcontext.BindPrincipal(ctx, principal)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"sync"
	"time"

	id "medbee/pkg/domain"
)

// Context key types (unexported for encapsulation).
type (
	principalKey     struct{}
	principalSlotKey struct{}
	clientIPKey      struct{}
	userAgentKey     struct{}
	requestIDKey     struct{}
	requestTimeKey   struct{}
)

// Exported context keys for direct use in tests that need context.WithValue.
var (
	ContextKeyPrincipal   = principalKey{}
	ContextKeyClientIP    = clientIPKey{}
	ContextKeyUserAgent   = userAgentKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// -----------------------------------------------------------------------------
// Principal (authenticated actor)
// -----------------------------------------------------------------------------

// Principal is the authenticated actor as seen by request-scoped consumers.
type Principal struct {
	UserID id.UserID
	Email  string
	Role   string
}

// principalSlot is a per-request holder created by an outer middleware so that
// an identity resolved further down the chain is visible once the handler returns.
type principalSlot struct {
	mu        sync.Mutex
	principal *Principal
}

// WithPrincipalSlot installs an empty principal slot in the context.
func WithPrincipalSlot(ctx context.Context) context.Context {
	return context.WithValue(ctx, principalSlotKey{}, &principalSlot{})
}

// BindPrincipal attaches p to the returned context and fills the request's
// principal slot when one was installed upstream.
func BindPrincipal(ctx context.Context, p Principal) context.Context {
	if slot, ok := ctx.Value(principalSlotKey{}).(*principalSlot); ok {
		slot.mu.Lock()
		bound := p
		slot.principal = &bound
		slot.mu.Unlock()
	}
	return context.WithValue(ctx, ContextKeyPrincipal, p)
}

// PrincipalFrom returns the principal attached to ctx. When ctx only carries
// the slot (the outer middleware's view) the slot's content is returned.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	if p, ok := ctx.Value(ContextKeyPrincipal).(Principal); ok {
		return p, true
	}
	if slot, ok := ctx.Value(principalSlotKey{}).(*principalSlot); ok {
		slot.mu.Lock()
		defer slot.mu.Unlock()
		if slot.principal != nil {
			return *slot.principal, true
		}
	}
	return Principal{}, false
}

// UserID returns the authenticated user's ID, or the zero value.
func UserID(ctx context.Context) id.UserID {
	p, _ := PrincipalFrom(ctx)
	return p.UserID
}

// -----------------------------------------------------------------------------
// Client metadata (IP, User-Agent)
// -----------------------------------------------------------------------------

// ClientIP retrieves the client IP address from the context.
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(ContextKeyClientIP).(string); ok {
		return ip
	}
	return ""
}

// UserAgent retrieves the User-Agent from the context.
func UserAgent(ctx context.Context) string {
	if ua, ok := ctx.Value(ContextKeyUserAgent).(string); ok {
		return ua
	}
	return ""
}

// WithClientMetadata injects client IP and User-Agent into a context.
// Useful for service unit tests that don't run the full HTTP middleware chain.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, ContextKeyClientIP, clientIP)
	ctx = context.WithValue(ctx, ContextKeyUserAgent, userAgent)
	return ctx
}

// -----------------------------------------------------------------------------
// Request metadata
// -----------------------------------------------------------------------------

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// -----------------------------------------------------------------------------
// Request time
// -----------------------------------------------------------------------------

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (for non-HTTP contexts like workers, CLI, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
// Useful for:
//   - Service unit tests that don't run the full HTTP middleware chain
//   - Workers that need consistent time within a batch operation
//   - CLI commands
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
