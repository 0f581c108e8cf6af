// Package auth implements the access guard and role gate.
//
// Handlers that need an authenticated caller are written as AuthenticatedFunc.
// The only way to turn one into an http.Handler is Guard.Protect, so a role
// gate or handler can never be mounted without the guard in front of it.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	id "medbee/pkg/domain"
	"medbee/pkg/platform/sentinel"
	request "medbee/pkg/platform/middleware/request"
	"medbee/pkg/requestcontext"
)

// TokenCookieName is the cookie consulted when no bearer header is present.
const TokenCookieName = "token"

const (
	MsgNotAuthorized = "Not authorized to access this route"
	MsgUserNotFound  = "User not found"
	MsgAdminRequired = "Not authorized to access this route. Admin access required."
)

// Role is the coarse authorization level of a user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// TokenClaims represents the claims we expect from the token verifier.
type TokenClaims struct {
	UserID    string
	ExpiresAt time.Time
}

// TokenVerifier defines the interface for validating signed tokens.
type TokenVerifier interface {
	ValidateToken(tokenString string) (*TokenClaims, error)
}

// IdentityResolver loads the identity for a verified subject. It returns
// sentinel.ErrNotFound when the subject no longer exists.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, userID id.UserID) (*Identity, error)
}

// DenialRecorder counts guard and gate denials by reason.
type DenialRecorder interface {
	IncrementAuthDenied(reason string)
}

// Identity is the resolved caller. It never carries credentials.
type Identity struct {
	ID        id.UserID `json:"_id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Role      Role      `json:"role"`
}

// IsAdmin reports whether the identity holds the admin role.
func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// AuthenticatedFunc is a handler that runs only after the guard attached an identity.
type AuthenticatedFunc func(w http.ResponseWriter, r *http.Request, identity Identity)

type contextKeyIdentity struct{}

// IdentityFrom returns the identity attached by the guard.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(contextKeyIdentity{}).(Identity)
	return identity, ok
}

// WithIdentity attaches identity to ctx and binds it for the audit recorder.
// Exported for handler unit tests that bypass the guard.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	ctx = requestcontext.BindPrincipal(ctx, requestcontext.Principal{
		UserID: identity.ID,
		Email:  identity.Email,
		Role:   string(identity.Role),
	})
	return context.WithValue(ctx, contextKeyIdentity{}, identity)
}

// Guard verifies credentials and resolves identities.
type Guard struct {
	verifier TokenVerifier
	resolver IdentityResolver
	logger   *slog.Logger
	failure  FailureMode
	denials  DenialRecorder
	tracer   trace.Tracer
}

type Option func(*Guard)

// WithFailureMode sets how denials are rendered. Defaults to JSON.
func WithFailureMode(mode FailureMode) Option {
	return func(g *Guard) {
		g.failure = mode
	}
}

func WithDenialRecorder(r DenialRecorder) Option {
	return func(g *Guard) {
		g.denials = r
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(g *Guard) {
		g.tracer = t
	}
}

// NewGuard builds a guard rendering failures as JSON unless overridden.
func NewGuard(verifier TokenVerifier, resolver IdentityResolver, logger *slog.Logger, opts ...Option) *Guard {
	g := &Guard{
		verifier: verifier,
		resolver: resolver,
		logger:   logger,
		failure:  JSONFailure(),
		tracer:   otel.Tracer("medbee/auth"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// WithFailure returns a copy of the guard that renders denials with mode.
// Route groups use it to declare their failure mode.
func (g *Guard) WithFailure(mode FailureMode) *Guard {
	clone := *g
	clone.failure = mode
	return &clone
}

// Failure returns the guard's denial renderer.
func (g *Guard) Failure() FailureMode { return g.failure }

// Protect requires a valid credential for an existing user before next runs.
// An identity already attached by Identify on the same request is reused.
func (g *Guard) Protect(next AuthenticatedFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if identity, ok := IdentityFrom(r.Context()); ok {
			next(w, r, identity)
			return
		}
		identity, reason, err := g.authenticate(r)
		if err != nil {
			ctx := r.Context()
			g.logger.WarnContext(ctx, "unauthorized access - "+reason,
				"error", err,
				"path", r.URL.Path,
				"request_id", request.GetRequestID(ctx),
			)
			g.recordDenial(reason)
			msg := MsgNotAuthorized
			if reason == reasonUnknownSubject {
				msg = MsgUserNotFound
			}
			g.failure.Deny(w, r, http.StatusUnauthorized, msg)
			return
		}
		next(w, r.WithContext(WithIdentity(r.Context(), *identity)), *identity)
	}
}

// RequireRole is the role gate. It only accepts an AuthenticatedFunc, so it
// always runs behind Protect.
func (g *Guard) RequireRole(role Role, next AuthenticatedFunc) AuthenticatedFunc {
	return func(w http.ResponseWriter, r *http.Request, identity Identity) {
		if identity.Role != role {
			ctx := r.Context()
			g.logger.WarnContext(ctx, "forbidden - role required",
				"required_role", role,
				"user_id", identity.ID.String(),
				"path", r.URL.Path,
				"request_id", request.GetRequestID(ctx),
			)
			g.recordDenial("role_mismatch")
			g.failure.Deny(w, r, http.StatusForbidden, MsgAdminRequired)
			return
		}
		next(w, r, identity)
	}
}

// Admin is Protect followed by the admin role gate.
func (g *Guard) Admin(next AuthenticatedFunc) http.HandlerFunc {
	return g.Protect(g.RequireRole(RoleAdmin, next))
}

// Identify attaches an identity when the request carries a valid credential
// and otherwise continues anonymously. Used on public routes.
func (g *Guard) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if extractToken(r) == "" {
			next.ServeHTTP(w, r)
			return
		}
		identity, _, err := g.authenticate(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), *identity)))
	})
}

const (
	reasonMissingToken   = "missing token"
	reasonInvalidToken   = "invalid token"
	reasonUnknownSubject = "unknown subject"
	reasonLookupFailed   = "identity lookup failed"
)

var errMissingToken = errors.New("no bearer header or token cookie")

func (g *Guard) authenticate(r *http.Request) (*Identity, string, error) {
	token := extractToken(r)
	if token == "" {
		return nil, reasonMissingToken, errMissingToken
	}
	claims, err := g.verifier.ValidateToken(token)
	if err != nil {
		return nil, reasonInvalidToken, err
	}
	userID, err := id.ParseUserID(claims.UserID)
	if err != nil {
		return nil, reasonInvalidToken, err
	}

	ctx, span := g.tracer.Start(r.Context(), "auth.resolve_identity",
		trace.WithAttributes(attribute.String("user.id", userID.String())))
	defer span.End()

	identity, err := g.resolver.ResolveIdentity(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "identity lookup failed")
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, reasonUnknownSubject, err
		}
		return nil, reasonLookupFailed, err
	}
	return identity, "", nil
}

func (g *Guard) recordDenial(reason string) {
	if g.denials != nil {
		g.denials.IncrementAuthDenied(strings.ReplaceAll(reason, " ", "_"))
	}
}

// extractToken reads the Authorization header when it carries the Bearer
// scheme and the token cookie otherwise. A Bearer header without a token is
// treated as no credential; the cookie is not consulted.
func extractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer") {
		fields := strings.Split(header, " ")
		if len(fields) < 2 {
			return ""
		}
		return fields[1]
	}
	if cookie, err := r.Cookie(TokenCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return ""
}
