// Package httptransport assembles the HTTP pipeline: the global middleware
// chain, the service endpoints, and one mounted group per API surface. Each
// group declares how guard denials are rendered.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"medbee/internal/admin"
	"medbee/internal/platform/postgres"
	authmw "medbee/pkg/platform/middleware/auth"
	metadata "medbee/pkg/platform/middleware/metadata"
	request "medbee/pkg/platform/middleware/request"
)

// Registrar mounts a handler's routes on its group router.
type Registrar interface {
	Register(r chi.Router)
}

// Builder constructs a group's handler around the group's guard.
type Builder func(guard *authmw.Guard) Registrar

// Handlers holds one builder per API surface. Nil builders are skipped.
type Handlers struct {
	Auth      Builder
	Health    Builder
	Chat      Builder
	Analytics Builder
	Admin     Builder
}

// RouteGroup is one row of the routing table.
type RouteGroup struct {
	Prefix  string
	Failure authmw.FailureMode
	// Identify attaches an identity to anonymous routes when a valid
	// credential is presented, so audited public routes know their actor.
	Identify bool
	Build    Builder
}

// Routes is the routing table.
func Routes(h Handlers) []RouteGroup {
	return []RouteGroup{
		{Prefix: "/api/v1/auth", Failure: authmw.JSONFailure(), Identify: true, Build: h.Auth},
		{Prefix: "/api/v1/health", Failure: authmw.JSONFailure(), Build: h.Health},
		{Prefix: "/api/v1/chat", Failure: authmw.JSONFailure(), Build: h.Chat},
		{Prefix: "/api/v1/analytics", Failure: authmw.JSONFailure(), Build: h.Analytics},
		{Prefix: "/admin", Failure: authmw.RedirectFailure(admin.LoginPath), Build: h.Admin},
	}
}

// DatabaseState reports the connection manager's last observed state.
type DatabaseState interface {
	State() postgres.State
}

type Config struct {
	Development bool
	CORSOrigins []string
	StartedAt   time.Time
}

// Deps are the collaborators of the pipeline. Audit, Observer, Database,
// ClientIP and MetricsHandler are optional. Without ClientIP the socket peer
// is the client address.
type Deps struct {
	Config         Config
	Logger         *slog.Logger
	ClientIP       *metadata.Resolver
	Guard          *authmw.Guard
	Audit          func(http.Handler) http.Handler
	Observer       RequestObserver
	Database       DatabaseState
	MetricsHandler http.Handler
	Handlers       Handlers
}

// NewRouter builds the pipeline:
// Recovery, RequestID, ClientMetadata, request logging, Audit, CORS and
// security headers, then the route groups.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(Recovery(d.Logger, d.Config.Development))
	r.Use(request.RequestID)
	if d.ClientIP != nil {
		r.Use(d.ClientIP.Middleware)
	} else {
		r.Use(metadata.ClientMetadata)
	}
	r.Use(RequestLogger(d.Logger, d.Observer))
	if d.Audit != nil {
		r.Use(d.Audit)
	}
	r.Use(cors.Handler(corsOptions(d.Config.CORSOrigins)))
	r.Use(SecurityHeaders)

	svc := &serviceHandler{startedAt: d.Config.StartedAt, database: d.Database}
	r.Get("/", svc.handleInfo)
	r.Get("/health", svc.handleHealth)
	if d.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", d.MetricsHandler)
	}

	for _, group := range Routes(d.Handlers) {
		if group.Build == nil {
			continue
		}
		guard := d.Guard.WithFailure(group.Failure)
		r.Route(group.Prefix, func(gr chi.Router) {
			if group.Identify {
				gr.Use(guard.Identify)
			}
			group.Build(guard).Register(gr)
		})
	}

	r.NotFound(notFound(d.Config.Development))
	r.MethodNotAllowed(notFound(d.Config.Development))
	return r
}

// corsOptions allows every origin when none are configured.
func corsOptions(origins []string) cors.Options {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", request.HeaderRequestID},
		ExposedHeaders:   []string{request.HeaderRequestID},
		AllowCredentials: false,
		MaxAge:           86400,
	}
}
