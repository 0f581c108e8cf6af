package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"medbee/internal/admin"
	"medbee/internal/admin/adapters"
	analyticshandler "medbee/internal/analytics/handler"
	analyticsservice "medbee/internal/analytics/service"
	authhandler "medbee/internal/auth/handler"
	"medbee/internal/auth/secrets"
	authservice "medbee/internal/auth/service"
	"medbee/internal/chat/assistant"
	chathandler "medbee/internal/chat/handler"
	chatservice "medbee/internal/chat/service"
	healthhandler "medbee/internal/health/handler"
	healthservice "medbee/internal/health/service"
	jwttoken "medbee/internal/jwt_token"
	"medbee/internal/notification/email"
	"medbee/internal/platform/config"
	"medbee/internal/platform/httpserver"
	"medbee/internal/platform/logger"
	"medbee/internal/platform/metrics"
	"medbee/internal/platform/postgres"
	platformredis "medbee/internal/platform/redis"
	rlmiddleware "medbee/internal/ratelimit/middleware"
	rlmodels "medbee/internal/ratelimit/models"
	"medbee/internal/ratelimit/store/window"
	"medbee/internal/storage"
	httptransport "medbee/internal/transport/http"
	"medbee/pkg/platform/audit"
	"medbee/pkg/platform/audit/publisher"
	"medbee/pkg/platform/audit/stream"
	authmw "medbee/pkg/platform/middleware/auth"
	"medbee/pkg/platform/middleware/metadata"
)

const (
	tokenIssuer   = "medbee"
	frontendProbe = 3 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "medbee: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	slog.SetDefault(log)

	if cfg.UsesDefaultSecret() {
		if cfg.Server.IsProduction() {
			return errors.New("JWT_SECRET must be set in production")
		}
		log.Warn("using the development JWT secret; set JWT_SECRET")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	db := postgres.NewManager(cfg.Database, log, postgres.WithMetrics(m))
	defer func() { _ = db.Close() }()
	stores, err := storage.Open(ctx, db, log)
	if err != nil {
		return err
	}
	if db.Configured() {
		go db.Monitor(ctx)
	}

	tokens := jwttoken.NewJWTService(cfg.Auth.JWTSecret, tokenIssuer)
	authOpts := []authservice.Option{authservice.WithMetrics(m)}
	if db.Configured() {
		authOpts = append(authOpts, authservice.WithTx(db))
	}
	auth := authservice.New(stores.Users, stores.Resets, tokens, secrets.NewHasher(cfg.Auth.BcryptCost),
		email.New(cfg.Email, log), log,
		authservice.Config{
			TokenTTL:      cfg.Auth.TokenTTL,
			ResetTokenTTL: cfg.Auth.ResetTokenTTL,
			FrontendURL:   cfg.Server.FrontendURL,
		},
		authOpts...,
	)
	guard := authmw.NewGuard(jwttoken.NewJWTServiceAdapter(tokens), auth, log,
		authmw.WithDenialRecorder(m),
	)

	limits, closeRedis := rateLimiter(ctx, cfg, log, m)
	defer closeRedis()

	pub, closeMirror, err := auditPublisher(cfg, stores.Audit, log, m)
	if err != nil {
		return err
	}
	recorder := audit.NewRecorder(audit.NewClassifier(), pub, log)

	chat := chatservice.New(stores.Messages, chatAssistant(cfg, log, m), log, chatservice.WithMetrics(m))
	health := healthservice.New(stores.Metrics, stores.Records, stores.Vaccinations, stores.Medications, log)
	analytics := analyticsservice.New(stores.Metrics, stores.Medications, stores.Vaccinations, stores.Users, chat, stores.Audit, log)

	clientIP, err := metadata.NewResolver(cfg.Server.TrustProxy, cfg.Server.TrustedProxies)
	if err != nil {
		return err
	}
	if cfg.Server.TrustProxy {
		log.Warn("honouring X-Forwarded-For from every peer; only safe behind a proxy that overwrites it")
	}

	adminOpts := []admin.Option{admin.WithFrontend(cfg.Server.FrontendURL, &http.Client{Timeout: frontendProbe})}
	deps := httptransport.Deps{
		Config: httptransport.Config{
			Development: cfg.Server.IsDevelopment(),
			CORSOrigins: cfg.Server.CORSOrigins,
			StartedAt:   time.Now(),
		},
		Logger:         log,
		ClientIP:       clientIP,
		Guard:          guard,
		Audit:          recorder.Middleware,
		Observer:       m,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}
	if db.Configured() {
		adminOpts = append(adminOpts, admin.WithDatabase(db))
		deps.Database = db
	}
	dashboards := admin.NewService(
		adapters.NewUserStoreAdapter(stores.Users),
		adapters.NewRequestLogAdapter(stores.Audit),
		chat, log, adminOpts...,
	)
	cookie := admin.CookieConfig{TTL: cfg.Auth.AdminCookieTTL, Secure: cfg.Server.IsProduction()}

	deps.Handlers = httptransport.Handlers{
		Auth: func(g *authmw.Guard) httptransport.Registrar {
			return authhandler.New(auth, g, log, authhandler.WithRateLimits(
				limits.Limit(rlmodels.ClassAuth, rlmodels.Rule{Requests: cfg.RateLimit.AuthRequests, Window: cfg.RateLimit.AuthWindow}),
				limits.Limit(rlmodels.ClassReset, rlmodels.Rule{Requests: cfg.RateLimit.ResetRequests, Window: cfg.RateLimit.ResetWindow}),
			))
		},
		Health: func(g *authmw.Guard) httptransport.Registrar {
			return healthhandler.New(health, g, log)
		},
		Chat: func(g *authmw.Guard) httptransport.Registrar {
			return chathandler.New(chat, g, log)
		},
		Analytics: func(g *authmw.Guard) httptransport.Registrar {
			return analyticshandler.New(analytics, g, log)
		},
		Admin: func(g *authmw.Guard) httptransport.Registrar {
			return admin.NewHandler(auth, tokens, dashboards, g, cookie, log)
		},
	}

	srv := httpserver.New(cfg.Server.Addr(), httptransport.NewRouter(deps))
	serveErr := make(chan error, 1)
	go func() {
		log.Info("server starting",
			"addr", srv.Addr,
			"env", cfg.Server.Env,
			"storage", stores.Backend,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	// Drain queued audit entries before the stores go away.
	pub.Close()
	closeMirror()
	return nil
}

// rateLimiter shares windows through Redis when REDIS_URL is set. Without it,
// or when Redis cannot be reached at startup, limits are kept per process.
func rateLimiter(ctx context.Context, cfg *config.Config, log *slog.Logger, m *metrics.Metrics) (*rlmiddleware.Middleware, func()) {
	opts := []rlmiddleware.Option{
		rlmiddleware.WithDisabled(cfg.RateLimit.Disabled),
		rlmiddleware.WithMetrics(m),
	}
	client, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		log.Warn("redis unavailable; rate limits are per process", "error", err)
	}
	if client == nil {
		return rlmiddleware.New(nil, log, opts...), func() {}
	}
	return rlmiddleware.New(window.NewRedis(client), log, opts...), func() { _ = client.Close() }
}

func auditPublisher(cfg *config.Config, store audit.Store, log *slog.Logger, m *metrics.Metrics) (*publisher.Publisher, func(), error) {
	opts := []publisher.Option{
		publisher.WithAsyncBuffer(cfg.Audit.QueueSize),
		publisher.WithLogger(log),
		publisher.WithMetrics(m),
	}
	if len(cfg.Audit.KafkaBrokers) == 0 {
		return publisher.NewPublisher(store, opts...), func() {}, nil
	}
	mirror, err := stream.NewKafkaMirror(stream.KafkaConfig{
		Brokers: cfg.Audit.KafkaBrokers,
		Topic:   cfg.Audit.Topic,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("audit mirror: %w", err)
	}
	log.Info("audit entries mirrored to kafka", "topic", cfg.Audit.Topic)
	opts = append(opts, publisher.WithMirror(mirror))
	return publisher.NewPublisher(store, opts...), mirror.Close, nil
}

func chatAssistant(cfg *config.Config, log *slog.Logger, m *metrics.Metrics) chatservice.Assistant {
	if cfg.Chat.AIServiceURL == "" {
		log.Warn("AI_SERVICE_URL not set; chat replies echo the message")
		return assistant.Echo{}
	}
	return assistant.New(cfg.Chat.AIServiceURL, log,
		assistant.WithHTTPClient(&http.Client{Timeout: cfg.Chat.Timeout}),
		assistant.WithStateRecorder(m),
	)
}
