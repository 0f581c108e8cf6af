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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"medbee/internal/pdfextract"
	"medbee/internal/platform/config"
	"medbee/internal/platform/httpserver"
	"medbee/internal/platform/logger"
	httptransport "medbee/internal/transport/http"
	request "medbee/pkg/platform/middleware/request"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "pdfextract: %v\n", err)
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := chi.NewRouter()
	r.Use(httptransport.Recovery(log, cfg.Server.IsDevelopment()))
	r.Use(request.RequestID)
	r.Use(httptransport.RequestLogger(log, nil))
	r.Use(cors.AllowAll().Handler)
	pdfextract.NewHandler(pdfextract.TextExtractor{}, cfg.PDF.MaxUploadBytes(), log).Register(r)

	srv := httpserver.New(cfg.PDF.Addr(), r)
	serveErr := make(chan error, 1)
	go func() {
		log.Info("pdf extract service starting", "addr", srv.Addr)
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
