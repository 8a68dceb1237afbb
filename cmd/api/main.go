package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"tdnet_xbrl/pkg/api/extraction"
	"tdnet_xbrl/pkg/core/config"
	"tdnet_xbrl/pkg/core/extract"
	"tdnet_xbrl/pkg/core/store"
)

func main() {
	cfgPath := flag.String("config", os.Getenv("TDNET_CONFIG"), "config file path")
	flag.Parse()

	// Load environment variables
	if err := config.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "[WARNING] %v\n", err)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := cfg.Logger("tdnet-api")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	records, err := store.Open(ctx, cfg.Storage)
	if err != nil {
		logger.Error().Err(err).Str("kind", cfg.Storage.Kind).Msg("Failed to open record store")
		os.Exit(1)
	}
	defer records.Close()

	orch := extract.NewOrchestrator(cfg.OrchestratorOptions(logger))
	handler := extraction.NewHandler(orch, cfg.Calendar(), records, logger, cfg.API.MaxBodyBytes)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(cfg.Extraction.DocumentTimeout + 5*time.Second))
	handler.Routes(r)

	srv := &http.Server{
		Addr:              cfg.API.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", cfg.API.Addr).
			Str("storage", cfg.Storage.Kind).
			Msg("API server listening")
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("Server failed to start")
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info().Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
		_ = srv.Close()
	}
	logger.Info().Msg("Server stopped")
}
