package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/lucasmnd/storemap/internal/claim"
	"github.com/lucasmnd/storemap/internal/collector"
	"github.com/lucasmnd/storemap/internal/config"
	"github.com/lucasmnd/storemap/internal/directory"
	"github.com/lucasmnd/storemap/internal/logging"
	"github.com/lucasmnd/storemap/internal/marker"
	"github.com/lucasmnd/storemap/internal/places"
	"github.com/lucasmnd/storemap/internal/seed"
	"github.com/lucasmnd/storemap/internal/server"
	"github.com/lucasmnd/storemap/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)

	repo, err := buildRepository(logger, cfg)
	if err != nil {
		logger.Error("failed to open store repository", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Warn("closing store repository failed", "error", err)
		}
	}()

	dataset, err := seed.Load()
	if err != nil {
		logger.Error("failed to load bundled store dataset", "error", err)
		os.Exit(1)
	}

	var searcher places.Searcher
	if cfg.Places.BaseURL != "" {
		searcher = places.NewClient(cfg.Places)
	} else {
		logger.Info("place search not configured; live source disabled")
	}

	col := collector.New(repo, dataset, searcher, logger)
	markers := marker.NewManager(nil)
	dir := directory.NewService(col, markers, cfg.Directory.RefreshInterval,
		cfg.Directory.DefaultLat, cfg.Directory.DefaultLng, logger)
	claims := claim.NewCoordinator(repo, dataset, logger)

	var metrics *server.Metrics
	if cfg.HTTP.MetricsEnabled {
		metrics = server.NewMetrics()
	}

	fallback := places.Position{Lat: cfg.Directory.DefaultLat, Lng: cfg.Directory.DefaultLng}
	locator := places.StaticLocator{Pos: fallback}
	api := server.NewAPIHandlers(logger, dir, claims, metrics, locator, fallback)
	router := server.NewRouter(logger, server.RouterDependencies{
		Health:           server.StoreHealthService{Repo: repo},
		API:              api,
		Metrics:          metrics,
		AllowedOrigins:   parseAllowedOrigins(cfg.HTTP.AllowedOriginsCSV),
		AllowCredentials: true,
	})

	srv := server.New(logger, cfg.HTTP, router)

	refreshCtx, stopRefresh := context.WithCancel(context.Background())
	defer stopRefresh()
	go dir.Run(refreshCtx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("server stopped unexpectedly", "error", err)
		}
	}

	stopRefresh()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

func buildRepository(logger *slog.Logger, cfg config.Config) (store.Repository, error) {
	if cfg.Store.Path == "" {
		logger.Info("no database path configured; using in-memory store table")
		return store.NewMemoryRepository(), nil
	}
	logger.Info("opening store table", "path", cfg.Store.Path)
	return store.NewSQLiteRepository(cfg.Store.Path)
}

func parseAllowedOrigins(csv string) []string {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	var origins []string
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin == "" {
			continue
		}
		origins = append(origins, origin)
	}
	return origins
}
