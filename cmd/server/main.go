// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/smartdiscovery/internal/api"
	"github.com/tomtom215/smartdiscovery/internal/config"
	"github.com/tomtom215/smartdiscovery/internal/database"
	"github.com/tomtom215/smartdiscovery/internal/logging"
	"github.com/tomtom215/smartdiscovery/internal/middleware"
	"github.com/tomtom215/smartdiscovery/internal/ownership"
	"github.com/tomtom215/smartdiscovery/internal/supervisor"
	"github.com/tomtom215/smartdiscovery/internal/supervisor/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const (
	perfWindow        = 1000
	slowRequestCutoff = 5 * time.Second
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
		Output: os.Stderr,
	})

	logging.Info().
		Str("version", version).
		Str("db_path", cfg.Database.Path).
		Str("plex_url", cfg.Plex.URL).
		Msg("Starting Smart Discovery")

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Server exited with error")
	}
	logging.Info().Msg("Application stopped gracefully")
}

func run(cfg *config.Config) error {
	db, err := database.New(&cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// A crash mid-scan leaves its lease behind.
	if err := ownership.ClearStaleLeases(ctx, db, cfg.Scanner.MaxScanDuration); err != nil {
		logging.Warn().Err(err).Msg("Failed to clear stale scan leases")
	}

	c, scans, err := initComponents(cfg, db)
	if err != nil {
		return err
	}
	defer func() {
		if err := c.sessions.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing session store")
		}
	}()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return err
	}

	for _, mt := range maintenanceTasks(cfg, c, scans) {
		tree.AddMaintenanceService(services.NewPeriodicService(mt.name, mt.task, mt.cfg))
	}

	perfMon := middleware.NewPerformanceMonitor(perfWindow, slowRequestCutoff)
	handler := api.NewHandler(c.service, db, perfMon, version)
	handler.RegisterBreaker("tmdb", c.catalog)
	handler.RegisterBreaker("plex", c.plex)
	if c.tautulli != nil {
		handler.RegisterBreaker("tautulli", c.tautulli)
	}
	router := api.NewRouter(handler, api.NewChiMiddleware(api.ChiMiddlewareConfigFrom(&cfg.Server)), perfMon)

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.Setup(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}
	return nil
}
