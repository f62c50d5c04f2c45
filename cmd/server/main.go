package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tripsync/tripsync/internal/api"
	"github.com/tripsync/tripsync/internal/catalog"
	"github.com/tripsync/tripsync/internal/config"
	"github.com/tripsync/tripsync/internal/database"
	"github.com/tripsync/tripsync/internal/logging"
	"github.com/tripsync/tripsync/internal/matching"
	"github.com/tripsync/tripsync/internal/metrics"
	"github.com/tripsync/tripsync/internal/provider"
	"github.com/tripsync/tripsync/internal/resolver"
	"github.com/tripsync/tripsync/internal/scheduler"
	"github.com/tripsync/tripsync/internal/server"
)

// resolutionMaxAge bounds how long a searched resolution is trusted.
const resolutionMaxAge = 30 * 24 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to init logger", "error", err)
		os.Exit(1)
	}

	logger.Info("starting tripsync")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	collector, err := metrics.NewCollector()
	if err != nil {
		logger.Error("failed to init metrics", "error", err)
		os.Exit(1)
	}

	// Postgres is optional; without it resolutions live in memory and run
	// history is disabled.
	var (
		db          *sql.DB
		store       resolver.Store = resolver.NewMemoryStore()
		runs        api.RunStore
		resolutions *database.ResolutionRepository
	)
	if cfg.Database.URL != "" {
		logger.Info("connecting to database")
		db, err = database.Connect(ctx, database.DefaultConfig(cfg.Database.URL))
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		logger.Info("database connected")

		if err := database.RunMigrations(ctx, db, logger); err != nil {
			logger.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}

		resolutions = database.NewResolutionRepository(db)
		store = resolutions
		runs = database.NewMatchRunRepository(db)
	} else {
		logger.Warn("DATABASE_URL not set, run history disabled")
	}

	catalogService := catalog.NewService(catalog.FileLoader{Path: cfg.Catalog.Path}, cfg.Catalog.RefreshInterval, collector, logger)
	initial, err := catalogService.Get(ctx)
	if err != nil {
		logger.Warn("failed to load catalog, continuing with default genres", "path", cfg.Catalog.Path, "error", err)
	}

	membership, err := matching.ParseMembership(cfg.Match.Membership)
	if err != nil {
		logger.Error("invalid match configuration", "error", err)
		os.Exit(1)
	}
	engine := matching.NewEngine(matching.Config{
		MaxTripDays:             cfg.Match.MaxTripDays,
		MinRunSize:              cfg.Match.MinRunSize,
		Membership:              membership,
		SlotInsensitiveIdentity: cfg.Match.SlotInsensitiveIdentity,
	}, initial.GenreMatcher(), collector, logger)

	if cfg.Provider.APIKey == "" {
		logger.Warn("PROVIDER_API_KEY not set, live matching will report provider errors")
	}
	client := provider.NewClient(cfg.Provider, logger)
	cached := provider.NewCachedSource(client, cfg.Provider.CacheTTL, collector)
	fetcher := provider.NewFetcher(cached, collector, logger)
	attractionResolver := resolver.NewAttractionResolver(client, store, logger)

	tasks := []scheduler.Task{
		{Name: "catalog", Run: func(ctx context.Context) error {
			c, err := catalogService.Refresh(ctx)
			if err != nil {
				return err
			}
			now := time.Now().UTC()
			for _, res := range c.Resolutions() {
				res.ResolvedAt = now
				if err := store.Save(ctx, res); err != nil {
					return fmt.Errorf("seed resolution %s: %w", res.NameKey, err)
				}
			}
			return nil
		}},
		{Name: "provider-cache", Run: func(context.Context) error {
			if n := cached.Purge(); n > 0 {
				logger.Debug("purged expired provider cache entries", "count", n)
			}
			return nil
		}},
	}
	if resolutions != nil {
		tasks = append(tasks, scheduler.Task{Name: "stale-resolutions", Run: func(ctx context.Context) error {
			n, err := resolutions.DeleteOlderThan(ctx, time.Now().Add(-resolutionMaxAge))
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("deleted stale resolutions", "count", n)
			}
			return nil
		}})
	}
	refresher := scheduler.NewRefresher(cfg.Catalog.RefreshInterval, logger, tasks...)
	if cfg.Catalog.RefreshInterval > 0 {
		go refresher.Start(ctx)
	} else {
		refresher.RunOnce(ctx)
	}

	checks := map[string]api.HealthCheck{}
	if db != nil {
		checks["database"] = func(ctx context.Context) error { return database.HealthCheck(ctx, db) }
	}

	mux := http.NewServeMux()
	api.SetupRoutes(mux, api.Handlers{
		Match:   api.NewMatchHandler(engine, attractionResolver, fetcher, runs, cfg.Match, logger),
		Catalog: api.NewCatalogHandler(catalogService, logger),
		Health:  api.NewHealthHandler(checks, logger),
		Metrics: collector.Handler(),
	})

	srv := server.New(cfg.Server, logger, collector.InstrumentHandler(mux))

	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("API available", "url", fmt.Sprintf("http://localhost:%s", cfg.Server.Port))

	waitForSignal(logger)

	logger.Info("shutting down")
	refresher.Stop()
	cancel()
	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
}

func waitForSignal(logger *slog.Logger) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	sig := <-c
	logger.Info("received signal", "signal", sig.String())
	signal.Stop(c)
}
