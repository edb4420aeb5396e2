package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rickgao/albion-omni/internal/api"
	"github.com/rickgao/albion-omni/internal/arbitrage"
	"github.com/rickgao/albion-omni/internal/cache"
	"github.com/rickgao/albion-omni/internal/config"
	"github.com/rickgao/albion-omni/internal/database"
	"github.com/rickgao/albion-omni/internal/live"
	"github.com/rickgao/albion-omni/internal/server"
	"github.com/rickgao/albion-omni/internal/snapshot"
	"github.com/rickgao/albion-omni/internal/store"
	"github.com/rickgao/albion-omni/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/dashboard.local.yaml", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err, "config", *configPath)
		os.Exit(1)
	}

	logger := cfg.Log.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	logger.Info("starting dashboard",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("dashboard failed", "error", err)
		os.Exit(1)
	}
	logger.Info("dashboard stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// Connect to database
	logger.Info("connecting to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Name,
	)
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		return err
	}
	logger.Info("database connected and migrated")

	st := store.New(pool, cfg.Sync.BatchSize, logger.With("component", "store"))

	// Cache: Redis when reachable, memory always. A shared load may retry
	// every upstream attempt before giving up.
	loadTimeout := cfg.Upstream.Timeout * time.Duration(cfg.Upstream.MaxRetries+1)
	backend := cache.Open(ctx, cfg.Cache, logger.With("component", "cache"), cache.WithLoadTimeout(loadTimeout))
	defer backend.Close()

	upstream, err := api.NewRegional(cfg.Upstream, logger.With("component", "upstream"))
	if err != nil {
		return err
	}
	logger.Info("upstream clients ready", "regions", upstream.Regions())

	hub := live.NewHub(cfg.Live, logger.With("component", "live"))
	defer hub.Close()

	// Sync jobs run for one region; the runner also serves manual admin runs.
	clients, err := upstream.Lookup(cfg.Sync.Region)
	if err != nil {
		return fmt.Errorf("sync.region: %w", err)
	}
	region := clients.Region

	runner := snapshot.NewRunner(region, st, hub, cfg.Sync.RunTimeout, logger.With("component", "sync"),
		snapshot.WithCacheInvalidator(backend.Cache))
	if err := runner.Register(snapshot.DefaultJobs(cfg.Sync, clients, st, hub, logger.With("component", "sync"))...); err != nil {
		return err
	}

	var scheduler *snapshot.Scheduler
	if cfg.Sync.Enabled {
		scheduler, err = snapshot.NewScheduler(runner, cfg.Sync.Jobs, logger.With("component", "scheduler"))
		if err != nil {
			return err
		}
		if err := scheduler.Start(ctx); err != nil {
			return err
		}
	} else {
		logger.Info("sync scheduler disabled; jobs run only on admin request")
	}

	srv := server.New(cfg, server.Deps{
		Upstream:  upstream,
		Cache:     backend.Cache,
		Store:     st,
		Hub:       hub,
		Runner:    runner,
		Scheduler: scheduler,
		Scanner:   arbitrage.NewScanner(),
	}, logger.With("component", "http"))

	if err := srv.Start(ctx); err != nil {
		return err
	}

	logger.Info("dashboard running",
		"addr", srv.Addr(),
		"sync_region", region,
		"sync_enabled", cfg.Sync.Enabled,
	)

	// Wait for shutdown
	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", "error", err)
	}
	if scheduler != nil {
		if err := scheduler.Stop(shutdownCtx); err != nil {
			logger.Error("scheduler shutdown failed", "error", err)
		}
	}
	return nil
}
