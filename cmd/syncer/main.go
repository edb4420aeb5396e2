// syncer runs sync jobs once and exits, for use from an external scheduler.
//
// Usage: go run ./cmd/syncer --config configs/dashboard.local.yaml --job kill_events
//
// --job all runs every job in order. The exit status is non-zero if any job fails.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rickgao/albion-omni/internal/api"
	"github.com/rickgao/albion-omni/internal/cache"
	"github.com/rickgao/albion-omni/internal/config"
	"github.com/rickgao/albion-omni/internal/database"
	"github.com/rickgao/albion-omni/internal/model"
	"github.com/rickgao/albion-omni/internal/snapshot"
	"github.com/rickgao/albion-omni/internal/store"
	"github.com/rickgao/albion-omni/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/dashboard.local.yaml", "path to config file")
	job := flag.String("job", "all", "job to run: "+strings.Join(jobNames(), ", ")+" or all")
	region := flag.String("region", "", "region to sync (defaults to sync.region)")
	flag.Parse()

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err, "config", *configPath)
		os.Exit(1)
	}
	if *region != "" {
		cfg.Sync.Region = *region
	}

	logger := cfg.Log.NewLogger(os.Stdout)
	slog.SetDefault(logger)
	logger.Info("starting syncer", "version", version.String(), "job", *job, "region", cfg.Sync.Region)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runs, err := run(ctx, cfg, *job, logger)
	for _, r := range runs {
		logger.Info("sync run",
			"job", r.Job,
			"status", r.Status,
			"fetched", r.Fetched,
			"written", r.Written,
			"skipped", r.Skipped,
			"duration", r.FinishedAt.Sub(r.StartedAt),
		)
	}
	if err != nil {
		logger.Error("sync failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, job string, logger *slog.Logger) ([]model.SyncRun, error) {
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		return nil, err
	}

	upstream, err := api.NewRegional(cfg.Upstream, logger)
	if err != nil {
		return nil, err
	}
	clients, err := upstream.Lookup(cfg.Sync.Region)
	if err != nil {
		return nil, fmt.Errorf("sync.region: %w", err)
	}

	// Shared Redis entries written by the dashboard go stale after a sync.
	backend := cache.Open(ctx, cfg.Cache, logger)
	defer backend.Close()

	st := store.New(pool, cfg.Sync.BatchSize, logger)
	runner := snapshot.NewRunner(clients.Region, st, nil, cfg.Sync.RunTimeout, logger,
		snapshot.WithCacheInvalidator(backend.Cache))
	if err := runner.Register(snapshot.DefaultJobs(cfg.Sync, clients, st, nil, logger)...); err != nil {
		return nil, err
	}

	if job == "all" {
		return runner.RunAll(ctx)
	}
	r, err := runner.Run(ctx, job)
	if r.ID == "" {
		return nil, err
	}
	return []model.SyncRun{r}, err
}

func jobNames() []string {
	return []string{
		config.JobMarketPrices,
		config.JobGoldPrices,
		config.JobKillEvents,
		config.JobGuildLeaderboard,
		config.JobPriceHistory,
	}
}
