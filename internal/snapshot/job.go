package snapshot

import (
	"context"
	"log/slog"
	"time"

	"github.com/rickgao/albion-omni/internal/api"
	"github.com/rickgao/albion-omni/internal/live"
	"github.com/rickgao/albion-omni/internal/model"
	"github.com/rickgao/albion-omni/internal/store"
)

// Job is one named sync unit.
type Job interface {
	Name() string
	Run(ctx context.Context) (Result, error)
}

// Result counts the rows a job handled.
type Result struct {
	Fetched int `json:"fetched"`
	Written int `json:"written"`
	Skipped int `json:"skipped"`
}

// Publisher pushes updates to live clients.
type Publisher interface {
	Publish(topic live.Topic, payload any) (int, error)
}

// Upstream sources consumed by the jobs.
type (
	PriceSource interface {
		GetPrices(ctx context.Context, items, locations []string, qualities []int) ([]model.MarketPrice, error)
	}
	HistorySource interface {
		GetHistory(ctx context.Context, items []string, opts api.HistoryOptions) ([]model.PriceHistory, error)
	}
	GoldSource interface {
		GetGoldPrices(ctx context.Context, count int, from, to string) ([]model.GoldPrice, error)
	}
	EventSource interface {
		GetRecentEvents(ctx context.Context, limit, offset int) ([]model.KillEvent, error)
	}
	GuildSource interface {
		GetTopGuilds(ctx context.Context, rng string, limit, offset int) ([]api.APIGuild, error)
	}
)

// Sinks the jobs write to. *store.Store implements all of them.
type (
	PriceWriter interface {
		UpsertMarketPrices(ctx context.Context, prices []model.MarketPrice) ([]model.MarketPrice, store.WriteStats, error)
	}
	HistoryWriter interface {
		UpsertPriceHistory(ctx context.Context, history []model.PriceHistory) (store.WriteStats, error)
	}
	GoldWriter interface {
		UpsertGoldPrices(ctx context.Context, prices []model.GoldPrice) (store.WriteStats, error)
	}
	EventWriter interface {
		InsertKillEvents(ctx context.Context, events []model.KillEvent) ([]model.KillEvent, store.WriteStats, error)
	}
	LeaderboardWriter interface {
		UpsertGuildLeaderboard(ctx context.Context, entries []model.GuildLeaderboardEntry) (store.WriteStats, error)
	}
)

// publish sends payload when a publisher is configured. Failures are logged.
func publish(pub Publisher, topic live.Topic, payload any, logger *slog.Logger) {
	if pub == nil {
		return
	}
	if _, err := pub.Publish(topic, payload); err != nil {
		logger.Warn("failed to publish live update", "topic", topic, "error", err)
	}
}

// snapshotDate truncates t to its UTC calendar day.
func snapshotDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
