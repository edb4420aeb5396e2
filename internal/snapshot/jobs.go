package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rickgao/albion-omni/internal/api"
	"github.com/rickgao/albion-omni/internal/config"
	"github.com/rickgao/albion-omni/internal/live"
	"github.com/rickgao/albion-omni/internal/model"
)

// -----------------------------------------------------------------------------
// Market prices
// -----------------------------------------------------------------------------

// MarketPricesJob snapshots current prices for the tracked items.
type MarketPricesJob struct {
	src       PriceSource
	dst       PriceWriter
	pub       Publisher
	items     []string
	locations []string
	qualities []int
	logger    *slog.Logger
}

// NewMarketPricesJob creates the market price job.
func NewMarketPricesJob(src PriceSource, dst PriceWriter, pub Publisher, items, locations []string, qualities []int, logger *slog.Logger) *MarketPricesJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &MarketPricesJob{
		src:       src,
		dst:       dst,
		pub:       pub,
		items:     items,
		locations: locations,
		qualities: qualities,
		logger:    logger,
	}
}

func (j *MarketPricesJob) Name() string { return config.JobMarketPrices }

// Run fetches prices and upserts every row that has at least one order.
// Only rows the upsert changed are published.
func (j *MarketPricesJob) Run(ctx context.Context) (Result, error) {
	prices, err := j.src.GetPrices(ctx, j.items, j.locations, j.qualities)
	if err != nil {
		return Result{}, err
	}

	res := Result{Fetched: len(prices)}
	rows := make([]model.MarketPrice, 0, len(prices))
	for _, p := range prices {
		if p.IsEmpty() {
			res.Skipped++
			continue
		}
		rows = append(rows, p)
	}

	written, stats, err := j.dst.UpsertMarketPrices(ctx, rows)
	res.Written = stats.Written
	res.Skipped += stats.Unchanged
	if err != nil {
		return res, err
	}

	if len(written) > 0 {
		publish(j.pub, live.TopicPrices, written, j.logger)
	}
	return res, nil
}

// -----------------------------------------------------------------------------
// Price history
// -----------------------------------------------------------------------------

// PriceHistoryJob stores bucketed trade history for the tracked items.
type PriceHistoryJob struct {
	src       HistorySource
	dst       HistoryWriter
	items     []string
	locations []string
	qualities []int
	timeScale int
	logger    *slog.Logger
}

// NewPriceHistoryJob creates the price history job. timeScale is the bucket
// width in hours.
func NewPriceHistoryJob(src HistorySource, dst HistoryWriter, items, locations []string, qualities []int, timeScale int, logger *slog.Logger) *PriceHistoryJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &PriceHistoryJob{
		src:       src,
		dst:       dst,
		items:     items,
		locations: locations,
		qualities: qualities,
		timeScale: timeScale,
		logger:    logger,
	}
}

func (j *PriceHistoryJob) Name() string { return config.JobPriceHistory }

// Run fetches the upstream's default history window and upserts every point.
// Fetched counts points, not series.
func (j *PriceHistoryJob) Run(ctx context.Context) (Result, error) {
	history, err := j.src.GetHistory(ctx, j.items, api.HistoryOptions{
		Locations: j.locations,
		Qualities: j.qualities,
		TimeScale: j.timeScale,
	})
	if err != nil {
		return Result{}, err
	}

	var res Result
	for _, h := range history {
		res.Fetched += len(h.Points)
	}

	stats, err := j.dst.UpsertPriceHistory(ctx, history)
	res.Written = stats.Written
	res.Skipped = stats.Unchanged
	return res, err
}

// -----------------------------------------------------------------------------
// Gold prices
// -----------------------------------------------------------------------------

// GoldPricesJob snapshots the most recent gold price points.
type GoldPricesJob struct {
	src    GoldSource
	dst    GoldWriter
	pub    Publisher
	count  int
	logger *slog.Logger
}

// NewGoldPricesJob creates the gold price job.
func NewGoldPricesJob(src GoldSource, dst GoldWriter, pub Publisher, count int, logger *slog.Logger) *GoldPricesJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &GoldPricesJob{src: src, dst: dst, pub: pub, count: count, logger: logger}
}

func (j *GoldPricesJob) Name() string { return config.JobGoldPrices }

// Run fetches the last count points and publishes the newest one.
func (j *GoldPricesJob) Run(ctx context.Context) (Result, error) {
	prices, err := j.src.GetGoldPrices(ctx, j.count, "", "")
	if err != nil {
		return Result{}, err
	}

	stats, err := j.dst.UpsertGoldPrices(ctx, prices)
	res := Result{Fetched: len(prices), Written: stats.Written, Skipped: stats.Unchanged}
	if err != nil {
		return res, err
	}

	if len(prices) > 0 {
		latest := prices[0]
		for _, p := range prices[1:] {
			if p.Timestamp.After(latest.Timestamp) {
				latest = p
			}
		}
		publish(j.pub, live.TopicGold, latest, j.logger)
	}
	return res, nil
}

// -----------------------------------------------------------------------------
// Kill events
// -----------------------------------------------------------------------------

// KillEventsJob pages through the most recent kill events and stores new ones.
type KillEventsJob struct {
	src    EventSource
	dst    EventWriter
	pub    Publisher
	pages  int
	logger *slog.Logger
}

// NewKillEventsJob creates the kill event job reading up to pages pages.
func NewKillEventsJob(src EventSource, dst EventWriter, pub Publisher, pages int, logger *slog.Logger) *KillEventsJob {
	if logger == nil {
		logger = slog.Default()
	}
	if pages < 1 {
		pages = 1
	}
	return &KillEventsJob{src: src, dst: dst, pub: pub, pages: pages, logger: logger}
}

func (j *KillEventsJob) Name() string { return config.JobKillEvents }

// Run reads pages of api.MaxEventsLimit events. A failure after the first page
// keeps what was already read. Only newly inserted events are published.
func (j *KillEventsJob) Run(ctx context.Context) (Result, error) {
	var res Result
	seen := make(map[int64]bool)
	var events []model.KillEvent

	for page := 0; page < j.pages; page++ {
		offset := page * api.MaxEventsLimit
		if offset > api.MaxEventsOffset {
			break
		}

		batch, err := j.src.GetRecentEvents(ctx, api.MaxEventsLimit, offset)
		if err != nil {
			if page == 0 {
				return res, err
			}
			j.logger.Warn("kill event page failed, keeping earlier pages",
				"page", page,
				"offset", offset,
				"error", err,
			)
			break
		}

		res.Fetched += len(batch)
		for _, e := range batch {
			// New events shift later pages, so the same event can appear twice.
			if seen[e.EventID] {
				res.Skipped++
				continue
			}
			seen[e.EventID] = true
			events = append(events, e)
		}

		if len(batch) < api.MaxEventsLimit {
			break
		}
	}

	inserted, stats, err := j.dst.InsertKillEvents(ctx, events)
	res.Written = stats.Written
	res.Skipped += stats.Unchanged
	if err != nil {
		return res, err
	}

	if len(inserted) > 0 {
		publish(j.pub, live.TopicKills, inserted, j.logger)
	}
	return res, nil
}

// -----------------------------------------------------------------------------
// Guild leaderboard
// -----------------------------------------------------------------------------

// GuildLeaderboardJob stores a dated snapshot of the top guilds.
type GuildLeaderboardJob struct {
	src    GuildSource
	dst    LeaderboardWriter
	pub    Publisher
	region model.Region
	rng    string
	limit  int
	now    func() time.Time
	logger *slog.Logger
}

// NewGuildLeaderboardJob creates the leaderboard job for range rng.
func NewGuildLeaderboardJob(src GuildSource, dst LeaderboardWriter, pub Publisher, region model.Region, rng string, limit int, logger *slog.Logger) *GuildLeaderboardJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &GuildLeaderboardJob{
		src:    src,
		dst:    dst,
		pub:    pub,
		region: region,
		rng:    rng,
		limit:  limit,
		now:    time.Now,
		logger: logger,
	}
}

func (j *GuildLeaderboardJob) Name() string { return config.JobGuildLeaderboard }

// Run ranks guilds by their position in the upstream response.
func (j *GuildLeaderboardJob) Run(ctx context.Context) (Result, error) {
	guilds, err := j.src.GetTopGuilds(ctx, j.rng, j.limit, 0)
	if err != nil {
		return Result{}, err
	}

	res := Result{Fetched: len(guilds)}
	date := snapshotDate(j.now())
	entries := make([]model.GuildLeaderboardEntry, 0, len(guilds))
	for i := range guilds {
		if guilds[i].ID == "" {
			res.Skipped++
			continue
		}
		entries = append(entries, guilds[i].ToLeaderboardEntry(j.region, date, j.rng, i+1))
	}

	stats, err := j.dst.UpsertGuildLeaderboard(ctx, entries)
	res.Written = stats.Written
	res.Skipped += stats.Unchanged
	if err != nil {
		return res, fmt.Errorf("leaderboard %s: %w", date.Format(time.DateOnly), err)
	}

	if len(entries) > 0 {
		publish(j.pub, live.TopicGuilds, entries, j.logger)
	}
	return res, nil
}
