package snapshot

import (
	"context"
	"sync"

	"github.com/rickgao/albion-omni/internal/api"
	"github.com/rickgao/albion-omni/internal/live"
	"github.com/rickgao/albion-omni/internal/model"
	"github.com/rickgao/albion-omni/internal/store"
)

type published struct {
	topic   live.Topic
	payload any
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
}

func (p *fakePublisher) Publish(topic live.Topic, payload any) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, published{topic, payload})
	return 1, nil
}

func (p *fakePublisher) topics() []live.Topic {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]live.Topic, len(p.msgs))
	for i, m := range p.msgs {
		out[i] = m.topic
	}
	return out
}

type fakeSource struct {
	prices  []model.MarketPrice
	history []model.PriceHistory
	gold    []model.GoldPrice
	pages   map[int][]model.KillEvent // by offset
	pageErr map[int]error
	guilds  []api.APIGuild
	err     error

	offsets     []int
	historyOpts api.HistoryOptions
}

func (f *fakeSource) GetPrices(ctx context.Context, items, locations []string, qualities []int) ([]model.MarketPrice, error) {
	return f.prices, f.err
}

func (f *fakeSource) GetHistory(ctx context.Context, items []string, opts api.HistoryOptions) ([]model.PriceHistory, error) {
	f.historyOpts = opts
	return f.history, f.err
}

func (f *fakeSource) GetGoldPrices(ctx context.Context, count int, from, to string) ([]model.GoldPrice, error) {
	return f.gold, f.err
}

func (f *fakeSource) GetRecentEvents(ctx context.Context, limit, offset int) ([]model.KillEvent, error) {
	f.offsets = append(f.offsets, offset)
	if err := f.pageErr[offset]; err != nil {
		return nil, err
	}
	return f.pages[offset], f.err
}

func (f *fakeSource) GetTopGuilds(ctx context.Context, rng string, limit, offset int) ([]api.APIGuild, error) {
	return f.guilds, f.err
}

// fakeSink records writes and treats ids in existing as already stored.
type fakeSink struct {
	prices  []model.MarketPrice
	history []model.PriceHistory
	gold    []model.GoldPrice
	events  []model.KillEvent
	entries []model.GuildLeaderboardEntry

	existing  map[int64]bool
	unchanged map[string]bool // cities whose price rows the upsert leaves as they are
	err       error
}

func (s *fakeSink) UpsertMarketPrices(ctx context.Context, prices []model.MarketPrice) ([]model.MarketPrice, store.WriteStats, error) {
	if s.err != nil {
		return nil, store.WriteStats{}, s.err
	}
	var written []model.MarketPrice
	var stats store.WriteStats
	for _, p := range prices {
		s.prices = append(s.prices, p)
		if s.unchanged[p.City] {
			stats.Unchanged++
			continue
		}
		stats.Written++
		written = append(written, p)
	}
	return written, stats, nil
}

func (s *fakeSink) UpsertPriceHistory(ctx context.Context, history []model.PriceHistory) (store.WriteStats, error) {
	s.history = append(s.history, history...)
	var n int
	for _, h := range history {
		n += len(h.Points)
	}
	return store.WriteStats{Written: n}, s.err
}

func (s *fakeSink) UpsertGoldPrices(ctx context.Context, prices []model.GoldPrice) (store.WriteStats, error) {
	s.gold = append(s.gold, prices...)
	return store.WriteStats{Written: len(prices)}, s.err
}

func (s *fakeSink) InsertKillEvents(ctx context.Context, events []model.KillEvent) ([]model.KillEvent, store.WriteStats, error) {
	if s.err != nil {
		return nil, store.WriteStats{}, s.err
	}
	var inserted []model.KillEvent
	var stats store.WriteStats
	for _, e := range events {
		s.events = append(s.events, e)
		if s.existing[e.EventID] {
			stats.Unchanged++
			continue
		}
		stats.Written++
		inserted = append(inserted, e)
	}
	return inserted, stats, nil
}

func (s *fakeSink) UpsertGuildLeaderboard(ctx context.Context, entries []model.GuildLeaderboardEntry) (store.WriteStats, error) {
	s.entries = append(s.entries, entries...)
	return store.WriteStats{Written: len(entries)}, s.err
}

type fakeRecorder struct {
	mu   sync.Mutex
	runs []model.SyncRun
	err  error
}

func (r *fakeRecorder) RecordSyncRun(ctx context.Context, run model.SyncRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, run)
	return r.err
}

type fakeInvalidator struct {
	mu       sync.Mutex
	prefixes []string
	err      error
}

func (c *fakeInvalidator) Invalidate(ctx context.Context, prefix string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prefixes = append(c.prefixes, prefix)
	return 1, c.err
}

// funcJob adapts a function to Job.
type funcJob struct {
	name string
	fn   func(ctx context.Context) (Result, error)
}

func (j funcJob) Name() string                            { return j.name }
func (j funcJob) Run(ctx context.Context) (Result, error) { return j.fn(ctx) }

func events(ids ...int64) []model.KillEvent {
	out := make([]model.KillEvent, len(ids))
	for i, id := range ids {
		out[i] = model.KillEvent{Region: model.RegionEurope, EventID: id}
	}
	return out
}

func eventRange(from, n int64) []model.KillEvent {
	ids := make([]int64, n)
	for i := range ids {
		ids[i] = from + int64(i)
	}
	return events(ids...)
}
