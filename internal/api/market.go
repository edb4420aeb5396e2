package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/albion-omni/internal/model"
)

// Chunking limits for AODP item lists.
const (
	DefaultChunkSize = 100
	MaxChunkChars    = 4000
)

// MarketClient wraps a Client pointed at an AODP host.
type MarketClient struct {
	client      *Client
	region      model.Region
	chunkSize   int
	concurrency int
}

// NewMarketClient creates an AODP client for region.
// Non-positive chunkSize or concurrency fall back to defaults.
func NewMarketClient(client *Client, region model.Region, chunkSize, concurrency int) *MarketClient {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &MarketClient{
		client:      client,
		region:      region,
		chunkSize:   chunkSize,
		concurrency: concurrency,
	}
}

// Client returns the underlying REST client.
func (m *MarketClient) Client() *Client {
	return m.client
}

// GetPrices fetches current prices for items, optionally filtered by
// locations and qualities. Results keep the order of items.
func (m *MarketClient) GetPrices(ctx context.Context, items, locations []string, qualities []int) ([]model.MarketPrice, error) {
	query := url.Values{}
	setList(query, "locations", locations)
	setInts(query, "qualities", qualities)

	chunks := chunkItems(items, m.chunkSize, MaxChunkChars)
	results := make([][]model.MarketPrice, len(chunks))

	err := m.fanOut(ctx, chunks, func(ctx context.Context, i int, chunk []string) error {
		var resp []APIPrice
		if err := m.client.get(ctx, "/api/v2/stats/prices/"+joinItems(chunk)+".json", query, &resp); err != nil {
			return err
		}
		out := make([]model.MarketPrice, len(resp))
		for j := range resp {
			out[j] = resp[j].ToModel(m.region)
		}
		results[i] = out
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get prices: %w", err)
	}

	return flatten(results), nil
}

// GetHistory fetches bucketed trade history for items.
func (m *MarketClient) GetHistory(ctx context.Context, items []string, opts HistoryOptions) ([]model.PriceHistory, error) {
	query := url.Values{}
	setList(query, "locations", opts.Locations)
	setInts(query, "qualities", opts.Qualities)
	if opts.TimeScale > 0 {
		query.Set("time-scale", strconv.Itoa(opts.TimeScale))
	}
	if opts.From != "" {
		query.Set("date", opts.From)
	}
	if opts.To != "" {
		query.Set("end_date", opts.To)
	}

	chunks := chunkItems(items, m.chunkSize, MaxChunkChars)
	results := make([][]model.PriceHistory, len(chunks))

	err := m.fanOut(ctx, chunks, func(ctx context.Context, i int, chunk []string) error {
		var resp []APIHistory
		if err := m.client.get(ctx, "/api/v2/stats/history/"+joinItems(chunk)+".json", query, &resp); err != nil {
			return err
		}
		out := make([]model.PriceHistory, len(resp))
		for j := range resp {
			out[j] = resp[j].ToModel(m.region)
		}
		results[i] = out
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}

	return flatten(results), nil
}

// GetGoldPrices fetches the most recent count gold price points,
// optionally bounded by from and to dates.
func (m *MarketClient) GetGoldPrices(ctx context.Context, count int, from, to string) ([]model.GoldPrice, error) {
	query := url.Values{}
	if count > 0 {
		query.Set("count", strconv.Itoa(count))
	}
	if from != "" {
		query.Set("date", from)
	}
	if to != "" {
		query.Set("end_date", to)
	}

	var resp []APIGoldPrice
	if err := m.client.get(ctx, "/api/v2/stats/gold.json", query, &resp); err != nil {
		return nil, fmt.Errorf("get gold prices: %w", err)
	}

	out := make([]model.GoldPrice, 0, len(resp))
	for i := range resp {
		gp := resp[i].ToModel(m.region)
		if gp.Timestamp.IsZero() {
			continue
		}
		out = append(out, gp)
	}
	return out, nil
}

// fanOut runs fn for every chunk with bounded parallelism.
func (m *MarketClient) fanOut(ctx context.Context, chunks [][]string, fn func(context.Context, int, []string) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)

	for i, chunk := range chunks {
		g.Go(func() error {
			return fn(gctx, i, chunk)
		})
	}

	return g.Wait()
}

// chunkItems splits items into groups of at most size ids whose
// comma-joined length stays within maxChars. Blank ids are skipped.
func chunkItems(items []string, size, maxChars int) [][]string {
	var (
		chunks  [][]string
		current []string
		length  int
	)

	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		added := len(item)
		if len(current) > 0 {
			added++ // separator
		}

		if len(current) > 0 && (len(current) >= size || length+added > maxChars) {
			chunks = append(chunks, current)
			current, length = nil, 0
			added = len(item)
		}

		current = append(current, item)
		length += added
	}

	if len(current) > 0 {
		chunks = append(chunks, current)
	}

	return chunks
}

func joinItems(items []string) string {
	escaped := make([]string, len(items))
	for i, item := range items {
		escaped[i] = url.PathEscape(item)
	}
	return strings.Join(escaped, ",")
}

func setList(query url.Values, key string, values []string) {
	if len(values) > 0 {
		query.Set(key, strings.Join(values, ","))
	}
}

func setInts(query url.Values, key string, values []int) {
	if len(values) == 0 {
		return
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	query.Set(key, strings.Join(parts, ","))
}

func flatten[T any](parts [][]T) []T {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]T, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
