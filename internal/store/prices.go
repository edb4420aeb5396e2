package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/rickgao/albion-omni/internal/model"
)

// Price columns are only replaced by a strictly newer observation.
const upsertMarketPriceSQL = `
	INSERT INTO market_prices (
		region, item_id, city, quality,
		sell_price_min, sell_price_min_date, sell_price_max, sell_price_max_date,
		buy_price_min, buy_price_min_date, buy_price_max, buy_price_max_date,
		observed_at, updated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now())
	ON CONFLICT (region, item_id, city, quality) DO UPDATE SET
		sell_price_min      = EXCLUDED.sell_price_min,
		sell_price_min_date = EXCLUDED.sell_price_min_date,
		sell_price_max      = EXCLUDED.sell_price_max,
		sell_price_max_date = EXCLUDED.sell_price_max_date,
		buy_price_min       = EXCLUDED.buy_price_min,
		buy_price_min_date  = EXCLUDED.buy_price_min_date,
		buy_price_max       = EXCLUDED.buy_price_max,
		buy_price_max_date  = EXCLUDED.buy_price_max_date,
		observed_at         = EXCLUDED.observed_at,
		updated_at          = now()
	WHERE market_prices.observed_at IS NULL
		OR EXCLUDED.observed_at > market_prices.observed_at
`

const upsertPriceHistorySQL = `
	INSERT INTO price_history (region, item_id, city, quality, ts, item_count, avg_price)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (region, item_id, city, quality, ts) DO UPDATE SET
		item_count = EXCLUDED.item_count,
		avg_price  = EXCLUDED.avg_price
	WHERE (price_history.item_count, price_history.avg_price)
		IS DISTINCT FROM (EXCLUDED.item_count, EXCLUDED.avg_price)
`

const latestPricesSQL = `
	SELECT region, item_id, city, quality,
		sell_price_min, sell_price_min_date, sell_price_max, sell_price_max_date,
		buy_price_min, buy_price_min_date, buy_price_max, buy_price_max_date
	FROM market_prices
	WHERE region = $1 AND item_id = $2
	ORDER BY city, quality
`

// UpsertMarketPrices writes current prices and returns the rows that were
// inserted or replaced, in input order.
func (s *Store) UpsertMarketPrices(ctx context.Context, prices []model.MarketPrice) ([]model.MarketPrice, WriteStats, error) {
	var written []model.MarketPrice
	stats, err := upsert(ctx, s, "market_prices", upsertMarketPriceSQL, prices, func(p model.MarketPrice) []any {
		return []any{
			string(p.Region), p.ItemID, p.City, p.Quality,
			p.SellPriceMin, nullTime(p.SellPriceMinDate), p.SellPriceMax, nullTime(p.SellPriceMaxDate),
			p.BuyPriceMin, nullTime(p.BuyPriceMinDate), p.BuyPriceMax, nullTime(p.BuyPriceMaxDate),
			nullTime(p.ObservedAt()),
		}
	}, func(p model.MarketPrice, affected int64) {
		if affected > 0 {
			written = append(written, p)
		}
	})
	return written, stats, err
}

type historyRow struct {
	series model.PriceHistory
	point  model.HistoryPoint
}

// UpsertPriceHistory writes every point of every series.
func (s *Store) UpsertPriceHistory(ctx context.Context, history []model.PriceHistory) (WriteStats, error) {
	var rows []historyRow
	for _, h := range history {
		for _, p := range h.Points {
			rows = append(rows, historyRow{series: h, point: p})
		}
	}

	return upsert(ctx, s, "price_history", upsertPriceHistorySQL, rows, func(r historyRow) []any {
		return []any{
			string(r.series.Region), r.series.ItemID, r.series.City, r.series.Quality,
			r.point.Timestamp, r.point.ItemCount, r.point.AvgPrice,
		}
	}, nil)
}

// LatestPrices returns the stored prices of one item in every city.
func (s *Store) LatestPrices(ctx context.Context, region model.Region, itemID string) ([]model.MarketPrice, error) {
	rows, err := s.db.Query(ctx, latestPricesSQL, string(region), itemID)
	if err != nil {
		return nil, fmt.Errorf("query latest prices: %w", err)
	}

	prices, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.MarketPrice, error) {
		var (
			p                              model.MarketPrice
			regionName                     string
			sMinAt, sMaxAt, bMinAt, bMaxAt *time.Time
		)
		err := row.Scan(
			&regionName, &p.ItemID, &p.City, &p.Quality,
			&p.SellPriceMin, &sMinAt, &p.SellPriceMax, &sMaxAt,
			&p.BuyPriceMin, &bMinAt, &p.BuyPriceMax, &bMaxAt,
		)
		p.Region = model.Region(regionName)
		p.SellPriceMinDate = timeOrZero(sMinAt)
		p.SellPriceMaxDate = timeOrZero(sMaxAt)
		p.BuyPriceMinDate = timeOrZero(bMinAt)
		p.BuyPriceMaxDate = timeOrZero(bMaxAt)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan latest prices: %w", err)
	}
	return prices, nil
}
