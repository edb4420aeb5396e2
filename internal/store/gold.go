package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/rickgao/albion-omni/internal/model"
)

const upsertGoldPriceSQL = `
	INSERT INTO gold_prices (region, ts, price)
	VALUES ($1, $2, $3)
	ON CONFLICT (region, ts) DO UPDATE SET price = EXCLUDED.price
	WHERE gold_prices.price <> EXCLUDED.price
`

const goldHistorySQL = `
	SELECT region, ts, price
	FROM gold_prices
	WHERE region = $1 AND ts >= $2
	ORDER BY ts DESC
	LIMIT $3
`

// UpsertGoldPrices writes gold price points.
func (s *Store) UpsertGoldPrices(ctx context.Context, prices []model.GoldPrice) (WriteStats, error) {
	return upsert(ctx, s, "gold_prices", upsertGoldPriceSQL, prices, func(g model.GoldPrice) []any {
		return []any{string(g.Region), g.Timestamp, g.Price}
	}, nil)
}

// GoldHistory returns up to limit points at or after since, newest first.
func (s *Store) GoldHistory(ctx context.Context, region model.Region, since time.Time, limit int) ([]model.GoldPrice, error) {
	rows, err := s.db.Query(ctx, goldHistorySQL, string(region), since, limit)
	if err != nil {
		return nil, fmt.Errorf("query gold history: %w", err)
	}

	prices, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.GoldPrice, error) {
		var (
			g          model.GoldPrice
			regionName string
		)
		err := row.Scan(&regionName, &g.Timestamp, &g.Price)
		g.Region = model.Region(regionName)
		g.Timestamp = g.Timestamp.UTC()
		return g, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan gold history: %w", err)
	}
	return prices, nil
}
