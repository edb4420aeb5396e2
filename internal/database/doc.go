// Package database provides the PostgreSQL connection pool and schema.
//
// Tables (see schema.sql):
//   - market_prices: latest order-book summary per region/item/city/quality
//   - price_history: bucketed trade history
//   - gold_prices: gold-to-silver rate over time
//   - kill_events: PvP kill feed, insert-only
//   - guild_leaderboard: dated guild ranking snapshots
//   - sync_runs: audit log of sync job executions
package database
