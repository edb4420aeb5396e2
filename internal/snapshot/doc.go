// Package snapshot runs the sync jobs that copy upstream data into Postgres.
//
// Jobs:
//   - market_prices: current prices for the tracked items, locations and qualities
//   - gold_prices: the most recent gold price points
//   - kill_events: recent kill events, paged; only new events are published
//   - guild_leaderboard: top guilds for a range, stamped with the UTC date
//
// The Runner allows one run per job at a time, applies a per-run timeout,
// records every run in sync_runs and publishes it on the live "sync" topic.
// The Scheduler fires jobs from five-field cron expressions evaluated in UTC.
package snapshot
