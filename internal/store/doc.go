// Package store persists snapshot data in PostgreSQL.
//
// Writes are batched upserts: rows are split into chunks of BatchSize and
// each chunk is sent as one pgx.Batch of INSERT ... ON CONFLICT statements.
// A statement that affects no rows (a conflict that changed nothing) is
// counted as unchanged rather than written.
//
// Reads back the data the dashboard serves from the database instead of
// the upstream APIs: gold history, the kill feed, leaderboard snapshots
// and the sync run log.
package store
