// Package server is the dashboard's JSON API.
//
// Routes live under /api. Region-scoped routes (/api/{region}/...) proxy the
// market data, Gameinfo and status services through the cache, or read
// snapshots written by the sync jobs from Postgres. /api/live upgrades to
// the WebSocket feed and /api/admin requires the shared admin secret.
//
// Query parameters are parsed into per-route structs and checked with
// validator tags; failures return 400 with one entry per field.
//
// Upstream failures map to 404 (not found upstream), 503 (breaker open) or
// 502 (anything else).
package server
