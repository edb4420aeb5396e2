// Package model defines the records shared across the dashboard backend.
//
// Records mirror the upstream payloads (Albion Online Data Project market data,
// the official Gameinfo API and the server-status endpoints) closely enough that
// they can be persisted as flat rows and served back to the UI as JSON.
//
// Conventions:
//   - Prices: int64 silver
//   - Timestamps: time.Time in UTC; a zero value means "never observed"
//   - IDs: upstream string IDs for guilds and players, int64 for kill events
package model
