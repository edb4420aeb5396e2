// Package api provides thin clients for the third-party Albion Online APIs.
//
// Services (one base URL per region):
//   - Market data (Albion Online Data Project): current prices, trade history, gold price
//   - Gameinfo (official): kill events, guilds, players, search, rankings
//   - Server status (official): online/offline state
//
// Every client shares the same request core: bounded retries with jittered
// exponential backoff, a token-bucket rate limit and a circuit breaker per
// service so a failing upstream is not hammered by every dashboard request.
package api
