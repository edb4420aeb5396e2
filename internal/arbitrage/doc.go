// Package arbitrage finds cross-city trade routes for market items.
//
// For every item listed in two or more cities, each ordered (buy city,
// sell city) pair is priced: buying at the source, hauling, and listing at
// the destination, with market tax and setup fee charged on both legs.
// Routes are ranked by return on investment.
package arbitrage
