// Package cache provides the response cache shared by the HTTP handlers.
//
// Values are stored as JSON bytes in a Store. The production Store is a
// Fallback: Redis as the primary backend with an in-memory TTL map behind
// it, so the dashboard keeps serving (with a per-instance cache) while
// Redis is unreachable. Cache adds key namespacing and GetOrLoad, which
// collapses concurrent loads of the same key into one upstream call.
package cache
