// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - HTTP route request rates and latencies
//   - Upstream API calls by service and outcome, circuit breaker state
//   - Cache hits, misses and Redis fallbacks
//   - Sync job runs, durations and rows written
//   - Live channel clients and dropped messages
package metrics
