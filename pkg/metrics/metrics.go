// Package metrics provides the centralized Prometheus registry for the SDK.
// All metrics are defined in their respective packages (client, cache, auth,
// ratelimit) to maintain modularity and avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the SDK.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Auth Metrics (pkg/auth):
//   - spgci_token_fetches_total{outcome} (Counter): Token fetches by outcome (success, invalid_credentials, throttled, error)
//
// Rate Limit Metrics (pkg/ratelimit):
//   - spgci_requests_remaining_day (Gauge): Daily request quota remaining, from the last response header
//   - spgci_daily_limit_blocks_total (Counter): Requests blocked locally because the daily quota is spent
//
// Cache Metrics (pkg/cache):
//   - spgci_cache_hits_total{layer="redis"} (Counter): Response cache hits by layer
//   - spgci_cache_misses_total (Counter): Response cache misses
//   - spgci_cache_size_bytes{layer="redis"} (Gauge): Current cache size in bytes
//   - spgci_cache_errors_total{operation} (Counter): Cache operation errors
//
// Request Metrics (pkg/client):
//   - spgci_requests_total{endpoint, status} (Counter): Total requests by endpoint and HTTP status
//   - spgci_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - spgci_errors_total{class} (Counter): Errors by class (auth, throttle, daily_limit, client, server, network)
//   - spgci_pages_fetched_total (Counter): Pages fetched, including auto-paginated ones
//
// Retry Metrics (pkg/client):
//   - spgci_retries_total{error_class} (Counter): Retry attempts by error class
//   - spgci_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - spgci_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(spgci_cache_hits_total[5m])) /
//   (sum(rate(spgci_cache_hits_total[5m])) + sum(rate(spgci_cache_misses_total[5m])))
//
//   # Daily Quota Status
//   spgci_requests_remaining_day < 100
//
//   # Request Error Rate
//   rate(spgci_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(spgci_request_duration_seconds_bucket[5m]))
//
//   # Pages Per Request (auto-pagination amplification)
//   rate(spgci_pages_fetched_total[5m]) / rate(spgci_requests_total[5m])
