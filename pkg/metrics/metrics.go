// Package metrics provides the centralized Prometheus metrics registry for
// the OData client. All metrics are defined in their respective packages
// (client, cache, throttle) to maintain modularity and avoid circular
// dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the OData client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Throttle Metrics (pkg/throttle):
//   - odata_throttle_cooldown_seconds (Gauge): Most recent server-announced cooldown
//   - odata_throttle_blocks_total (Counter): Requests blocked by an open cooldown window
//   - odata_throttle_events_total{status} (Counter): Throttle responses observed by status
//
// Cache Metrics (pkg/cache):
//   - odata_cache_hits_total{layer="redis"} (Counter): Cache hits by layer
//   - odata_cache_misses_total (Counter): Cache misses
//   - odata_cache_size_bytes{layer="redis"} (Gauge): Current cache size in bytes
//   - odata_304_responses_total (Counter): 304 Not Modified responses
//   - odata_conditional_requests_total (Counter): Conditional requests sent with If-None-Match
//   - odata_cache_errors_total{operation} (Counter): Cache operation errors
//
// Request Metrics (pkg/client):
//   - odata_requests_total{resource, status} (Counter): Total requests by resource and HTTP status
//   - odata_request_duration_seconds{resource} (Histogram): Request duration by resource
//   - odata_errors_total{class} (Counter): Errors by class (client, server, throttle, network)
//
// Retry Metrics (pkg/client):
//   - odata_retries_total{error_class} (Counter): Retry attempts by error class
//   - odata_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - odata_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Batch Metrics (pkg/client):
//   - odata_batch_requests_total{outcome} (Counter): $batch exchanges by outcome
//   - odata_batch_parts (Histogram): Number of parts per $batch request
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(odata_cache_hits_total[5m])) /
//   (sum(rate(odata_cache_hits_total[5m])) + sum(rate(odata_cache_misses_total[5m])))
//
//   # Open Cooldown Windows
//   odata_throttle_cooldown_seconds > 0
//
//   # Request Error Rate
//   rate(odata_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(odata_request_duration_seconds_bucket[5m]))
//
//   # 304 Response Rate
//   rate(odata_304_responses_total[5m]) / rate(odata_requests_total[5m])
