// Package metrics exposes the Prometheus registry used by the Seal preview
// client. All metrics are defined in their respective packages (client,
// pagination, async, metadata, store) and registered via promauto.
//
// This package provides an HTTP handler and the reference for all available metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the Seal client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Handler returns an HTTP handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - seal_requests_total{endpoint, status} (Counter): Requests by endpoint and HTTP status
//   - seal_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - seal_errors_total{class} (Counter): Errors by class (client, server, network, decode)
//
// Pagination Metrics (pkg/pagination):
//   - seal_pages_fetched_total (Counter): List pages fetched
//   - seal_pagination_items_total (Counter): Items collected by completed paginated fetches
//   - seal_pagination_duration_seconds (Histogram): Duration of completed paginated fetches
//
// Async Metrics (pkg/async):
//   - seal_join_failures_total{key} (Counter): Failed operations inside a join by key
//   - seal_async_duplicate_completions_total (Counter): Dropped second completions
//
// Normalization Metrics (pkg/metadata):
//   - seal_annotations_normalized_total (Counter): Annotations placed into an index
//   - seal_annotations_unanchored_total (Counter): Values dropped for lacking an offset
//   - seal_annotation_collisions_total (Counter): Values that replaced an earlier id
//
// Store Metrics (pkg/store):
//   - seal_store_hits_total (Counter): Snapshots loaded
//   - seal_store_misses_total (Counter): Snapshot lookups with no stored entry
//   - seal_store_bytes_written_total (Counter): Bytes written to Redis
//   - seal_store_errors_total{operation} (Counter): Store operation errors
//
// Example Prometheus Queries:
//
//   # Failed aggregate parts
//   sum by (key) (rate(seal_join_failures_total[5m]))
//
//   # Request Error Rate
//   rate(seal_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(seal_request_duration_seconds_bucket[5m]))
//
//   # Share of metadata values that cannot be anchored
//   rate(seal_annotations_unanchored_total[5m]) /
//   (rate(seal_annotations_unanchored_total[5m]) + rate(seal_annotations_normalized_total[5m]))
