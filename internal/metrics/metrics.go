// Package metrics exposes Prometheus instruments for the API and its
// warehouse queries. Everything registers on the default registry and is
// scraped from /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/deppfellow/store-metrics/internal/sqlerr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts finished requests by route template and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_metrics_http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_metrics_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// WarehouseQueryDuration tracks the latency of fact table queries.
	WarehouseQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_metrics_warehouse_query_duration_seconds",
			Help:    "Duration of warehouse queries in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"metric"},
	)

	WarehouseQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_metrics_warehouse_query_errors_total",
			Help: "Total number of failed warehouse queries",
		},
		[]string{"metric", "error_type"},
	)

	// RowsReturned counts rows handed back to clients per metric.
	RowsReturned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_metrics_rows_returned_total",
			Help: "Total number of metric rows returned",
		},
		[]string{"metric"},
	)

	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_metrics_rate_limit_hits_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
		[]string{"route"},
	)
)

// RecordHTTPRequest records one finished request.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordQuery records one warehouse query. A nil err counts rows as returned;
// otherwise the error is classified by its SQLSTATE category.
func RecordQuery(metric string, duration time.Duration, rows int, err error) {
	WarehouseQueryDuration.WithLabelValues(metric).Observe(duration.Seconds())
	if err != nil {
		WarehouseQueryErrors.WithLabelValues(metric, string(sqlerr.ErrCode(err))).Inc()
		return
	}
	RowsReturned.WithLabelValues(metric).Add(float64(rows))
}

func RecordRateLimitHit(route string) {
	RateLimitHits.WithLabelValues(route).Inc()
}
