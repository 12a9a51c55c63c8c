// Package middleware stores global and route-specific middleware.
//
// These intercept requests to handle cross-cutting concerns
// such as basic authentication, request logging, CORS,
// rate limiting, tracing and panic recovery.
package middleware

import (
	"time"

	"github.com/deppfellow/store-metrics/internal/metrics"
	"github.com/labstack/echo/v4"
)

// PrometheusMetrics records count and latency of every request, labelled
// by route template so path parameters cannot explode cardinality.
func PrometheusMetrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				status = statusFromError(err, status)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			metrics.RecordHTTPRequest(c.Request().Method, route, status, time.Since(start))
			return err
		}
	}
}
