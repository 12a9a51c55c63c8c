// Package router initializes the HTTP router (using Echo).
//
// It registers the middlewares and defines the API route groups,
// mapping specific paths to their corresponding handlers.
package router

import (
	"github.com/deppfellow/store-metrics/internal/handler"
	"github.com/deppfellow/store-metrics/internal/middleware"
	"github.com/deppfellow/store-metrics/internal/server"
	"github.com/labstack/echo/v4"
)

// NewRouter builds the Echo instance with global middleware, system routes
// and the versioned metrics API.
//
// Middleware order matters: the New Relic transaction and the request id
// must exist before the context enhancer builds the request logger.
func NewRouter(s *server.Server, h *handler.Handlers) *echo.Echo {
	middlewares := middleware.NewMiddlewares(s)

	router := echo.New()
	router.HideBanner = true
	router.HidePort = true

	router.HTTPErrorHandler = middlewares.Global.GlobalErrorHandler

	router.Use(
		middlewares.Tracing.NewRelicMiddleware(),
		middlewares.Global.Recover(),
		middleware.RequestID(),
		middlewares.ContextEnhancer.EnhanceContext(),
		middlewares.Tracing.EnhanceTracing(),
		middleware.PrometheusMetrics(),
		middlewares.Global.RequestLogger(),
		middlewares.Global.CORS(),
		middlewares.Global.Secure(),
	)

	registerSystemRoutes(router, h)

	v1 := router.Group("/api/v1")
	registerMetricsRoutes(v1, h, middlewares)

	return router
}

// registerMetricsRoutes mounts the metric endpoints behind basic auth and
// the rate limiter. Authentication runs first so anonymous traffic never
// consumes a client's budget.
func registerMetricsRoutes(v1 *echo.Group, h *handler.Handlers, m *middleware.Middlewares) {
	metrics := v1.Group("/metrics", m.Auth.RequireAuth(), m.RateLimit.Limit())

	metrics.GET("/monthly-satisfaction", h.Metrics.GetMonthlySatisfaction())
	metrics.GET("/average-response-time", h.Metrics.GetAvgResponseTime())
	metrics.GET("/participation-rate", h.Metrics.GetParticipationRate())
}
