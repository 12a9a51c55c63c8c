package router

import (
	"github.com/deppfellow/store-metrics/internal/handler"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// registerSystemRoutes registers endpoints that are not part of the
// metrics API and need no credentials:
//  1. Health endpoint
//  2. Prometheus scrape endpoint
//  3. Docs endpoint (OpenAPI UI)
//  4. Static files endpoint (openapi.json and openapi.html)
func registerSystemRoutes(r *echo.Echo, h *handler.Handlers) {
	r.GET("/status", h.Health.CheckHealth)

	r.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	r.Static("/static", handler.StaticDir)

	r.GET("/docs", h.OpenAPI.ServeOpenAPIUI)
}
