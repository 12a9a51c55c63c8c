// Package handler is the first layer. The first entry point
// for business logic after the router.
//
// It parses requests, handles input validation using the
// validation package, and calls the appropriate service layer.
// It acts as the interface between the HTTP request and the core
// business logic.
package handler

import (
	"github.com/deppfellow/store-metrics/internal/server"
	"github.com/deppfellow/store-metrics/internal/service"
)

// Handlers is a container that groups all HTTP handlers, so router setup
// passes one object around instead of many.
type Handlers struct {
	Health  *HealthHandler  // Health serves GET /status.
	OpenAPI *OpenAPIHandler // OpenAPI serves the docs UI.
	Metrics *MetricsHandler // Metrics serves the /api/v1/metrics endpoints.
}

// NewHandlers constructs the handler container.
func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(s),
		OpenAPI: NewOpenAPIHandler(s),
		Metrics: NewMetricsHandler(s, services.Metrics),
	}
}
