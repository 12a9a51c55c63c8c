package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/deppfellow/store-metrics/internal/middleware"
	"github.com/deppfellow/store-metrics/internal/server"
	"github.com/labstack/echo/v4"
)

const defaultCheckTimeout = 5 * time.Second

// unreachableMessage is the only failure detail /status exposes; the driver
// error, which may name hosts and ports, goes to the logs.
const unreachableMessage = "unreachable"

// PingFunc probes one dependency.
type PingFunc func(ctx context.Context) error

// dependencyCheck is one named probe run by the health endpoint.
type dependencyCheck struct {
	name string
	ping PingFunc
}

// CheckResult is the outcome of one dependency probe.
type CheckResult struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time"`
	Error        string `json:"error,omitempty"`
}

// HealthResponse is the body of GET /status.
type HealthResponse struct {
	Status      string                 `json:"status"`
	Timestamp   time.Time              `json:"timestamp"`
	Environment string                 `json:"environment"`
	Checks      map[string]CheckResult `json:"checks"`
}

// HealthHandler exposes the endpoint load balancers and uptime monitors use
// to verify the service is alive and its dependencies are reachable.
type HealthHandler struct {
	Handler
	checks []dependencyCheck
}

// NewHealthHandler registers the checks enabled in config: the warehouse
// ping, and the Redis ping when a client is configured.
func NewHealthHandler(s *server.Server) *HealthHandler {
	h := &HealthHandler{Handler: NewHandler(s)}

	obs := s.Config.Observability
	if obs.HasCheck("database") && s.DB != nil {
		h.AddCheck("database", s.DB.Ping)
	}
	if obs.HasCheck("redis") && s.Redis != nil {
		h.AddCheck("redis", func(ctx context.Context) error {
			return s.Redis.Ping(ctx).Err()
		})
	}
	return h
}

// AddCheck appends a named dependency probe.
func (h *HealthHandler) AddCheck(name string, ping PingFunc) {
	h.checks = append(h.checks, dependencyCheck{name: name, ping: ping})
}

// CheckHealth returns system health status and dependency checks.
//
// It returns:
//   - 200 OK if all checks pass
//   - 503 Service Unavailable if any check fails
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()

	logger := middleware.GetLogger(c).With().
		Str("operation", "health_check").
		Logger()

	response := HealthResponse{
		Status:      "healthy",
		Timestamp:   time.Now().UTC(),
		Environment: h.server.Config.Primary.Env,
		Checks:      make(map[string]CheckResult, len(h.checks)),
	}

	timeout := h.server.Config.Observability.HealthChecks.Timeout
	if timeout <= 0 {
		timeout = defaultCheckTimeout
	}
	isHealthy := true

	for _, check := range h.checks {
		ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
		checkStart := time.Now()
		err := check.ping(ctx)
		elapsed := time.Since(checkStart)
		cancel()

		if err != nil {
			isHealthy = false
			response.Checks[check.name] = CheckResult{
				Status:       "unhealthy",
				ResponseTime: elapsed.String(),
				Error:        unreachableMessage,
			}

			logger.Error().
				Err(err).
				Str("check", check.name).
				Dur("response_time", elapsed).
				Msg("health check failed")

			h.recordHealthEvent(map[string]interface{}{
				"check_type":       check.name,
				"operation":        "health_check",
				"error_type":       check.name + "_unhealthy",
				"response_time_ms": elapsed.Milliseconds(),
				"error_message":    err.Error(),
			})
			continue
		}

		response.Checks[check.name] = CheckResult{
			Status:       "healthy",
			ResponseTime: elapsed.String(),
		}

		logger.Debug().
			Str("check", check.name).
			Dur("response_time", elapsed).
			Msg("health check passed")
	}

	if !isHealthy {
		response.Status = "unhealthy"

		logger.Warn().
			Dur("total_duration", time.Since(start)).
			Msg("health check failed")

		h.recordHealthEvent(map[string]interface{}{
			"check_type":        "overall",
			"operation":         "health_check",
			"error_type":        "overall_unhealthy",
			"total_duration_ms": time.Since(start).Milliseconds(),
		})

		return c.JSON(http.StatusServiceUnavailable, response)
	}

	if err := c.JSON(http.StatusOK, response); err != nil {
		logger.Error().Err(err).Msg("failed to write JSON response")
		return fmt.Errorf("failed to write JSON response: %w", err)
	}

	return nil
}

// recordHealthEvent records a New Relic custom event if the agent is running.
func (h *HealthHandler) recordHealthEvent(attrs map[string]interface{}) {
	if h.server.LoggerService == nil {
		return
	}
	if app := h.server.LoggerService.GetApplication(); app != nil {
		app.RecordCustomEvent("HealthCheckError", attrs)
	}
}
