package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/deppfellow/store-metrics/internal/model"
	"github.com/deppfellow/store-metrics/internal/server"
	"github.com/deppfellow/store-metrics/internal/validation"
	"github.com/labstack/echo/v4"
)

// MetricsService is the business layer behind the metric endpoints.
// *service.MetricsService satisfies it.
type MetricsService interface {
	MonthlySatisfaction(ctx context.Context, storeID, subStoreID string, month model.Month) ([]model.MonthlySatisfaction, error)
	AvgResponseTime(ctx context.Context, storeID, subStoreID string, month model.Month) ([]model.AvgResponseTime, error)
	ParticipationRate(ctx context.Context, storeID, subStoreID string, month model.Month) ([]model.ParticipationRate, error)
}

// MetricsRequest is the query string shared by every metric endpoint:
//
//	?store_id=S1&month=2024-03[&sub_store_id=SS-7]
type MetricsRequest struct {
	StoreID    string `query:"store_id" validate:"required"`
	SubStoreID string `query:"sub_store_id"`
	Month      string `query:"month" validate:"required,datetime=2006-01"`

	month model.Month
}

// Validate checks the store and month and parses the month.
//
// Only the month is trimmed. The store is matched exactly as sent, so a
// blank one is rejected without rewriting it. The sub-store is left
// untouched; the service decides what blank means.
func (r *MetricsRequest) Validate() error {
	validation.TrimAll(&r.Month)

	if r.StoreID != "" && strings.TrimSpace(r.StoreID) == "" {
		return validation.CustomValidationErrors{{Field: "store_id", Message: "is required"}}
	}

	if err := validation.Struct(r); err != nil {
		return err
	}

	month, err := model.ParseMonth(r.Month)
	if err != nil {
		return validation.CustomValidationErrors{{Field: "month", Message: "must be a calendar month in yyyy-MM format"}}
	}
	r.month = month
	return nil
}

// Period is the parsed month of a validated request.
func (r *MetricsRequest) Period() model.Month {
	return r.month
}

// MetricsHandler serves the three read-only metric endpoints.
type MetricsHandler struct {
	Handler
	metrics MetricsService
}

func NewMetricsHandler(s *server.Server, metrics MetricsService) *MetricsHandler {
	return &MetricsHandler{
		Handler: NewHandler(s),
		metrics: metrics,
	}
}

func (h *MetricsHandler) getMonthlySatisfaction(c echo.Context, req *MetricsRequest) ([]model.MonthlySatisfaction, error) {
	return h.metrics.MonthlySatisfaction(c.Request().Context(), req.StoreID, req.SubStoreID, req.Period())
}

func (h *MetricsHandler) getAvgResponseTime(c echo.Context, req *MetricsRequest) ([]model.AvgResponseTime, error) {
	return h.metrics.AvgResponseTime(c.Request().Context(), req.StoreID, req.SubStoreID, req.Period())
}

func (h *MetricsHandler) getParticipationRate(c echo.Context, req *MetricsRequest) ([]model.ParticipationRate, error) {
	return h.metrics.ParticipationRate(c.Request().Context(), req.StoreID, req.SubStoreID, req.Period())
}

// GetMonthlySatisfaction handles GET /api/v1/metrics/monthly-satisfaction.
func (h *MetricsHandler) GetMonthlySatisfaction() echo.HandlerFunc {
	return HandleList(h.Handler, h.getMonthlySatisfaction, http.StatusOK)
}

// GetAvgResponseTime handles GET /api/v1/metrics/average-response-time.
func (h *MetricsHandler) GetAvgResponseTime() echo.HandlerFunc {
	return HandleList(h.Handler, h.getAvgResponseTime, http.StatusOK)
}

// GetParticipationRate handles GET /api/v1/metrics/participation-rate.
func (h *MetricsHandler) GetParticipationRate() echo.HandlerFunc {
	return HandleList(h.Handler, h.getParticipationRate, http.StatusOK)
}
