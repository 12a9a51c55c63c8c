package service

import (
	"context"

	"github.com/deppfellow/store-metrics/internal/logger"
	"github.com/deppfellow/store-metrics/internal/model"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
)

// MetricsRepository is what MetricsService needs from storage.
// *repository.MetricsRepository satisfies it.
type MetricsRepository interface {
	FetchMonthlySatisfaction(ctx context.Context, f model.MetricFilter) ([]model.MonthlySatisfaction, error)
	FetchAvgResponseTime(ctx context.Context, f model.MetricFilter) ([]model.AvgResponseTime, error)
	FetchParticipationRate(ctx context.Context, f model.MetricFilter) ([]model.ParticipationRate, error)
}

// MetricsService resolves a store, optional sub-store and month into the
// rows of one fact table.
type MetricsService struct {
	repo MetricsRepository
}

func NewMetricsService(repo MetricsRepository) *MetricsService {
	return &MetricsService{repo: repo}
}

func (s *MetricsService) MonthlySatisfaction(ctx context.Context, storeID, subStoreID string, month model.Month) ([]model.MonthlySatisfaction, error) {
	return lookup(ctx, "MonthlySatisfaction", model.NewMetricFilter(storeID, subStoreID, month), s.repo.FetchMonthlySatisfaction)
}

func (s *MetricsService) AvgResponseTime(ctx context.Context, storeID, subStoreID string, month model.Month) ([]model.AvgResponseTime, error) {
	return lookup(ctx, "AvgResponseTime", model.NewMetricFilter(storeID, subStoreID, month), s.repo.FetchAvgResponseTime)
}

func (s *MetricsService) ParticipationRate(ctx context.Context, storeID, subStoreID string, month model.Month) ([]model.ParticipationRate, error) {
	return lookup(ctx, "ParticipationRate", model.NewMetricFilter(storeID, subStoreID, month), s.repo.FetchParticipationRate)
}

// lookup runs one fetch inside a New Relic segment and logs its outcome.
// The original error stays reachable through errors.As for the HTTP layer.
func lookup[T any](ctx context.Context, name string, f model.MetricFilter, fetch func(context.Context, model.MetricFilter) ([]T, error)) ([]T, error) {
	defer newrelic.FromContext(ctx).StartSegment("MetricsService." + name).End()

	log := logger.FromContext(ctx).With().
		Str("metric", name).
		Str("store_id", f.StoreID).
		Str("sub_store_id", f.SubStoreID).
		Str("month", f.Month.String()).
		Logger()

	log.Debug().Msg("fetching metric")

	rows, err := fetch(ctx, f)
	if err != nil {
		log.Error().Err(err).Msg("metric lookup failed")
		return nil, errors.Wrapf(err, "fetching %s", name)
	}

	log.Debug().Int("rows", len(rows)).Msg("metric fetched")
	return rows, nil
}
