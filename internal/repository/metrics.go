package repository

import (
	"context"
	"fmt"

	"github.com/deppfellow/store-metrics/internal/config"
	"github.com/deppfellow/store-metrics/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// Metric sources, as used in logs, error codes and Prometheus labels.
const (
	SourceMonthlySatisfaction = "monthly_satisfaction"
	SourceAvgResponseTime     = "avg_response_time"
	SourceParticipationRate   = "participation_rate"
)

// MetricsRepository reads the three fact tables.
type MetricsRepository struct {
	db   Querier
	opts queryOptions

	monthlySatisfaction metricQuery
	avgResponseTime     metricQuery
	participationRate   metricQuery
}

// NewMetricsRepository prepares the queries for the configured tables.
// A malformed table name is a configuration error caught at startup.
func NewMetricsRepository(db Querier, cfg *config.Config) (*MetricsRepository, error) {
	satisfactionTable, err := ParseTableName(cfg.Warehouse.MonthlySatisfactionTable)
	if err != nil {
		return nil, fmt.Errorf("monthly satisfaction table: %w", err)
	}
	responseTable, err := ParseTableName(cfg.Warehouse.AvgResponseTimeTable)
	if err != nil {
		return nil, fmt.Errorf("avg response time table: %w", err)
	}
	participationTable, err := ParseTableName(cfg.Warehouse.ParticipationRateTable)
	if err != nil {
		return nil, fmt.Errorf("participation rate table: %w", err)
	}

	return &MetricsRepository{
		db: db,
		opts: queryOptions{
			timeout:            cfg.Database.QueryTimeout,
			slowQueryThreshold: cfg.Observability.Logging.SlowQueryThreshold,
		},
		monthlySatisfaction: metricQuery{
			source:       SourceMonthlySatisfaction,
			table:        satisfactionTable,
			monthColumn:  "satisfaction_month",
			valueColumns: []string{"avg_monthly_satisfaction_score", "number_of_surveys_fact"},
		},
		avgResponseTime: metricQuery{
			source:       SourceAvgResponseTime,
			table:        responseTable,
			monthColumn:  "response_month",
			valueColumns: []string{"monthly_avg_response_time_days", "total_responses_for_avg_time"},
		},
		participationRate: metricQuery{
			source:      SourceParticipationRate,
			table:       participationTable,
			monthColumn: "survey_month",
			valueColumns: []string{
				"survey_response_count_fact",
				"active_employee_count_fact",
				"participation_rate_percentage",
			},
		},
	}, nil
}

func (r *MetricsRepository) FetchMonthlySatisfaction(ctx context.Context, f model.MetricFilter) ([]model.MonthlySatisfaction, error) {
	return fetch(ctx, r.db, r.opts, r.monthlySatisfaction, f, scanMonthlySatisfaction)
}

func (r *MetricsRepository) FetchAvgResponseTime(ctx context.Context, f model.MetricFilter) ([]model.AvgResponseTime, error) {
	return fetch(ctx, r.db, r.opts, r.avgResponseTime, f, scanAvgResponseTime)
}

func (r *MetricsRepository) FetchParticipationRate(ctx context.Context, f model.MetricFilter) ([]model.ParticipationRate, error) {
	return fetch(ctx, r.db, r.opts, r.participationRate, f, scanParticipationRate)
}

func scanMonthlySatisfaction(row pgx.CollectableRow) (model.MonthlySatisfaction, error) {
	var (
		k       keyColumns
		score   pgtype.Float8
		surveys pgtype.Int8
	)
	if err := row.Scan(&k.month, &k.store, &k.subStore, &score, &surveys); err != nil {
		return model.MonthlySatisfaction{}, err
	}

	return model.MonthlySatisfaction{
		SatisfactionMonth:           k.date(),
		StoreID:                     k.store.String,
		SubStoreID:                  k.subStore.String,
		AvgMonthlySatisfactionScore: float(score),
		NumberOfSurveysFact:         count(surveys),
	}, nil
}

func scanAvgResponseTime(row pgx.CollectableRow) (model.AvgResponseTime, error) {
	var (
		k         keyColumns
		days      pgtype.Float8
		responses pgtype.Int8
	)
	if err := row.Scan(&k.month, &k.store, &k.subStore, &days, &responses); err != nil {
		return model.AvgResponseTime{}, err
	}

	return model.AvgResponseTime{
		ResponseMonth:              k.date(),
		StoreID:                    k.store.String,
		SubStoreID:                 k.subStore.String,
		MonthlyAvgResponseTimeDays: float(days),
		TotalResponsesForAvgTime:   count(responses),
	}, nil
}

func scanParticipationRate(row pgx.CollectableRow) (model.ParticipationRate, error) {
	var (
		k          keyColumns
		responses  pgtype.Int8
		employees  pgtype.Int8
		percentage pgtype.Float8
	)
	if err := row.Scan(&k.month, &k.store, &k.subStore, &responses, &employees, &percentage); err != nil {
		return model.ParticipationRate{}, err
	}

	return model.ParticipationRate{
		SurveyMonth:                 k.date(),
		StoreID:                     k.store.String,
		SubStoreID:                  k.subStore.String,
		SurveyResponseCountFact:     count(responses),
		ActiveEmployeeCountFact:     count(employees),
		ParticipationRatePercentage: float(percentage),
	}, nil
}
