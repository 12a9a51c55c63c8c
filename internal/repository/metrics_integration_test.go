//go:build integration

package repository

import (
	"context"
	"os/exec"
	"strconv"
	"testing"
	"time"

	"github.com/deppfellow/store-metrics/internal/config"
	"github.com/deppfellow/store-metrics/internal/database"
	"github.com/deppfellow/store-metrics/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func skipIfNoDocker(t *testing.T) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if exec.CommandContext(ctx, "docker", "info").Run() != nil {
		t.Skip("Skipping test: Docker not available")
	}
}

// startWarehouse runs a throwaway Postgres, migrates it and returns a
// config pointing at it.
func startWarehouse(t *testing.T) *config.Config {
	t.Helper()
	skipIfNoDocker(t)

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "analytics",
				"POSTGRES_PASSWORD": "analytics",
				"POSTGRES_DB":       "warehouse",
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			).WithDeadline(90 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	portNum, err := strconv.Atoi(port.Port())
	require.NoError(t, err)

	cfg := &config.Config{
		Primary: config.Primary{Env: "test"},
		Database: config.DatabaseConfig{
			Host:            host,
			Port:            portNum,
			User:            "analytics",
			Password:        "analytics",
			Name:            "warehouse",
			SSLMode:         "disable",
			MaxOpenConns:    4,
			MaxIdleConns:    1,
			ConnMaxLifetime: 60,
			ConnMaxIdleTime: 30,
			QueryTimeout:    5 * time.Second,
		},
		Warehouse:     config.DefaultWarehouseConfig(),
		Observability: config.DefaultObservabilityConfig(),
	}

	logger := zerolog.Nop()
	require.NoError(t, database.Migrate(ctx, &logger, cfg))
	// A second run must be a no-op.
	require.NoError(t, database.Migrate(ctx, &logger, cfg))

	return cfg
}

func seed(t *testing.T, cfg *config.Config) {
	t.Helper()
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, database.DSN(cfg.Database))
	require.NoError(t, err)
	defer pool.Close()

	statements := []string{
		`INSERT INTO marts.fct_monthly_satisfaction VALUES
			('2024-03-01', 'S1', 'MISSING_SUB_STORE_KEY', 4.2, 120),
			('2024-03-01', 'S1', 'SS-7', 3.9, 40),
			('2024-02-01', 'S1', 'MISSING_SUB_STORE_KEY', 4.0, 100)`,
		`INSERT INTO marts.fct_avg_response_time VALUES
			('2024-03-01', 'S1', 'MISSING_SUB_STORE_KEY', NULL, NULL)`,
		`INSERT INTO marts.fct_participation_rate VALUES
			('2024-03-01', 'S1', 'MISSING_SUB_STORE_KEY', 40, 50, 80.0),
			('2024-03-01', 'S1', 'MISSING_SUB_STORE_KEY', 40, 50, 80.0)`,
	}
	for _, stmt := range statements {
		_, err := pool.Exec(ctx, stmt)
		require.NoError(t, err)
	}
}

func TestMetricsRepository_Integration(t *testing.T) {
	cfg := startWarehouse(t)
	seed(t, cfg)

	logger := zerolog.Nop()
	db, err := database.New(cfg, &logger, nil)
	require.NoError(t, err)
	defer db.Close()

	repo, err := NewMetricsRepository(db.Pool, cfg)
	require.NoError(t, err)

	ctx := context.Background()
	march := testFilter(t, "")

	t.Run("absent sub-store selects the sentinel row", func(t *testing.T) {
		got, err := repo.FetchMonthlySatisfaction(ctx, march)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, model.MissingSubStoreKey, got[0].SubStoreID)
		assert.Equal(t, 4.2, got[0].AvgMonthlySatisfactionScore)
		assert.Equal(t, int64(120), got[0].NumberOfSurveysFact)
		assert.Equal(t, "2024-03-01", got[0].SatisfactionMonth.String())
	})

	t.Run("explicit sub-store is matched exactly", func(t *testing.T) {
		got, err := repo.FetchMonthlySatisfaction(ctx, testFilter(t, "SS-7"))
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "SS-7", got[0].SubStoreID)
	})

	t.Run("null aggregates are zero", func(t *testing.T) {
		got, err := repo.FetchAvgResponseTime(ctx, march)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Zero(t, got[0].MonthlyAvgResponseTimeDays)
		assert.Zero(t, got[0].TotalResponsesForAvgTime)
	})

	t.Run("duplicate rows are kept", func(t *testing.T) {
		got, err := repo.FetchParticipationRate(ctx, march)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("unknown store is empty", func(t *testing.T) {
		month, err := model.ParseMonth("2024-03")
		require.NoError(t, err)

		got, err := repo.FetchParticipationRate(ctx, model.NewMetricFilter("NOPE", "", month))
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("pool is read-only", func(t *testing.T) {
		_, err := db.Pool.Exec(ctx, `DELETE FROM marts.fct_participation_rate`)
		assert.Error(t, err)
	})
}
