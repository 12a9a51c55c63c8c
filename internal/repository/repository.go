// Package repository handles all interactions with the warehouse.
//
// It contains the SQL for each fact table and the row mapping into model
// records, abstracting SQL logic away from the service layer. Every query
// is a parameterized SELECT; nothing here writes.
package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/deppfellow/store-metrics/internal/logger"
	"github.com/deppfellow/store-metrics/internal/metrics"
	"github.com/deppfellow/store-metrics/internal/model"
	"github.com/deppfellow/store-metrics/internal/sqlerr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// Querier is the part of *pgxpool.Pool the repositories use.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Column names shared by every fact table.
const (
	storeKeyColumn    = "store_business_key"
	subStoreKeyColumn = "sub_store_business_key"
)

// metricQuery describes how one fact table is read.
type metricQuery struct {
	// source names the metric in logs, error codes and Prometheus labels.
	source      string
	table       pgx.Identifier
	monthColumn string
	// valueColumns follow month, store and sub-store in the select list.
	valueColumns []string
}

// ParseTableName splits a possibly schema-qualified table name into an
// identifier that is quoted when rendered, so configured names can never
// inject SQL.
func ParseTableName(name string) (pgx.Identifier, error) {
	parts := strings.Split(name, ".")
	if len(parts) > 2 {
		return nil, fmt.Errorf("table name %q has more than schema and table", name)
	}
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			return nil, fmt.Errorf("table name %q has an empty part", name)
		}
	}
	return pgx.Identifier(parts), nil
}

// SQL renders the lookup. The three filters are always bound, the
// sub-store one included: a missing sub-store is the sentinel value,
// never NULL.
func (q metricQuery) SQL() string {
	columns := append([]string{q.monthColumn, storeKeyColumn, subStoreKeyColumn}, q.valueColumns...)
	quoted := make([]string, len(columns))
	for i, column := range columns {
		quoted[i] = pgx.Identifier{column}.Sanitize()
	}

	return fmt.Sprintf(
		`SELECT %s FROM %s WHERE %s = @store_id AND %s = @month AND %s = @sub_store_id`,
		strings.Join(quoted, ", "),
		q.table.Sanitize(),
		pgx.Identifier{storeKeyColumn}.Sanitize(),
		pgx.Identifier{q.monthColumn}.Sanitize(),
		pgx.Identifier{subStoreKeyColumn}.Sanitize(),
	)
}

// Args binds a filter to the query's named parameters.
func (q metricQuery) Args(f model.MetricFilter) pgx.NamedArgs {
	return pgx.NamedArgs{
		"store_id":     f.StoreID,
		"month":        pgtype.Date{Time: f.Month.FirstDay(), Valid: true},
		"sub_store_id": model.NormalizeSubStoreID(f.SubStoreID),
	}
}

// queryOptions are the per-query limits shared by all repositories.
type queryOptions struct {
	timeout            time.Duration
	slowQueryThreshold time.Duration
}

// fetch runs q for f and maps every row with scan.
//
// It applies the query timeout, records Prometheus metrics, logs slow
// queries and tags errors with the metric source. An empty result is an
// empty, non-nil slice.
func fetch[T any](ctx context.Context, db Querier, opts queryOptions, q metricQuery, f model.MetricFilter, scan pgx.RowToFunc[T]) ([]T, error) {
	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	start := time.Now()

	out, err := query(ctx, db, q, f, scan)

	elapsed := time.Since(start)
	metrics.RecordQuery(q.source, elapsed, len(out), err)

	if opts.slowQueryThreshold > 0 && elapsed > opts.slowQueryThreshold {
		logger.FromContext(ctx).Warn().
			Str("metric", q.source).
			Dur("duration", elapsed).
			Str("store_id", f.StoreID).
			Str("sub_store_id", f.SubStoreID).
			Str("month", f.Month.String()).
			Msg("slow warehouse query")
	}

	if err != nil {
		return nil, sqlerr.Wrap(q.source, err)
	}
	return out, nil
}

func query[T any](ctx context.Context, db Querier, q metricQuery, f model.MetricFilter, scan pgx.RowToFunc[T]) ([]T, error) {
	rows, err := db.Query(ctx, q.SQL(), q.Args(f))
	if err != nil {
		return nil, err
	}

	// CollectRows closes rows and surfaces rows.Err().
	out, err := pgx.CollectRows(rows, scan)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// keyColumns hold the three leading columns every fact row starts with.
type keyColumns struct {
	month    pgtype.Date
	store    pgtype.Text
	subStore pgtype.Text
}

func (k keyColumns) date() model.Date {
	if !k.month.Valid {
		return model.Date{}
	}
	return model.NewDate(k.month.Time)
}

// float and count map NULL aggregates to zero.
func float(v pgtype.Float8) float64 {
	if !v.Valid {
		return 0
	}
	return v.Float64
}

func count(v pgtype.Int8) int64 {
	if !v.Valid {
		return 0
	}
	return v.Int64
}
