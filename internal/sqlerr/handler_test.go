package sqlerr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/deppfellow/store-metrics/internal/errs"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func asHTTPError(t *testing.T, err error) *errs.HTTPError {
	t.Helper()
	var httpErr *errs.HTTPError
	require.True(t, errors.As(err, &httpErr), "expected *errs.HTTPError, got %T", err)
	return httpErr
}

func TestMapCode(t *testing.T) {
	assert.Equal(t, QueryCanceled, MapCode("57014"))
	assert.Equal(t, UndefinedTable, MapCode("42P01"))
	assert.Equal(t, ConnectionException, MapCode("08006"))
	assert.Equal(t, ConnectionException, MapCode("08001"))
	assert.Equal(t, TooManyConnections, MapCode("53300"))
	assert.Equal(t, Other, MapCode("XX000"))
}

func TestMapSeverity(t *testing.T) {
	assert.Equal(t, SeverityFatal, MapSeverity("FATAL"))
	assert.Equal(t, SeverityWarning, MapSeverity("warning"))
	assert.Equal(t, SeverityError, MapSeverity(""))
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{
			name:   "statement timeout",
			err:    Wrap("monthly_satisfaction", &pgconn.PgError{Code: "57014", Message: "canceling statement due to statement timeout"}),
			status: http.StatusGatewayTimeout,
			code:   "MONTHLY_SATISFACTION_TIMEOUT",
		},
		{
			name:    "context deadline",
			err:     Wrap("avg_response_time", fmt.Errorf("query: %w", context.DeadlineExceeded)),
			status:  http.StatusGatewayTimeout,
			code:    "AVG_RESPONSE_TIME_TIMEOUT",
			message: "Avg Response Time data did not load in time, please retry",
		},
		{
			name:    "connection failure",
			err:     Wrap("participation_rate", &pgconn.PgError{Code: "08006", Message: "connection failure"}),
			status:  http.StatusServiceUnavailable,
			code:    "PARTICIPATION_RATE_UNAVAILABLE",
			message: "Participation Rate data is temporarily unavailable",
		},
		{
			name:   "missing table",
			err:    Wrap("monthly_satisfaction", &pgconn.PgError{Code: "42P01", Message: `relation "marts.fct_monthly_satisfaction" does not exist`}),
			status: http.StatusInternalServerError,
			code:   "MONTHLY_SATISFACTION_SOURCE_MISSING",
		},
		{
			name:   "invalid filter literal",
			err:    &pgconn.PgError{Code: "22P02"},
			status: http.StatusBadRequest,
			code:   "WAREHOUSE_INVALID_FILTER",
		},
		{
			name:   "unknown pg error",
			err:    &pgconn.PgError{Code: "XX000"},
			status: http.StatusInternalServerError,
			code:   "INTERNAL_SERVER_ERROR",
		},
		{
			name:   "cancelled request",
			err:    context.Canceled,
			status: http.StatusServiceUnavailable,
			code:   "REQUEST_CANCELLED",
		},
		{
			name:   "plain error",
			err:    errors.New("boom"),
			status: http.StatusInternalServerError,
			code:   "INTERNAL_SERVER_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpErr := asHTTPError(t, HandleError(tt.err))
			assert.Equal(t, tt.status, httpErr.Status)
			assert.Equal(t, tt.code, httpErr.Code)
			if tt.message != "" {
				assert.Equal(t, tt.message, httpErr.Message)
			}
		})
	}
}

func TestHandleError_PassesHTTPErrorThrough(t *testing.T) {
	original := errs.NewUnauthorizedError("Unauthorized", false)
	assert.Same(t, original, HandleError(original))
}

func TestHandleError_DoesNotLeakDriverMessage(t *testing.T) {
	err := Wrap("monthly_satisfaction", &pgconn.PgError{Code: "42703", Message: `column "secret_col" does not exist`})
	httpErr := asHTTPError(t, HandleError(err))
	assert.NotContains(t, httpErr.Message, "secret_col")
}

func TestErrCode(t *testing.T) {
	assert.Equal(t, QueryCanceled, ErrCode(Wrap("x", &pgconn.PgError{Code: "57014"})))
	assert.Equal(t, UniqueViolation, ErrCode(ConvertPgError(&pgconn.PgError{Code: "23505"})))
	assert.Equal(t, Other, ErrCode(errors.New("boom")))
}

func TestWrap(t *testing.T) {
	assert.NoError(t, Wrap("monthly_satisfaction", nil))

	inner := errors.New("boom")
	err := Wrap("monthly_satisfaction", inner)
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "querying monthly_satisfaction: boom", err.Error())
}
