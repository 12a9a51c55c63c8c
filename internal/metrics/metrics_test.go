package metrics

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordQuery_Success(t *testing.T) {
	before := testutil.ToFloat64(RowsReturned.WithLabelValues("test_success"))

	RecordQuery("test_success", 10*time.Millisecond, 3, nil)

	assert.Equal(t, before+3, testutil.ToFloat64(RowsReturned.WithLabelValues("test_success")))
}

func TestRecordQuery_ErrorIsClassified(t *testing.T) {
	RecordQuery("test_error", time.Millisecond, 0, &pgconn.PgError{Code: "57014"})
	RecordQuery("test_error", time.Millisecond, 0, errors.New("boom"))

	assert.Equal(t, float64(1), testutil.ToFloat64(WarehouseQueryErrors.WithLabelValues("test_error", "query_canceled")))
	assert.Equal(t, float64(1), testutil.ToFloat64(WarehouseQueryErrors.WithLabelValues("test_error", "other")))
}

func TestRecordHTTPRequest(t *testing.T) {
	RecordHTTPRequest(http.MethodGet, "/test", http.StatusNoContent, time.Millisecond)

	assert.Equal(t, float64(1), testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/test", "204")))
}

func TestRecordRateLimitHit(t *testing.T) {
	RecordRateLimitHit("/limited")
	RecordRateLimitHit("/limited")

	assert.Equal(t, float64(2), testutil.ToFloat64(RateLimitHits.WithLabelValues("/limited")))
}
