package validation

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/deppfellow/store-metrics/internal/errs"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lookupRequest struct {
	StoreID string `query:"store_id" validate:"required"`
	Month   string `query:"month" validate:"required,datetime=2006-01"`
	Limit   int    `query:"limit" validate:"omitempty,min=1"`
}

func (r *lookupRequest) Validate() error {
	TrimAll(&r.StoreID, &r.Month)
	return Struct(r)
}

type customRequest struct{}

func (r *customRequest) Validate() error {
	return CustomValidationErrors{{Field: "window", Message: "must end after it starts"}}
}

func newContext(target string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	return e.NewContext(req, httptest.NewRecorder())
}

func asHTTPError(t *testing.T, err error) *errs.HTTPError {
	t.Helper()
	var httpErr *errs.HTTPError
	require.True(t, errors.As(err, &httpErr), "expected *errs.HTTPError, got %T", err)
	return httpErr
}

func TestBindAndValidate_OK(t *testing.T) {
	req := &lookupRequest{}
	err := BindAndValidate(newContext("/x?store_id=%20S1%20&month=2024-03"), req)
	require.NoError(t, err)
	assert.Equal(t, "S1", req.StoreID)
	assert.Equal(t, "2024-03", req.Month)
}

func TestBindAndValidate_FieldErrors(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		field   string
		message string
	}{
		{name: "missing store", target: "/x?month=2024-03", field: "store_id", message: "is required"},
		{name: "blank store", target: "/x?store_id=%20%20&month=2024-03", field: "store_id", message: "is required"},
		{name: "missing month", target: "/x?store_id=S1", field: "month", message: "is required"},
		{name: "month out of range", target: "/x?store_id=S1&month=2024-13", field: "month", message: "must be a calendar month in yyyy-MM format"},
		{name: "month not zero padded", target: "/x?store_id=S1&month=2024-3", field: "month", message: "must be a calendar month in yyyy-MM format"},
		{name: "full date", target: "/x?store_id=S1&month=2024-03-01", field: "month", message: "must be a calendar month in yyyy-MM format"},
		{name: "min", target: "/x?store_id=S1&month=2024-03&limit=-1", field: "limit", message: "must be at least 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpErr := asHTTPError(t, BindAndValidate(newContext(tt.target), &lookupRequest{}))

			assert.Equal(t, http.StatusBadRequest, httpErr.Status)
			assert.Equal(t, "Validation failed", httpErr.Message)
			require.Len(t, httpErr.Errors, 1)
			assert.Equal(t, tt.field, httpErr.Errors[0].Field)
			assert.Equal(t, tt.message, httpErr.Errors[0].Error)
		})
	}
}

func TestBindAndValidate_BindError(t *testing.T) {
	httpErr := asHTTPError(t, BindAndValidate(newContext("/x?store_id=S1&month=2024-03&limit=abc"), &lookupRequest{}))

	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.Empty(t, httpErr.Errors)
	assert.NotEmpty(t, httpErr.Message)
}

func TestBindAndValidate_CustomErrors(t *testing.T) {
	httpErr := asHTTPError(t, BindAndValidate(newContext("/x"), &customRequest{}))

	require.Len(t, httpErr.Errors, 1)
	assert.Equal(t, "window", httpErr.Errors[0].Field)
	assert.Equal(t, "must end after it starts", httpErr.Errors[0].Error)
}

func TestTrimAll(t *testing.T) {
	a, b := "  x ", "\ty\n"
	TrimAll(&a, &b, nil)
	assert.Equal(t, "x", a)
	assert.Equal(t, "y", b)
}
