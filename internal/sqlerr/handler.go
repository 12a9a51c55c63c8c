package sqlerr

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/deppfellow/store-metrics/internal/errs"

	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrCode reports the mapped sqlerr.Code for a given error.
//
// Raw *pgconn.PgError values are mapped on the fly; anything else that is
// not already a *sqlerr.Error reports Other.
func ErrCode(err error) Code {
	var sqlErr *Error
	if errors.As(err, &sqlErr) {
		return sqlErr.Code
	}

	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) {
		return MapCode(pgerr.Code)
	}

	return Other
}

// ConvertPgError converts a pgconn.PgError (raw Postgres error) into our custom sqlerr.Error.
func ConvertPgError(src *pgconn.PgError) *Error {
	return &Error{
		Code:           MapCode(src.Code),
		Severity:       MapSeverity(src.Severity),
		DatabaseCode:   src.Code,
		Message:        src.Message,
		SchemaName:     src.SchemaName,
		TableName:      src.TableName,
		ColumnName:     src.ColumnName,
		DataTypeName:   src.DataTypeName,
		ConstraintName: src.ConstraintName,
		driverErr:      src,
	}
}

// generateErrorCode creates "application error codes" from a metric source:
//
//	<DOMAIN>_<ACTION>
//
// Example:
//
//	monthly_satisfaction + QueryCanceled => MONTHLY_SATISFACTION_TIMEOUT
//
// These codes are meant for machines (dashboards, alerting), not humans.
func generateErrorCode(source string, errType Code) string {
	domain := "WAREHOUSE"
	if source != "" {
		domain = strings.ToUpper(source)
	}

	action := "ERROR"
	switch errType {
	case QueryCanceled:
		action = "TIMEOUT"
	case ConnectionException, CannotConnectNow, TooManyConnections, AdminShutdown:
		action = "UNAVAILABLE"
	case UndefinedTable, UndefinedColumn, InsufficientPrivilege:
		action = "SOURCE_MISSING"
	case InvalidTextValue, DatetimeOverflow:
		action = "INVALID_FILTER"
	}

	return fmt.Sprintf("%s_%s", domain, action)
}

// entityName names the metric in client messages.
func entityName(source string) string {
	if source == "" {
		return "Metric"
	}
	return humanizeText(source)
}

// humanizeText converts snake_case identifiers into Title Case.
//
// Example:
//
//	"avg_response_time" -> "Avg Response Time"
func humanizeText(text string) string {
	if text == "" {
		return ""
	}
	return cases.Title(language.English).String(strings.ReplaceAll(text, "_", " "))
}

// timeoutError is the 504 returned for any query that ran past its deadline.
func timeoutError(source string) error {
	code := generateErrorCode(source, QueryCanceled)
	return errs.NewGatewayTimeoutError(
		fmt.Sprintf("%s data did not load in time, please retry", entityName(source)), &code)
}

// unavailableError is the 503 returned when the warehouse cannot be reached.
func unavailableError(source string) error {
	code := generateErrorCode(source, ConnectionException)
	return errs.NewServiceUnavailableError(
		fmt.Sprintf("%s data is temporarily unavailable", entityName(source)), &code)
}

// HandleError converts a low-level warehouse error into an application-level error.
//
// Output:
//   - *errs.HTTPError: returned unchanged
//   - deadline exceeded / statement timeout: 504
//   - connection failures: 503
//   - bad literal in a filter: 400
//   - anything else: 500 without internal details
//
// The metric source, if the error carries a *QueryError, shapes the code and message.
func HandleError(err error) error {
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return err
	}

	var source string
	var queryErr *QueryError
	if errors.As(err, &queryErr) {
		source = queryErr.Source
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return timeoutError(source)
	}

	if errors.Is(err, context.Canceled) {
		code := "REQUEST_CANCELLED"
		return errs.NewServiceUnavailableError("The request was cancelled", &code)
	}

	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) {
		sqlErr := ConvertPgError(pgerr)

		switch sqlErr.Code {
		case QueryCanceled:
			return timeoutError(source)

		case ConnectionException, CannotConnectNow, TooManyConnections, AdminShutdown:
			return unavailableError(source)

		case InvalidTextValue, DatetimeOverflow:
			code := generateErrorCode(source, sqlErr.Code)
			return errs.NewBadRequestError("The supplied filter values are invalid", true, &code, nil)

		case UndefinedTable, UndefinedColumn, InsufficientPrivilege:
			// Deployment problem on our side; the client only learns which metric failed.
			internal := errs.NewInternalServerError()
			internal.Code = generateErrorCode(source, sqlErr.Code)
			return internal

		default:
			return errs.NewInternalServerError()
		}
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return unavailableError(source)
	}

	if pgconn.Timeout(err) {
		return timeoutError(source)
	}

	return errs.NewInternalServerError()
}
