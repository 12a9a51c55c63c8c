// Package sqlerr specifically handles database driver errors.
//
// It parses SQLSTATE codes from the warehouse driver and converts them
// into client-facing errors (e.g., turning a "query_canceled" timeout into
// a 504 instead of a bare 500)
package sqlerr

import (
	"fmt"
	"strings"
)

// Code is the driver-independent category of a SQLSTATE.
type Code string

const (
	Other                 Code = "other"
	NotNullViolation      Code = "not_null_violation"
	ForeignKeyViolation   Code = "foreign_key_violation"
	UniqueViolation       Code = "unique_violation"
	CheckViolation        Code = "check_violation"
	UndefinedTable        Code = "undefined_table"
	UndefinedColumn       Code = "undefined_column"
	InsufficientPrivilege Code = "insufficient_privilege"
	SyntaxError           Code = "syntax_error"
	InvalidTextValue      Code = "invalid_text_representation"
	DatetimeOverflow      Code = "datetime_field_overflow"
	QueryCanceled         Code = "query_canceled"
	ConnectionException   Code = "connection_exception"
	CannotConnectNow      Code = "cannot_connect_now"
	TooManyConnections    Code = "too_many_connections"
	AdminShutdown         Code = "admin_shutdown"
)

// MapCode maps a Postgres SQLSTATE onto a Code.
func MapCode(sqlState string) Code {
	switch sqlState {
	case "23502":
		return NotNullViolation
	case "23503":
		return ForeignKeyViolation
	case "23505":
		return UniqueViolation
	case "23514":
		return CheckViolation
	case "42P01":
		return UndefinedTable
	case "42703":
		return UndefinedColumn
	case "42501":
		return InsufficientPrivilege
	case "42601":
		return SyntaxError
	case "22P02":
		return InvalidTextValue
	case "22008":
		return DatetimeOverflow
	case "57014":
		return QueryCanceled
	case "57P01":
		return AdminShutdown
	case "57P03":
		return CannotConnectNow
	case "53300":
		return TooManyConnections
	}

	// Class 08 covers every connection exception.
	if strings.HasPrefix(sqlState, "08") {
		return ConnectionException
	}

	return Other
}

// Severity is the Postgres message severity.
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityFatal   Severity = "FATAL"
	SeverityPanic   Severity = "PANIC"
	SeverityWarning Severity = "WARNING"
	SeverityNotice  Severity = "NOTICE"
	SeverityDebug   Severity = "DEBUG"
	SeverityInfo    Severity = "INFO"
	SeverityLog     Severity = "LOG"
)

// MapSeverity maps the raw severity string, defaulting to ERROR.
func MapSeverity(severity string) Severity {
	switch Severity(strings.ToUpper(severity)) {
	case SeverityFatal:
		return SeverityFatal
	case SeverityPanic:
		return SeverityPanic
	case SeverityWarning:
		return SeverityWarning
	case SeverityNotice:
		return SeverityNotice
	case SeverityDebug:
		return SeverityDebug
	case SeverityInfo:
		return SeverityInfo
	case SeverityLog:
		return SeverityLog
	default:
		return SeverityError
	}
}

// Error is a normalized database error.
type Error struct {
	Code           Code
	Severity       Severity
	DatabaseCode   string
	Message        string
	SchemaName     string
	TableName      string
	ColumnName     string
	DataTypeName   string
	ConstraintName string
	driverErr      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Severity, e.DatabaseCode, e.Message)
}

func (e *Error) Unwrap() error {
	return e.driverErr
}

// QueryError tags a storage error with the metric source that produced it,
// so the error handler can name the metric without parsing error strings.
type QueryError struct {
	Source string
	Err    error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("querying %s: %v", e.Source, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// Wrap attaches source to err. A nil err stays nil.
func Wrap(source string, err error) error {
	if err == nil {
		return nil
	}
	return &QueryError{Source: source, Err: err}
}
