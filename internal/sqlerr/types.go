package sqlerr

import "fmt"

// Code is the application-level category for a database failure, mapped from
// the SQLSTATE the server reported.
type Code int

const (
	Other Code = iota
	ForeignKeyViolation
	UniqueViolation
	NotNullViolation
	CheckViolation
)

// Severity mirrors the severity field of a Postgres error.
type Severity int

const (
	SeverityUnknown Severity = iota
	SeverityNotice
	SeverityWarning
	SeverityError
	SeverityFatal
	SeverityPanic
)

// Error is the normalized form of a Postgres server error. It keeps the raw
// SQLSTATE and the schema metadata the server attached, so callers can build
// precise application codes and messages out of it.
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

	driverErr error
}

func (e *Error) Error() string {
	return fmt.Sprintf("sqlerr: %s (SQLSTATE %s)", e.Message, e.DatabaseCode)
}

// Unwrap exposes the original driver error for errors.As chains.
func (e *Error) Unwrap() error {
	return e.driverErr
}

// MapCode translates a SQLSTATE into our Code enum. Anything outside the
// integrity-constraint family collapses into Other.
func MapCode(sqlState string) Code {
	switch sqlState {
	case "23503":
		return ForeignKeyViolation
	case "23505":
		return UniqueViolation
	case "23502":
		return NotNullViolation
	case "23514":
		return CheckViolation
	default:
		return Other
	}
}

// MapSeverity translates the textual severity Postgres reports.
func MapSeverity(severity string) Severity {
	switch severity {
	case "NOTICE", "DEBUG", "INFO", "LOG":
		return SeverityNotice
	case "WARNING":
		return SeverityWarning
	case "ERROR":
		return SeverityError
	case "FATAL":
		return SeverityFatal
	case "PANIC":
		return SeverityPanic
	default:
		return SeverityUnknown
	}
}
