package sqlerr

import (
	"errors"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutoriapp/backend/internal/errs"
)

func TestMapCode(t *testing.T) {
	assert.Equal(t, ForeignKeyViolation, MapCode("23503"))
	assert.Equal(t, UniqueViolation, MapCode("23505"))
	assert.Equal(t, NotNullViolation, MapCode("23502"))
	assert.Equal(t, CheckViolation, MapCode("23514"))
	assert.Equal(t, Other, MapCode("42601"))
}

func TestGenerateErrorCode(t *testing.T) {
	assert.Equal(t, "USER_ALREADY_EXISTS", generateErrorCode("users", UniqueViolation))
	assert.Equal(t, "SESSION_NOT_FOUND", generateErrorCode("sessions", ForeignKeyViolation))
	assert.Equal(t, "COURSE_REQUIRED", generateErrorCode("courses", NotNullViolation))
	assert.Equal(t, "SESSION_STUDENT_INVALID", generateErrorCode("session_students", CheckViolation))
	assert.Equal(t, "RECORD_ERROR", generateErrorCode("", Other))
}

func TestHandleErrorUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:           "23505",
		Severity:       "ERROR",
		Message:        `duplicate key value violates unique constraint "users_email_key"`,
		TableName:      "users",
		ConstraintName: "users_email_key",
	}

	err := HandleError(pgErr)

	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.Equal(t, "USER_ALREADY_EXISTS", httpErr.Code)
	assert.Equal(t, "A User with this Email already exists", httpErr.Message)
}

func TestHandleErrorForeignKeyViolation(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:           "23503",
		Severity:       "ERROR",
		Message:        `insert or update on table "sessions" violates foreign key constraint "sessions_tutor_id_fkey"`,
		TableName:      "sessions",
		ConstraintName: "sessions_tutor_id_fkey",
	}

	err := HandleError(pgErr)

	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.Equal(t, "SESSION_NOT_FOUND", httpErr.Code)
	assert.Equal(t, "The referenced Session does not exist", httpErr.Message)
}

func TestHandleErrorNoRows(t *testing.T) {
	err := HandleError(pgx.ErrNoRows)

	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.Status)
}

func TestHandleErrorPassesThroughHTTPErrors(t *testing.T) {
	original := errs.NewNotFoundError("Course not found", true, nil)

	assert.Same(t, original, HandleError(original))
}

func TestHandleErrorUnknownFallsBackToInternal(t *testing.T) {
	err := HandleError(errors.New("something odd"))

	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusInternalServerError, httpErr.Status)
}

func TestConvertPgErrorKeepsDriverError(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23514", Severity: "ERROR", Message: "check violated", TableName: "sessions", ColumnName: "status"}

	converted := ConvertPgError(pgErr)

	assert.Equal(t, CheckViolation, converted.Code)
	assert.Equal(t, SeverityError, converted.Severity)
	assert.Equal(t, "23514", converted.DatabaseCode)

	var unwrapped *pgconn.PgError
	require.ErrorAs(t, converted, &unwrapped)
	assert.Same(t, pgErr, unwrapped)
}
