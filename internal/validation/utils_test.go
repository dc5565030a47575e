package validation

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutoriapp/backend/internal/errs"
)

type samplePayload struct {
	Email string `json:"email" validate:"required,email"`
	Level string `json:"level" validate:"omitempty,oneof=basic medium advanced"`
	Seats int    `json:"seats" validate:"gte=1"`
}

func (p *samplePayload) Validate() error {
	return Struct(p)
}

type rejectAllPayload struct{}

func (p *rejectAllPayload) Validate() error {
	return CustomValidationErrors{
		{Field: "start_date", Message: "must be before end_date"},
	}
}

func newJSONContext(t *testing.T, body string) echo.Context {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	return echo.New().NewContext(req, rec)
}

func TestBindAndValidateAcceptsValidPayload(t *testing.T) {
	c := newJSONContext(t, `{"email":"ada@example.com","level":"basic","seats":3}`)

	payload := new(samplePayload)
	require.NoError(t, BindAndValidate(c, payload))
	assert.Equal(t, "ada@example.com", payload.Email)
	assert.Equal(t, 3, payload.Seats)
}

func TestBindAndValidateReportsFieldErrors(t *testing.T) {
	c := newJSONContext(t, `{"email":"not-an-email","level":"expert","seats":0}`)

	err := BindAndValidate(c, new(samplePayload))

	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	require.Len(t, httpErr.Errors, 3)

	byField := map[string]string{}
	for _, fe := range httpErr.Errors {
		byField[fe.Field] = fe.Error
	}
	assert.Equal(t, "must be a valid email address", byField["email"])
	assert.Equal(t, "must be one of: basic medium advanced", byField["level"])
	assert.Equal(t, "must be at least 1", byField["seats"])
}

func TestBindAndValidateRejectsMalformedJSON(t *testing.T) {
	c := newJSONContext(t, `{"email":`)

	err := BindAndValidate(c, new(samplePayload))

	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
}

func TestBindAndValidateSurfacesCustomErrors(t *testing.T) {
	c := newJSONContext(t, `{}`)

	err := BindAndValidate(c, new(rejectAllPayload))

	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Len(t, httpErr.Errors, 1)
	assert.Equal(t, "start_date", httpErr.Errors[0].Field)
	assert.Equal(t, "must be before end_date", httpErr.Errors[0].Error)
}

func TestExtractValidationErrorRequiredAndBounds(t *testing.T) {
	payload := &samplePayload{Level: "basic", Seats: 1}

	msg, fieldErrors := extractValidationError(payload.Validate())

	assert.Equal(t, "Validation failed", msg)
	require.Len(t, fieldErrors, 1)
	assert.Equal(t, "email", fieldErrors[0].Field)
	assert.Equal(t, "is required", fieldErrors[0].Error)
}
