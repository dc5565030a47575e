package errs

import "strings"

// FieldError is a field-level validation error, serialized inside
// HTTPError.Errors:
//
//	{ "field": "email", "error": "invalid email format" }
type FieldError struct {
	// Field is the field name the error relates to (e.g. "email").
	Field string `json:"field"`

	// Error is the human-readable error message.
	Error string `json:"error"`
}

// ActionType enumerates the kinds of follow-up actions a client may be
// instructed to take.
type ActionType string

const (
	// ActionTypeRedirect tells the client to redirect; Value holds the
	// target URL or route.
	ActionTypeRedirect ActionType = "redirect"
)

// Action is an optional client instruction attached to an error response.
// Mostly used in auth flows, e.g. "redirect to login".
type Action struct {
	// Type is the kind of action (e.g. "redirect").
	Type ActionType `json:"type"`

	// Message is human-readable guidance for the client/UI.
	Message string `json:"message"`

	// Value is the payload for the action (e.g. the redirect URL).
	Value string `json:"value"`
}

// HTTPError is the error type returned to API clients. It implements the
// error interface and serializes directly to the response body.
//
// Fields:
//   - Code: machine-friendly error code (e.g. "BAD_REQUEST").
//   - Message: human-friendly message.
//   - Status: HTTP status code.
//   - Override: lets the global error handler keep this message instead
//     of replacing it with the generic status text.
//   - Errors: per-field validation errors.
//   - Action: optional client instruction.
type HTTPError struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Status   int    `json:"status"`
	Override bool   `json:"override"`

	// Errors holds field-level validation errors, typically from form input.
	Errors []FieldError `json:"errors"`

	// Action is an optional client instruction (redirect, etc.).
	Action *Action `json:"action"`
}

func (e *HTTPError) Error() string {
	return e.Message
}

// Is reports whether target is also a *HTTPError. It matches on type only,
// so errors.Is(err, &HTTPError{}) detects any API error regardless of its
// code or status.
func (e *HTTPError) Is(target error) bool {
	_, ok := target.(*HTTPError)
	return ok
}

// WithMessage returns a copy of this HTTPError with Message replaced,
// leaving the original untouched.
func (e *HTTPError) WithMessage(message string) *HTTPError {
	return &HTTPError{
		Code:     e.Code,
		Message:  message,
		Status:   e.Status,
		Override: e.Override,
		Errors:   e.Errors,
		Action:   e.Action,
	}
}

// MakeUpperCaseWithUnderscores converts a phrase into an
// UPPER_CASE_WITH_UNDERSCORES code:
//
//	"Bad Request" -> "BAD_REQUEST"
//
// Used to derive stable machine-readable codes from HTTP status text.
func MakeUpperCaseWithUnderscores(str string) string {
	return strings.ToUpper(strings.ReplaceAll(str, " ", "_"))
}
