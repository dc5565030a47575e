// Package errs defines the error types shared across the API layers.
//
// The central type is HTTPError, a structured error carrying an HTTP
// status, a machine-readable code and optional field-level validation
// errors. Services and repositories return these directly; the global
// error handler serializes them to JSON as-is.
package errs
