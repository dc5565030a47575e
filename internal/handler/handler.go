// Package handler is the HTTP layer: the first entry point for business
// logic after the router.
//
// It binds and validates requests using the validation package, calls the
// appropriate service, and shapes responses. It acts as the interface
// between the HTTP request and the core business logic.
package handler
