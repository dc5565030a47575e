package middleware

import (
	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/tutoriapp/backend/internal/server"
	"github.com/tutoriapp/backend/internal/service"
)

// Middlewares groups all middleware components used by the HTTP server,
// so routing code has a single place to pull them from.
type Middlewares struct {
	// Global holds the middleware applied to every route: CORS, request
	// logging, recovery, secure headers, and the global error handler.
	Global *GlobalMiddlewares

	// Auth enforces bearer-token authentication and attaches the user to
	// the request context.
	Auth *AuthMiddleware

	// ContextEnhancer enriches each request with a request-scoped logger.
	ContextEnhancer *ContextEnhancer

	// Tracing provides the New Relic transaction middleware and attribute
	// enrichment.
	Tracing *TracingMiddleware

	// RateLimit throttles the public auth endpoints.
	RateLimit *RateLimitMiddleware
}

// NewMiddlewares constructs all middleware components. The New Relic
// application instance is pulled from the server's LoggerService; it is
// nil when the agent is disabled and the tracing middleware degrades to a
// no-op.
func NewMiddlewares(s *server.Server, authService *service.AuthService) *Middlewares {
	var nrApp *newrelic.Application
	if s.LoggerService != nil {
		nrApp = s.LoggerService.GetApplication()
	}

	return &Middlewares{
		Global:          NewGlobalMiddlewares(s),
		Auth:            NewAuthMiddleware(s, authService),
		ContextEnhancer: NewContextEnhancer(s),
		Tracing:         NewTracingMiddleware(s, nrApp),
		RateLimit:       NewRateLimitMiddleware(s),
	}
}
