package middleware

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"

	"github.com/tutoriapp/backend/internal/logger"
	"github.com/tutoriapp/backend/internal/model"
	"github.com/tutoriapp/backend/internal/server"
)

const (
	// UserIDKey, UserRoleKey and UserKey are the Echo context keys the
	// auth middleware fills in for authenticated requests.
	UserIDKey   = "user_id"
	UserRoleKey = "user_role"
	UserKey     = "user"

	// LoggerKey stores the request-scoped logger.
	LoggerKey = "logger"
)

// ContextEnhancer builds a request-scoped logger carrying correlation
// fields (request id, method, path, ip, trace ids, user identity) and
// stores it in both the Echo context and the Go request context, so code
// that only sees a context.Context can still log with correlation.
type ContextEnhancer struct {
	server *server.Server
}

// NewContextEnhancer creates a ContextEnhancer using the app Server
// container.
func NewContextEnhancer(s *server.Server) *ContextEnhancer {
	return &ContextEnhancer{server: s}
}

// EnhanceContext returns the enriching middleware. It expects RequestID
// and the New Relic middleware to have run earlier in the chain; user
// fields only appear when the auth middleware ran before it.
func (ce *ContextEnhancer) EnhanceContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := GetRequestID(c)

			contextLogger := ce.server.Logger.With().
				Str("request_id", requestID).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Str("ip", c.RealIP()).
				Logger()

			if txn := newrelic.FromContext(c.Request().Context()); txn != nil {
				contextLogger = logger.WithTraceContext(contextLogger, txn)
			}

			if userID := GetUserID(c); userID != 0 {
				contextLogger = contextLogger.With().Int64("user_id", userID).Logger()
			}
			if userRole := GetUserRole(c); userRole != "" {
				contextLogger = contextLogger.With().Str("user_role", string(userRole)).Logger()
			}

			c.Set(LoggerKey, &contextLogger)

			ctx := context.WithValue(c.Request().Context(), LoggerKey, &contextLogger)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// GetUserID returns the authenticated user's id, or zero when the request
// is unauthenticated.
func GetUserID(c echo.Context) int64 {
	if userID, ok := c.Get(UserIDKey).(int64); ok {
		return userID
	}
	return 0
}

// GetUserRole returns the authenticated user's role, or the empty string.
func GetUserRole(c echo.Context) model.Role {
	if role, ok := c.Get(UserRoleKey).(model.Role); ok {
		return role
	}
	return ""
}

// GetUser returns the authenticated user, or nil.
func GetUser(c echo.Context) *model.User {
	if user, ok := c.Get(UserKey).(*model.User); ok {
		return user
	}
	return nil
}

// GetLogger retrieves the request-scoped logger from the Echo context.
// It falls back to a no-op logger when EnhanceContext did not run, so
// callers never need a nil check.
func GetLogger(c echo.Context) *zerolog.Logger {
	if requestLogger, ok := c.Get(LoggerKey).(*zerolog.Logger); ok {
		return requestLogger
	}

	nop := zerolog.Nop()
	return &nop
}
