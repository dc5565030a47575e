// Package router initializes the HTTP router (using Echo).
//
// It registers the middlewares and defines the API route groups,
// mapping specific paths to their corresponding handlers
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/tutoriapp/backend/internal/handler"
	"github.com/tutoriapp/backend/internal/middleware"
)

// New builds the Echo instance: global middleware chain, the error
// handler, system routes and the API route groups.
//
// Middleware order matters:
//   - Recover outermost, so panics anywhere below become 500s
//   - RequestID before the context enhancer, which reads it
//   - the New Relic middleware before the enhancer, which picks the
//     transaction up for log/trace correlation
//   - the request logger after the enhancer so it logs with correlation
//     fields
//
// The auth middleware runs per route group, not here; protected groups
// re-run the context enhancer after it so request logs carry the user.
func New(h *handler.Handlers, mw *middleware.Middlewares) *echo.Echo {
	e := echo.New()

	e.HideBanner = true
	e.HidePort = true

	e.HTTPErrorHandler = mw.Global.GlobalErrorHandler

	e.Use(mw.Global.Recover())
	e.Use(middleware.RequestID())
	e.Use(mw.Tracing.NewRelicMiddleware())
	e.Use(mw.ContextEnhancer.EnhanceContext())
	e.Use(mw.Global.RequestLogger())
	e.Use(mw.Global.CORS())
	e.Use(mw.Global.Secure())

	registerSystemRoutes(e, h)
	registerAPIRoutes(e, h, mw)

	return e
}
