package router

import (
	"github.com/labstack/echo/v4"

	"github.com/tutoriapp/backend/internal/handler"
)

// registerSystemRoutes registers the endpoints that are not business
// logic: the health endpoint monitors poll, the docs UI, and the static
// assets it loads.
func registerSystemRoutes(r *echo.Echo, h *handler.Handlers) {
	r.GET("/status", h.Health.CheckHealth)

	// Serves openapi.json and openapi.html (and any future docs assets).
	r.Static("/static", "static")

	r.GET("/docs", h.OpenAPI.ServeOpenAPIUI)
}
