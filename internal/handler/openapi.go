package handler

import (
	"fmt"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"

	"github.com/tutoriapp/backend/internal/server"
)

// OpenAPIHandler serves the OpenAPI UI. The UI is a static HTML page that
// loads the API description from the static folder, so doc updates need
// no rebuild.
type OpenAPIHandler struct {
	Handler
}

// NewOpenAPIHandler constructs an OpenAPIHandler.
func NewOpenAPIHandler(s *server.Server) *OpenAPIHandler {
	return &OpenAPIHandler{
		Handler: NewHandler(s),
	}
}

// ServeOpenAPIUI reads static/openapi.html and serves it as an HTML
// response, uncached so doc changes show up immediately.
func (h *OpenAPIHandler) ServeOpenAPIUI(c echo.Context) error {
	templateBytes, err := os.ReadFile("static/openapi.html")

	c.Response().Header().Set("Cache-Control", "no-cache")

	if err != nil {
		return fmt.Errorf("failed to read OpenAPI UI template: %w", err)
	}

	templateString := string(templateBytes)

	if err := c.HTML(http.StatusOK, templateString); err != nil {
		return fmt.Errorf("failed to write HTML response: %w", err)
	}

	return nil
}
