package handler

import (
	"github.com/tutoriapp/backend/internal/server"
	"github.com/tutoriapp/backend/internal/service"
)

// Handlers is a container that groups all HTTP handlers, so router setup
// passes one object around instead of many.
type Handlers struct {
	Health   *HealthHandler
	OpenAPI  *OpenAPIHandler
	Auth     *AuthHandler
	Users    *UsersHandler
	Courses  *CoursesHandler
	Sessions *SessionsHandler
}

// NewHandlers constructs the handler container on top of the service
// layer.
func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Health:   NewHealthHandler(s),
		OpenAPI:  NewOpenAPIHandler(s),
		Auth:     NewAuthHandler(s, services.Auth),
		Users:    NewUsersHandler(s, services.Users),
		Courses:  NewCoursesHandler(s, services.Courses),
		Sessions: NewSessionsHandler(s, services.Sessions),
	}
}
