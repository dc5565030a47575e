package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tutoriapp/backend/internal/handler"
	"github.com/tutoriapp/backend/internal/middleware"
)

// registerAPIRoutes defines the /api surface: the public auth endpoints
// (rate limited), the health endpoint, and the protected resource groups.
func registerAPIRoutes(e *echo.Echo, h *handler.Handlers, mw *middleware.Middlewares) {
	api := e.Group("/api")

	api.GET("/health", h.Health.CheckHealth)

	auth := api.Group("/auth", mw.RateLimit.LimitAuthRoutes())
	auth.POST("/login", handler.Handle(h.Auth.Handler, h.Auth.Login, http.StatusOK))
	auth.POST("/register", handler.Handle(h.Auth.Handler, h.Auth.Register, http.StatusCreated))

	// Everything below requires a bearer token. The context enhancer and
	// tracing enrichment run again after auth so logs and traces on these
	// routes carry the authenticated user.
	protected := api.Group("",
		mw.Auth.RequireAuth,
		mw.ContextEnhancer.EnhanceContext(),
		mw.Tracing.EnhanceTracing(),
	)

	users := protected.Group("/users")
	users.GET("", handler.Handle(h.Users.Handler, h.Users.List, http.StatusOK))
	users.POST("", handler.Handle(h.Users.Handler, h.Users.Create, http.StatusCreated))
	users.GET("/students-by-session/:session_id", handler.Handle(h.Users.Handler, h.Users.ListBySession, http.StatusOK))
	users.GET("/:id", handler.Handle(h.Users.Handler, h.Users.Get, http.StatusOK))
	users.PUT("/:id", handler.Handle(h.Users.Handler, h.Users.Update, http.StatusOK))
	users.PATCH("/:id/status", handler.Handle(h.Users.Handler, h.Users.UpdateStatus, http.StatusOK))

	courses := protected.Group("/courses")
	courses.GET("", handler.Handle(h.Courses.Handler, h.Courses.List, http.StatusOK))
	courses.POST("", handler.Handle(h.Courses.Handler, h.Courses.Create, http.StatusCreated))
	courses.GET("/:id", handler.Handle(h.Courses.Handler, h.Courses.Get, http.StatusOK))
	courses.PUT("/:id", handler.Handle(h.Courses.Handler, h.Courses.Update, http.StatusOK))
	courses.PATCH("/:id/status", handler.Handle(h.Courses.Handler, h.Courses.UpdateStatus, http.StatusOK))

	sessions := protected.Group("/sessions")
	sessions.GET("", handler.Handle(h.Sessions.Handler, h.Sessions.List, http.StatusOK))
	sessions.POST("", handler.Handle(h.Sessions.Handler, h.Sessions.Create, http.StatusCreated))
	sessions.GET("/tutor/:tutor_id", handler.Handle(h.Sessions.Handler, h.Sessions.ListByTutor, http.StatusOK))
	sessions.GET("/tutor/:tutor_id/stats", handler.Handle(h.Sessions.Handler, h.Sessions.TutorStats, http.StatusOK))
	sessions.GET("/student/:student_id", handler.Handle(h.Sessions.Handler, h.Sessions.ListByStudent, http.StatusOK))
	sessions.GET("/student/:student_id/stats", handler.Handle(h.Sessions.Handler, h.Sessions.StudentStats, http.StatusOK))
	sessions.GET("/student/:student_id/stats/history", handler.Handle(h.Sessions.Handler, h.Sessions.StudentStatsHistory, http.StatusOK))
	sessions.GET("/:id", handler.Handle(h.Sessions.Handler, h.Sessions.Get, http.StatusOK))
	sessions.PATCH("/:id/status", handler.Handle(h.Sessions.Handler, h.Sessions.UpdateStatus, http.StatusOK))
	sessions.POST("/:session_id/students", handler.Handle(h.Sessions.Handler, h.Sessions.Enroll, http.StatusCreated))
	sessions.PATCH("/:session_id/students/:student_id", handler.Handle(h.Sessions.Handler, h.Sessions.UpdateEnrollment, http.StatusOK))
}
