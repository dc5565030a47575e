package middleware

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tutoriapp/backend/internal/errs"
	"github.com/tutoriapp/backend/internal/server"
	"github.com/tutoriapp/backend/internal/service"
)

// AuthMiddleware holds the app Server and the auth service used to verify
// bearer tokens.
type AuthMiddleware struct {
	server *server.Server
	auth   *service.AuthService
}

// NewAuthMiddleware constructs an AuthMiddleware.
func NewAuthMiddleware(s *server.Server, auth *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{
		server: s,
		auth:   auth,
	}
}

// RequireAuth is an Echo middleware that enforces bearer-token
// authentication. It parses the Authorization header, verifies the token
// against the signing key and loads the user behind it, then stores the
// user's id, role and record in the Echo context for handlers to read.
func (auth *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()

		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if header == "" {
			return errs.NewUnauthorizedError("Authentication token required", true)
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return errs.NewUnauthorizedError("Invalid token format. Use: Bearer <token>", true)
		}

		user, err := auth.auth.VerifyToken(c.Request().Context(), token)
		if err != nil {
			auth.server.Logger.Warn().
				Err(err).
				Str("function", "RequireAuth").
				Str("request_id", GetRequestID(c)).
				Dur("duration", time.Since(start)).
				Msg("token verification failed")

			return err
		}

		c.Set(UserIDKey, user.ID)
		c.Set(UserRoleKey, user.Role)
		c.Set(UserKey, user)

		auth.server.Logger.Info().
			Str("function", "RequireAuth").
			Int64("user_id", user.ID).
			Str("request_id", GetRequestID(c)).
			Dur("duration", time.Since(start)).
			Msg("user authenticated successfully")

		return next(c)
	}
}
