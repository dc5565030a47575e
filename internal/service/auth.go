package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/tutoriapp/backend/internal/errs"
	"github.com/tutoriapp/backend/internal/model"
	"github.com/tutoriapp/backend/internal/repository"
	"github.com/tutoriapp/backend/internal/server"
)

// TokenClaims is the payload carried by a session token.
type TokenClaims struct {
	UserID int64      `json:"user_id"`
	Role   model.Role `json:"role"`
	jwt.RegisteredClaims
}

// RegisterParams is the self-service signup payload. The role is always
// "user"; privileged accounts are created through the users endpoints.
type RegisterParams struct {
	Email         string
	Password      string
	Name          string
	SecondName    *string
	SecondSurname *string
	PhoneNumber   *string
}

// AuthService issues and verifies session tokens and runs the credential
// flows.
type AuthService struct {
	server *server.Server
	users  *repository.UsersRepository
}

// NewAuthService constructs an AuthService on the users repository.
func NewAuthService(s *server.Server, users *repository.UsersRepository) *AuthService {
	return &AuthService{
		server: s,
		users:  users,
	}
}

// Login verifies the credentials and returns a token plus the user.
// Unknown email, wrong password and disabled accounts all produce the same
// 401 so callers cannot probe which emails exist.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, invalidCredentials()
		}
		return nil, err
	}

	if !user.Status {
		return nil, invalidCredentials()
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, invalidCredentials()
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return nil, err
	}

	return &model.LoginResult{Token: token, User: *user}, nil
}

// Register creates a regular user account, queues the welcome email and
// logs the new user straight in. Duplicate emails surface as the driver's
// unique violation for the global error handler to translate.
func (s *AuthService) Register(ctx context.Context, params RegisterParams) (*model.LoginResult, error) {
	hash, err := HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	role := model.RoleUser
	user, err := s.users.Create(ctx, repository.CreateUserParams{
		Email:         params.Email,
		Password:      hash,
		Name:          params.Name,
		SecondName:    params.SecondName,
		SecondSurname: params.SecondSurname,
		PhoneNumber:   params.PhoneNumber,
		Role:          &role,
	})
	if err != nil {
		return nil, err
	}

	if err := s.server.Job.EnqueueWelcomeEmail(user.Email, user.Name); err != nil {
		s.server.Logger.Error().Err(err).Str("email", user.Email).Msg("Failed to enqueue welcome email")
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return nil, err
	}

	return &model.LoginResult{Token: token, User: *user}, nil
}

// IssueToken signs a HS256 session token for the user with the configured
// lifetime.
func (s *AuthService) IssueToken(user *model.User) (string, error) {
	now := time.Now()
	claims := TokenClaims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(s.server.Config.Auth.TokenTTL) * time.Minute)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.server.Config.Auth.SecretKey))
}

// ParseToken validates a raw token string and returns its claims. Only
// HS256 signatures are accepted; expiry is enforced by the parser.
func (s *AuthService) ParseToken(tokenString string) (*TokenClaims, error) {
	claims := &TokenClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return []byte(s.server.Config.Auth.SecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, errs.NewUnauthorizedError("Invalid or expired token", true)
	}

	return claims, nil
}

// VerifyToken parses the token and loads its user through the runner.
// Deleted and disabled accounts fail verification even when the token
// itself is still valid.
func (s *AuthService) VerifyToken(ctx context.Context, tokenString string) (*model.User, error) {
	claims, err := s.ParseToken(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindOne(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.NewUnauthorizedError("Invalid or expired token", true)
		}
		return nil, err
	}
	if !user.Status {
		return nil, errs.NewUnauthorizedError("Invalid or expired token", true)
	}

	return user, nil
}

// HashPassword hashes a plaintext password with bcrypt at the default cost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func invalidCredentials() *errs.HTTPError {
	httpErr := errs.NewUnauthorizedError("Invalid email or password", true)
	httpErr.Code = "INVALID_CREDENTIALS"
	return httpErr
}
