package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/tutoriapp/backend/internal/model"
	"github.com/tutoriapp/backend/internal/server"
	"github.com/tutoriapp/backend/internal/service"
	"github.com/tutoriapp/backend/internal/validation"
)

// LoginRequest carries the credential payload for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Validate() error {
	return validation.Struct(r)
}

// RegisterRequest carries the self-signup payload. The account role is
// always "user"; privileged accounts are created through the users API.
type RegisterRequest struct {
	Email         string  `json:"email" validate:"required,email"`
	Password      string  `json:"password" validate:"required,min=8"`
	Name          string  `json:"name" validate:"required"`
	SecondName    *string `json:"second_name"`
	SecondSurname *string `json:"second_surname"`
	PhoneNumber   *string `json:"phone_number"`
}

func (r *RegisterRequest) Validate() error {
	return validation.Struct(r)
}

// AuthHandler serves the public authentication endpoints.
type AuthHandler struct {
	Handler
	auth *service.AuthService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(s *server.Server, auth *service.AuthService) *AuthHandler {
	return &AuthHandler{
		Handler: NewHandler(s),
		auth:    auth,
	}
}

// Login exchanges credentials for a signed token plus the user record.
func (h *AuthHandler) Login(c echo.Context, req *LoginRequest) (dataEnvelope[*model.LoginResult], error) {
	result, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return dataEnvelope[*model.LoginResult]{}, err
	}

	return envelope(result), nil
}

// Register creates the account and signs it in, returning the same shape
// as Login.
func (h *AuthHandler) Register(c echo.Context, req *RegisterRequest) (dataEnvelope[*model.LoginResult], error) {
	result, err := h.auth.Register(c.Request().Context(), service.RegisterParams{
		Email:         req.Email,
		Password:      req.Password,
		Name:          req.Name,
		SecondName:    req.SecondName,
		SecondSurname: req.SecondSurname,
		PhoneNumber:   req.PhoneNumber,
	})
	if err != nil {
		return dataEnvelope[*model.LoginResult]{}, err
	}

	return envelope(result), nil
}
