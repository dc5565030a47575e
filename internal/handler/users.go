package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/tutoriapp/backend/internal/model"
	"github.com/tutoriapp/backend/internal/repository"
	"github.com/tutoriapp/backend/internal/server"
	"github.com/tutoriapp/backend/internal/service"
	"github.com/tutoriapp/backend/internal/validation"
)

// ListUsersRequest carries the user listing filters.
type ListUsersRequest struct {
	Role   *model.Role `query:"role" validate:"omitempty,oneof=admin user"`
	Status *bool       `query:"status"`
	Search *string     `query:"search"`
}

func (r *ListUsersRequest) Validate() error {
	return validation.Struct(r)
}

// GetUserRequest identifies a user by path parameter.
type GetUserRequest struct {
	ID int64 `param:"id" validate:"required,gt=0"`
}

func (r *GetUserRequest) Validate() error {
	return validation.Struct(r)
}

// CreateUserRequest is the admin account-creation payload. Unlike
// register, it may set role and status.
type CreateUserRequest struct {
	Email         string      `json:"email" validate:"required,email"`
	Password      string      `json:"password" validate:"required,min=8"`
	Name          string      `json:"name" validate:"required"`
	SecondName    *string     `json:"second_name"`
	SecondSurname *string     `json:"second_surname"`
	PhoneNumber   *string     `json:"phone_number"`
	Role          *model.Role `json:"role" validate:"omitempty,oneof=admin user"`
	Status        *bool       `json:"status"`
}

func (r *CreateUserRequest) Validate() error {
	return validation.Struct(r)
}

// UpdateUserRequest is a partial update; only non-nil fields are written.
type UpdateUserRequest struct {
	ID            int64       `param:"id" validate:"required,gt=0"`
	Email         *string     `json:"email" validate:"omitempty,email"`
	Password      *string     `json:"password" validate:"omitempty,min=8"`
	Name          *string     `json:"name"`
	SecondName    *string     `json:"second_name"`
	SecondSurname *string     `json:"second_surname"`
	PhoneNumber   *string     `json:"phone_number"`
	Role          *model.Role `json:"role" validate:"omitempty,oneof=admin user"`
	Status        *bool       `json:"status"`
}

func (r *UpdateUserRequest) Validate() error {
	return validation.Struct(r)
}

// UpdateUserStatusRequest toggles an account. Status is a pointer so that
// an explicit false is distinguishable from a missing field.
type UpdateUserStatusRequest struct {
	ID     int64 `param:"id" validate:"required,gt=0"`
	Status *bool `json:"status" validate:"required"`
}

func (r *UpdateUserStatusRequest) Validate() error {
	return validation.Struct(r)
}

// ListSessionStudentsRequest lists the students enrolled in a session,
// optionally narrowed by enrollment status or a name/email search.
type ListSessionStudentsRequest struct {
	SessionID int64                   `param:"session_id" validate:"required,gt=0"`
	Status    *model.EnrollmentStatus `query:"status" validate:"omitempty,oneof=requested registered absent attended rejected"`
	Search    *string                 `query:"search"`
}

func (r *ListSessionStudentsRequest) Validate() error {
	return validation.Struct(r)
}

// UsersHandler serves user account management endpoints.
type UsersHandler struct {
	Handler
	users *service.UsersService
}

// NewUsersHandler constructs a UsersHandler.
func NewUsersHandler(s *server.Server, users *service.UsersService) *UsersHandler {
	return &UsersHandler{
		Handler: NewHandler(s),
		users:   users,
	}
}

// List returns users matching the filters with a total count.
func (h *UsersHandler) List(c echo.Context, req *ListUsersRequest) (dataEnvelope[*model.UserList], error) {
	list, err := h.users.FindMany(c.Request().Context(), repository.UserFilter{
		Role:   req.Role,
		Status: req.Status,
		Search: req.Search,
	})
	if err != nil {
		return dataEnvelope[*model.UserList]{}, err
	}

	return envelope(list), nil
}

// Get returns a single user.
func (h *UsersHandler) Get(c echo.Context, req *GetUserRequest) (dataEnvelope[*model.User], error) {
	user, err := h.users.FindOne(c.Request().Context(), req.ID)
	if err != nil {
		return dataEnvelope[*model.User]{}, err
	}

	return envelope(user), nil
}

// Create creates a user account.
func (h *UsersHandler) Create(c echo.Context, req *CreateUserRequest) (dataEnvelope[*model.User], error) {
	user, err := h.users.Create(c.Request().Context(), service.CreateUserParams{
		Email:         req.Email,
		Password:      req.Password,
		Name:          req.Name,
		SecondName:    req.SecondName,
		SecondSurname: req.SecondSurname,
		PhoneNumber:   req.PhoneNumber,
		Role:          req.Role,
		Status:        req.Status,
	})
	if err != nil {
		return dataEnvelope[*model.User]{}, err
	}

	return envelope(user), nil
}

// Update applies a partial update to a user.
func (h *UsersHandler) Update(c echo.Context, req *UpdateUserRequest) (dataEnvelope[*model.User], error) {
	user, err := h.users.Update(c.Request().Context(), req.ID, service.UpdateUserParams{
		Email:         req.Email,
		Password:      req.Password,
		Name:          req.Name,
		SecondName:    req.SecondName,
		SecondSurname: req.SecondSurname,
		PhoneNumber:   req.PhoneNumber,
		Role:          req.Role,
		Status:        req.Status,
	})
	if err != nil {
		return dataEnvelope[*model.User]{}, err
	}

	return envelope(user), nil
}

// UpdateStatus enables or disables an account.
func (h *UsersHandler) UpdateStatus(c echo.Context, req *UpdateUserStatusRequest) (dataEnvelope[*model.User], error) {
	user, err := h.users.UpdateStatus(c.Request().Context(), req.ID, *req.Status)
	if err != nil {
		return dataEnvelope[*model.User]{}, err
	}

	return envelope(user), nil
}

// ListBySession returns the students enrolled in a session.
func (h *UsersHandler) ListBySession(c echo.Context, req *ListSessionStudentsRequest) (dataEnvelope[*model.StudentList], error) {
	list, err := h.users.FindManyBySession(c.Request().Context(), req.SessionID, repository.StudentFilter{
		Status: req.Status,
		Search: req.Search,
	})
	if err != nil {
		return dataEnvelope[*model.StudentList]{}, err
	}

	return envelope(list), nil
}
