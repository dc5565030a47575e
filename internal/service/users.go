package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/tutoriapp/backend/internal/errs"
	"github.com/tutoriapp/backend/internal/model"
	"github.com/tutoriapp/backend/internal/repository"
	"github.com/tutoriapp/backend/internal/server"
)

// CreateUserParams is the admin user-creation payload. Password arrives in
// plaintext and is hashed here before it reaches the repository.
type CreateUserParams struct {
	Email         string
	Password      string
	Name          string
	SecondName    *string
	SecondSurname *string
	PhoneNumber   *string
	Role          *model.Role
	Status        *bool
}

// UpdateUserParams is the partial-update payload for a user. A non-nil
// Password is rehashed before storage.
type UpdateUserParams struct {
	Email         *string
	Password      *string
	Name          *string
	SecondName    *string
	SecondSurname *string
	PhoneNumber   *string
	Role          *model.Role
	Status        *bool
}

// UsersService implements user account management.
type UsersService struct {
	server *server.Server
	users  *repository.UsersRepository
}

// NewUsersService constructs a UsersService on the users repository.
func NewUsersService(s *server.Server, users *repository.UsersRepository) *UsersService {
	return &UsersService{
		server: s,
		users:  users,
	}
}

// FindMany lists users matching the filter with a total count.
func (s *UsersService) FindMany(ctx context.Context, filter repository.UserFilter) (*model.UserList, error) {
	users, err := s.users.FindMany(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &model.UserList{
		TotalRecords: len(users),
		Users:        users,
	}, nil
}

// FindOne fetches a user by id.
func (s *UsersService) FindOne(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.users.FindOne(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, userNotFound()
		}
		return nil, err
	}
	return user, nil
}

// Create inserts a user with a hashed password and queues the welcome
// email. Duplicate emails surface as the driver's unique violation for the
// global error handler to translate.
func (s *UsersService) Create(ctx context.Context, params CreateUserParams) (*model.User, error) {
	hash, err := HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Create(ctx, repository.CreateUserParams{
		Email:         params.Email,
		Password:      hash,
		Name:          params.Name,
		SecondName:    params.SecondName,
		SecondSurname: params.SecondSurname,
		PhoneNumber:   params.PhoneNumber,
		Role:          params.Role,
		Status:        params.Status,
	})
	if err != nil {
		return nil, err
	}

	if err := s.server.Job.EnqueueWelcomeEmail(user.Email, user.Name); err != nil {
		s.server.Logger.Error().Err(err).Str("email", user.Email).Msg("Failed to enqueue welcome email")
	}

	return user, nil
}

// Update applies a partial update, rehashing the password when present.
func (s *UsersService) Update(ctx context.Context, id int64, params UpdateUserParams) (*model.User, error) {
	repoParams := repository.UpdateUserParams{
		Email:         params.Email,
		Name:          params.Name,
		SecondName:    params.SecondName,
		SecondSurname: params.SecondSurname,
		PhoneNumber:   params.PhoneNumber,
		Role:          params.Role,
		Status:        params.Status,
	}

	if params.Password != nil {
		hash, err := HashPassword(*params.Password)
		if err != nil {
			return nil, err
		}
		repoParams.Password = &hash
	}

	user, err := s.users.Update(ctx, id, repoParams)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, userNotFound()
		}
		return nil, err
	}
	return user, nil
}

// UpdateStatus activates or deactivates a user account.
func (s *UsersService) UpdateStatus(ctx context.Context, id int64, status bool) (*model.User, error) {
	user, err := s.users.UpdateStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, userNotFound()
		}
		return nil, err
	}
	return user, nil
}

// FindManyBySession lists the students enrolled in a session with a total
// count.
func (s *UsersService) FindManyBySession(ctx context.Context, sessionID int64, filter repository.StudentFilter) (*model.StudentList, error) {
	students, err := s.users.FindManyBySessionID(ctx, sessionID, filter)
	if err != nil {
		return nil, err
	}

	return &model.StudentList{
		TotalRecords: len(students),
		Students:     students,
	}, nil
}

func userNotFound() *errs.HTTPError {
	code := "USER_NOT_FOUND"
	return errs.NewNotFoundError("User not found", true, &code)
}
