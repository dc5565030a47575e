package service

import (
	"github.com/tutoriapp/backend/internal/lib/job"
	"github.com/tutoriapp/backend/internal/repository"
	"github.com/tutoriapp/backend/internal/server"
)

// Services bundles the business-logic services the handlers depend on.
type Services struct {
	Auth     *AuthService
	Users    *UsersService
	Courses  *CoursesService
	Sessions *SessionsService
	Job      *job.JobService
}

// NewService wires the services on top of the repositories.
func NewService(s *server.Server, repos *repository.Repositories) (*Services, error) {
	authService := NewAuthService(s, repos.Users)

	return &Services{
		Auth:     authService,
		Users:    NewUsersService(s, repos.Users),
		Courses:  NewCoursesService(s, repos.Courses),
		Sessions: NewSessionsService(s, repos.Sessions, repos.Users, repos.Courses),
		Job:      s.Job,
	}, nil
}
