package repository

import (
	"github.com/tutoriapp/backend/internal/server"
)

// Repositories is a container for all repository instances. It keeps
// dependency wiring in one place: build once, hand to the service layer.
type Repositories struct {
	Users    *UsersRepository
	Courses  *CoursesRepository
	Sessions *SessionsRepository
}

// NewRepositories constructs the repository container on top of the
// server's database runner.
func NewRepositories(s *server.Server) *Repositories {
	return &Repositories{
		Users:    NewUsersRepository(s),
		Courses:  NewCoursesRepository(s),
		Sessions: NewSessionsRepository(s),
	}
}
