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

// CoursesService implements course catalog management.
type CoursesService struct {
	server  *server.Server
	courses *repository.CoursesRepository
}

// NewCoursesService constructs a CoursesService on the courses repository.
func NewCoursesService(s *server.Server, courses *repository.CoursesRepository) *CoursesService {
	return &CoursesService{
		server:  s,
		courses: courses,
	}
}

// FindMany lists courses matching the filter with a total count.
func (s *CoursesService) FindMany(ctx context.Context, filter repository.CourseFilter) (*model.CourseList, error) {
	courses, err := s.courses.FindMany(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &model.CourseList{
		TotalRecords: len(courses),
		Courses:      courses,
	}, nil
}

// FindOne fetches a course by id.
func (s *CoursesService) FindOne(ctx context.Context, id int64) (*model.Course, error) {
	course, err := s.courses.FindOne(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, courseNotFound()
		}
		return nil, err
	}
	return course, nil
}

// Create inserts a course.
func (s *CoursesService) Create(ctx context.Context, params repository.CreateCourseParams) (*model.Course, error) {
	return s.courses.Create(ctx, params)
}

// Update applies a partial update to a course.
func (s *CoursesService) Update(ctx context.Context, id int64, params repository.UpdateCourseParams) (*model.Course, error) {
	course, err := s.courses.Update(ctx, id, params)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, courseNotFound()
		}
		return nil, err
	}
	return course, nil
}

// UpdateStatus opens or closes a course for enrollment.
func (s *CoursesService) UpdateStatus(ctx context.Context, id int64, status bool) (*model.Course, error) {
	course, err := s.courses.UpdateStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, courseNotFound()
		}
		return nil, err
	}
	return course, nil
}

func courseNotFound() *errs.HTTPError {
	code := "COURSE_NOT_FOUND"
	return errs.NewNotFoundError("Course not found", true, &code)
}
