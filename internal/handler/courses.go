package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/tutoriapp/backend/internal/model"
	"github.com/tutoriapp/backend/internal/repository"
	"github.com/tutoriapp/backend/internal/server"
	"github.com/tutoriapp/backend/internal/service"
	"github.com/tutoriapp/backend/internal/validation"
)

// ListCoursesRequest carries the course listing filters.
type ListCoursesRequest struct {
	Search   *string `query:"search"`
	Semester *int    `query:"semester" validate:"omitempty,gt=0"`
	Status   *bool   `query:"status"`
}

func (r *ListCoursesRequest) Validate() error {
	return validation.Struct(r)
}

// GetCourseRequest identifies a course by path parameter.
type GetCourseRequest struct {
	ID int64 `param:"id" validate:"required,gt=0"`
}

func (r *GetCourseRequest) Validate() error {
	return validation.Struct(r)
}

// CreateCourseRequest is the course-creation payload. Status defaults to
// active when omitted.
type CreateCourseRequest struct {
	Code        *string `json:"code"`
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description" validate:"required"`
	Semester    *int    `json:"semester" validate:"required"`
	Status      *bool   `json:"status"`
}

func (r *CreateCourseRequest) Validate() error {
	return validation.Struct(r)
}

// UpdateCourseRequest is a partial update; only non-nil fields are
// written.
type UpdateCourseRequest struct {
	ID          int64   `param:"id" validate:"required,gt=0"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Semester    *int    `json:"semester"`
	Status      *bool   `json:"status"`
}

func (r *UpdateCourseRequest) Validate() error {
	return validation.Struct(r)
}

// UpdateCourseStatusRequest toggles a course.
type UpdateCourseStatusRequest struct {
	ID     int64 `param:"id" validate:"required,gt=0"`
	Status *bool `json:"status" validate:"required"`
}

func (r *UpdateCourseStatusRequest) Validate() error {
	return validation.Struct(r)
}

// CoursesHandler serves course catalog endpoints.
type CoursesHandler struct {
	Handler
	courses *service.CoursesService
}

// NewCoursesHandler constructs a CoursesHandler.
func NewCoursesHandler(s *server.Server, courses *service.CoursesService) *CoursesHandler {
	return &CoursesHandler{
		Handler: NewHandler(s),
		courses: courses,
	}
}

// List returns courses matching the filters with a total count.
func (h *CoursesHandler) List(c echo.Context, req *ListCoursesRequest) (dataEnvelope[*model.CourseList], error) {
	list, err := h.courses.FindMany(c.Request().Context(), repository.CourseFilter{
		Search:   req.Search,
		Semester: req.Semester,
		Status:   req.Status,
	})
	if err != nil {
		return dataEnvelope[*model.CourseList]{}, err
	}

	return envelope(list), nil
}

// Get returns a single course.
func (h *CoursesHandler) Get(c echo.Context, req *GetCourseRequest) (dataEnvelope[*model.Course], error) {
	course, err := h.courses.FindOne(c.Request().Context(), req.ID)
	if err != nil {
		return dataEnvelope[*model.Course]{}, err
	}

	return envelope(course), nil
}

// Create creates a course.
func (h *CoursesHandler) Create(c echo.Context, req *CreateCourseRequest) (dataEnvelope[*model.Course], error) {
	status := true
	if req.Status != nil {
		status = *req.Status
	}

	course, err := h.courses.Create(c.Request().Context(), repository.CreateCourseParams{
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		Semester:    *req.Semester,
		Status:      status,
	})
	if err != nil {
		return dataEnvelope[*model.Course]{}, err
	}

	return envelope(course), nil
}

// Update applies a partial update to a course.
func (h *CoursesHandler) Update(c echo.Context, req *UpdateCourseRequest) (dataEnvelope[*model.Course], error) {
	course, err := h.courses.Update(c.Request().Context(), req.ID, repository.UpdateCourseParams{
		Name:        req.Name,
		Description: req.Description,
		Semester:    req.Semester,
		Status:      req.Status,
	})
	if err != nil {
		return dataEnvelope[*model.Course]{}, err
	}

	return envelope(course), nil
}

// UpdateStatus activates or retires a course.
func (h *CoursesHandler) UpdateStatus(c echo.Context, req *UpdateCourseStatusRequest) (dataEnvelope[*model.Course], error) {
	course, err := h.courses.UpdateStatus(c.Request().Context(), req.ID, *req.Status)
	if err != nil {
		return dataEnvelope[*model.Course]{}, err
	}

	return envelope(course), nil
}
