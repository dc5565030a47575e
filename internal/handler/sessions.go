package handler

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tutoriapp/backend/internal/model"
	"github.com/tutoriapp/backend/internal/repository"
	"github.com/tutoriapp/backend/internal/server"
	"github.com/tutoriapp/backend/internal/service"
	"github.com/tutoriapp/backend/internal/validation"
)

// dateLayout is the wire format for session date filters.
const dateLayout = "2006-01-02"

// sessionFilters is the query-parameter filter set shared by the session
// listing endpoints. Dates arrive as YYYY-MM-DD strings; the end date is
// inclusive and gets extended to the end of its day before hitting the
// repository.
type sessionFilters struct {
	Search    *string              `query:"search"`
	Level     *model.SessionLevel  `query:"level" validate:"omitempty,oneof=basic medium advanced"`
	Status    *model.SessionStatus `query:"status" validate:"omitempty,oneof=pending confirmed cancelled"`
	StartDate *string              `query:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EndDate   *string              `query:"endDate" validate:"omitempty,datetime=2006-01-02"`
	Limit     *int                 `query:"limit" validate:"omitempty,gt=0"`
}

// toFilter converts the validated query parameters into a repository
// filter.
func (f sessionFilters) toFilter() repository.SessionFilter {
	filter := repository.SessionFilter{
		Search: f.Search,
		Level:  f.Level,
		Status: f.Status,
		Limit:  f.Limit,
	}

	if start := parseDateParam(f.StartDate); start != nil {
		filter.StartDate = start
	}
	if end := parseDateParam(f.EndDate); end != nil {
		endOfDay := end.AddDate(0, 0, 1).Add(-time.Nanosecond)
		filter.EndDate = &endOfDay
	}

	return filter
}

// parseDateParam turns a validated YYYY-MM-DD string into a midnight
// timestamp. The datetime validator tag already rejected malformed input,
// so a parse failure is treated as absent.
func parseDateParam(value *string) *time.Time {
	if value == nil {
		return nil
	}

	parsed, err := time.Parse(dateLayout, *value)
	if err != nil {
		return nil
	}

	return &parsed
}

// ListSessionsRequest carries the open catalog filters. ExcludeUserID
// drops sessions the given student already belongs to.
type ListSessionsRequest struct {
	sessionFilters
	ExcludeUserID *int64 `query:"excludeUserId" validate:"omitempty,gt=0"`
}

func (r *ListSessionsRequest) Validate() error {
	return validation.Struct(r)
}

// GetSessionRequest identifies a session by path parameter.
type GetSessionRequest struct {
	ID int64 `param:"id" validate:"required,gt=0"`
}

func (r *GetSessionRequest) Validate() error {
	return validation.Struct(r)
}

// ListTutorSessionsRequest lists a tutor's sessions.
type ListTutorSessionsRequest struct {
	TutorID int64 `param:"tutor_id" validate:"required,gt=0"`
	sessionFilters
}

func (r *ListTutorSessionsRequest) Validate() error {
	return validation.Struct(r)
}

// ListStudentSessionsRequest lists the sessions a student is enrolled in.
type ListStudentSessionsRequest struct {
	StudentID int64 `param:"student_id" validate:"required,gt=0"`
	sessionFilters
}

func (r *ListStudentSessionsRequest) Validate() error {
	return validation.Struct(r)
}

// CreateSessionRequest is the session-creation payload. Duration and seats
// are pointers so that an explicit zero is distinguishable from a missing
// field; dates are RFC 3339.
type CreateSessionRequest struct {
	Duration    *int                 `json:"duration" validate:"required,gte=0"`
	Seats       *int                 `json:"seats" validate:"required,gte=0"`
	Type        model.SessionType    `json:"type" validate:"required,oneof=online in_person"`
	TutorID     int64                `json:"tutor_id" validate:"required,gt=0"`
	CourseID    int64                `json:"course_id" validate:"required,gt=0"`
	Title       *string              `json:"title"`
	Description *string              `json:"description"`
	StartDate   *time.Time           `json:"start_date"`
	EndDate     *time.Time           `json:"end_date"`
	Level       *model.SessionLevel  `json:"level" validate:"omitempty,oneof=basic medium advanced"`
	Status      *model.SessionStatus `json:"status" validate:"omitempty,oneof=pending confirmed cancelled"`
	ClassRoom   *string              `json:"class_room"`
}

func (r *CreateSessionRequest) Validate() error {
	return validation.Struct(r)
}

// UpdateSessionStatusRequest moves a session through its scheduling
// states.
type UpdateSessionStatusRequest struct {
	ID     int64               `param:"id" validate:"required,gt=0"`
	Status model.SessionStatus `json:"status" validate:"required,oneof=pending confirmed cancelled"`
}

func (r *UpdateSessionStatusRequest) Validate() error {
	return validation.Struct(r)
}

// EnrollStudentRequest adds a student to a session.
type EnrollStudentRequest struct {
	SessionID int64                   `param:"session_id" validate:"required,gt=0"`
	StudentID int64                   `json:"student_id" validate:"required,gt=0"`
	Status    *model.EnrollmentStatus `json:"status" validate:"omitempty,oneof=requested registered absent attended rejected"`
	Attended  *bool                   `json:"attended"`
}

func (r *EnrollStudentRequest) Validate() error {
	return validation.Struct(r)
}

// UpdateEnrollmentRequest changes an enrollment's standing, optionally
// recording attendance.
type UpdateEnrollmentRequest struct {
	SessionID int64                  `param:"session_id" validate:"required,gt=0"`
	StudentID int64                  `param:"student_id" validate:"required,gt=0"`
	Status    model.EnrollmentStatus `json:"status" validate:"required,oneof=requested registered absent attended rejected"`
	Attended  *bool                  `json:"attended"`
}

func (r *UpdateEnrollmentRequest) Validate() error {
	return validation.Struct(r)
}

// StudentStatsRequest identifies the student whose dashboard is requested.
type StudentStatsRequest struct {
	StudentID int64 `param:"student_id" validate:"required,gt=0"`
}

func (r *StudentStatsRequest) Validate() error {
	return validation.Struct(r)
}

// TutorStatsRequest identifies the tutor whose dashboard is requested.
type TutorStatsRequest struct {
	TutorID int64 `param:"tutor_id" validate:"required,gt=0"`
}

func (r *TutorStatsRequest) Validate() error {
	return validation.Struct(r)
}

// SessionsHandler serves session scheduling, enrollment and dashboard
// endpoints.
type SessionsHandler struct {
	Handler
	sessions *service.SessionsService
}

// NewSessionsHandler constructs a SessionsHandler.
func NewSessionsHandler(s *server.Server, sessions *service.SessionsService) *SessionsHandler {
	return &SessionsHandler{
		Handler:  NewHandler(s),
		sessions: sessions,
	}
}

// List returns the open session catalog.
func (h *SessionsHandler) List(c echo.Context, req *ListSessionsRequest) (dataEnvelope[*model.SessionList], error) {
	filter := req.toFilter()
	filter.ExcludeStudentID = req.ExcludeUserID

	list, err := h.sessions.FindMany(c.Request().Context(), filter)
	if err != nil {
		return dataEnvelope[*model.SessionList]{}, err
	}

	return envelope(list), nil
}

// Get returns a single session with its course, tutor and roster.
func (h *SessionsHandler) Get(c echo.Context, req *GetSessionRequest) (dataEnvelope[*model.Session], error) {
	session, err := h.sessions.FindOne(c.Request().Context(), req.ID)
	if err != nil {
		return dataEnvelope[*model.Session]{}, err
	}

	return envelope(session), nil
}

// ListByTutor returns the sessions a tutor leads.
func (h *SessionsHandler) ListByTutor(c echo.Context, req *ListTutorSessionsRequest) (dataEnvelope[*model.SessionList], error) {
	list, err := h.sessions.FindManyByTutor(c.Request().Context(), req.TutorID, req.toFilter())
	if err != nil {
		return dataEnvelope[*model.SessionList]{}, err
	}

	return envelope(list), nil
}

// ListByStudent returns the sessions a student is enrolled in, each with
// that student's attendance projection.
func (h *SessionsHandler) ListByStudent(c echo.Context, req *ListStudentSessionsRequest) (dataEnvelope[*model.SessionList], error) {
	list, err := h.sessions.FindManyByStudent(c.Request().Context(), req.StudentID, req.toFilter())
	if err != nil {
		return dataEnvelope[*model.SessionList]{}, err
	}

	return envelope(list), nil
}

// Create schedules a session.
func (h *SessionsHandler) Create(c echo.Context, req *CreateSessionRequest) (dataEnvelope[*model.Session], error) {
	session, err := h.sessions.Create(c.Request().Context(), repository.CreateSessionParams{
		Title:       req.Title,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Duration:    *req.Duration,
		Seats:       *req.Seats,
		Type:        req.Type,
		Level:       req.Level,
		Status:      req.Status,
		ClassRoom:   req.ClassRoom,
		TutorID:     req.TutorID,
		CourseID:    req.CourseID,
	})
	if err != nil {
		return dataEnvelope[*model.Session]{}, err
	}

	return envelope(session), nil
}

// UpdateStatus moves a session through its scheduling states.
func (h *SessionsHandler) UpdateStatus(c echo.Context, req *UpdateSessionStatusRequest) (dataEnvelope[*model.Session], error) {
	session, err := h.sessions.UpdateStatus(c.Request().Context(), req.ID, req.Status)
	if err != nil {
		return dataEnvelope[*model.Session]{}, err
	}

	return envelope(session), nil
}

// Enroll adds a student to a session.
func (h *SessionsHandler) Enroll(c echo.Context, req *EnrollStudentRequest) (dataEnvelope[*model.SessionStudent], error) {
	enrollment, err := h.sessions.Enroll(c.Request().Context(), service.CreateEnrollmentParams{
		SessionID: req.SessionID,
		StudentID: req.StudentID,
		Status:    req.Status,
		Attended:  req.Attended,
	})
	if err != nil {
		return dataEnvelope[*model.SessionStudent]{}, err
	}

	return envelope(enrollment), nil
}

// UpdateEnrollment changes an enrollment's standing.
func (h *SessionsHandler) UpdateEnrollment(c echo.Context, req *UpdateEnrollmentRequest) (dataEnvelope[*model.SessionStudent], error) {
	enrollment, err := h.sessions.UpdateEnrollment(c.Request().Context(), req.SessionID, req.StudentID, repository.UpdateEnrollmentParams{
		Status:   req.Status,
		Attended: req.Attended,
	})
	if err != nil {
		return dataEnvelope[*model.SessionStudent]{}, err
	}

	return envelope(enrollment), nil
}

// StudentStats returns the student dashboard numbers.
func (h *SessionsHandler) StudentStats(c echo.Context, req *StudentStatsRequest) (dataEnvelope[*model.StudentStats], error) {
	stats, err := h.sessions.StudentStats(c.Request().Context(), req.StudentID)
	if err != nil {
		return dataEnvelope[*model.StudentStats]{}, err
	}

	return envelope(stats), nil
}

// StudentStatsHistory returns the student's past-session summary.
func (h *SessionsHandler) StudentStatsHistory(c echo.Context, req *StudentStatsRequest) (dataEnvelope[*model.StudentStatsHistory], error) {
	history, err := h.sessions.StudentStatsHistory(c.Request().Context(), req.StudentID)
	if err != nil {
		return dataEnvelope[*model.StudentStatsHistory]{}, err
	}

	return envelope(history), nil
}

// TutorStats returns the tutor dashboard numbers.
func (h *SessionsHandler) TutorStats(c echo.Context, req *TutorStatsRequest) (dataEnvelope[*model.TutorStats], error) {
	stats, err := h.sessions.TutorStats(c.Request().Context(), req.TutorID)
	if err != nil {
		return dataEnvelope[*model.TutorStats]{}, err
	}

	return envelope(stats), nil
}
