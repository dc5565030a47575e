package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tutoriapp/backend/internal/errs"
	"github.com/tutoriapp/backend/internal/model"
	"github.com/tutoriapp/backend/internal/repository"
	"github.com/tutoriapp/backend/internal/server"
)

// CreateEnrollmentParams is the enroll-student payload.
type CreateEnrollmentParams struct {
	SessionID int64
	StudentID int64
	Status    *model.EnrollmentStatus
	Attended  *bool
}

// SessionsService implements session scheduling, enrollments and the
// dashboard aggregations.
type SessionsService struct {
	server   *server.Server
	sessions *repository.SessionsRepository
	users    *repository.UsersRepository
	courses  *repository.CoursesRepository
}

// NewSessionsService constructs a SessionsService. It needs the users and
// courses repositories for the existence checks on session creation and
// enrollment.
func NewSessionsService(
	s *server.Server,
	sessions *repository.SessionsRepository,
	users *repository.UsersRepository,
	courses *repository.CoursesRepository,
) *SessionsService {
	return &SessionsService{
		server:   s,
		sessions: sessions,
		users:    users,
		courses:  courses,
	}
}

// FindMany lists catalog sessions. Each session carries an enrolled count
// next to its student list so clients can show remaining seats.
func (s *SessionsService) FindMany(ctx context.Context, filter repository.SessionFilter) (*model.SessionList, error) {
	sessions, err := s.sessions.FindMany(ctx, filter)
	if err != nil {
		return nil, err
	}

	for i := range sessions {
		enrolled := len(sessions[i].Students)
		sessions[i].Enrolled = &enrolled
	}

	return &model.SessionList{
		TotalRecords: len(sessions),
		Sessions:     sessions,
	}, nil
}

// FindOne fetches a session with its relations.
func (s *SessionsService) FindOne(ctx context.Context, id int64) (*model.Session, error) {
	session, err := s.sessions.FindOne(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sessionNotFound()
		}
		return nil, err
	}
	return session, nil
}

// FindManyByTutor lists a tutor's sessions.
func (s *SessionsService) FindManyByTutor(ctx context.Context, tutorID int64, filter repository.SessionFilter) (*model.SessionList, error) {
	sessions, err := s.sessions.FindManyByTutor(ctx, tutorID, filter)
	if err != nil {
		return nil, err
	}

	return &model.SessionList{
		TotalRecords: len(sessions),
		Sessions:     sessions,
	}, nil
}

// FindManyByStudent lists the sessions a student is enrolled in. Each
// session carries the student's own enrollment as its attendance, and the
// student list is reduced to that single entry.
func (s *SessionsService) FindManyByStudent(ctx context.Context, studentID int64, filter repository.SessionFilter) (*model.SessionList, error) {
	sessions, err := s.sessions.FindManyByStudent(ctx, studentID, filter)
	if err != nil {
		return nil, err
	}

	projectAttendance(sessions, studentID)

	return &model.SessionList{
		TotalRecords: len(sessions),
		Sessions:     sessions,
	}, nil
}

// Create schedules a session after checking that its tutor and course
// exist.
func (s *SessionsService) Create(ctx context.Context, params repository.CreateSessionParams) (*model.Session, error) {
	tutorExists, err := s.users.Exists(ctx, params.TutorID)
	if err != nil {
		return nil, err
	}
	if !tutorExists {
		code := "TUTOR_NOT_FOUND"
		return nil, errs.NewNotFoundError("Tutor not found", true, &code)
	}

	courseExists, err := s.courses.Exists(ctx, params.CourseID)
	if err != nil {
		return nil, err
	}
	if !courseExists {
		return nil, courseNotFound()
	}

	return s.sessions.Create(ctx, params)
}

// UpdateStatus moves a session through its scheduling lifecycle.
func (s *SessionsService) UpdateStatus(ctx context.Context, id int64, status model.SessionStatus) (*model.Session, error) {
	session, err := s.sessions.UpdateStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sessionNotFound()
		}
		return nil, err
	}
	return session, nil
}

// Enroll registers a student in a session. The session and student must
// exist, and the pair must not already have an enrollment. On success the
// confirmation email is queued.
func (s *SessionsService) Enroll(ctx context.Context, params CreateEnrollmentParams) (*model.SessionStudent, error) {
	sessionExists, err := s.sessions.Exists(ctx, params.SessionID)
	if err != nil {
		return nil, err
	}
	if !sessionExists {
		return nil, sessionNotFound()
	}

	studentExists, err := s.users.Exists(ctx, params.StudentID)
	if err != nil {
		return nil, err
	}
	if !studentExists {
		code := "STUDENT_NOT_FOUND"
		return nil, errs.NewNotFoundError("Student not found", true, &code)
	}

	alreadyEnrolled, err := s.sessions.EnrollmentExists(ctx, params.SessionID, params.StudentID)
	if err != nil {
		return nil, err
	}
	if alreadyEnrolled {
		code := "ENROLLMENT_ALREADY_EXISTS"
		return nil, errs.NewConflictError("Student is already enrolled in this session", true, &code)
	}

	enrollment, err := s.sessions.CreateEnrollment(ctx, repository.CreateEnrollmentParams{
		SessionID: params.SessionID,
		StudentID: params.StudentID,
		Status:    params.Status,
		Attended:  params.Attended,
	})
	if err != nil {
		return nil, err
	}

	if enrollment.Student != nil {
		title := "Tutoring session"
		if enrollment.Session != nil && enrollment.Session.Title != nil {
			title = *enrollment.Session.Title
		}
		if err := s.server.Job.EnqueueEnrollmentConfirmedEmail(enrollment.Student.Email, enrollment.Student.Name, title); err != nil {
			s.server.Logger.Error().Err(err).Str("email", enrollment.Student.Email).Msg("Failed to enqueue enrollment email")
		}
	}

	return enrollment, nil
}

// UpdateEnrollment updates the status (and optionally the attendance flag)
// of the enrollment identified by the session/student pair.
func (s *SessionsService) UpdateEnrollment(ctx context.Context, sessionID, studentID int64, params repository.UpdateEnrollmentParams) (*model.SessionStudent, error) {
	enrollment, err := s.sessions.UpdateEnrollment(ctx, sessionID, studentID, params)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			code := "ENROLLMENT_NOT_FOUND"
			return nil, errs.NewNotFoundError("Enrollment not found", true, &code)
		}
		return nil, err
	}
	return enrollment, nil
}

// StudentStats assembles the student dashboard numbers.
func (s *SessionsService) StudentStats(ctx context.Context, studentID int64) (*model.StudentStats, error) {
	now := time.Now()
	monthStart, monthEnd := monthRange(now)

	data, err := s.sessions.StudentStatsData(ctx, studentID, now, monthStart, monthEnd)
	if err != nil {
		return nil, err
	}

	return &model.StudentStats{
		ConfirmedSessions:      data.ConfirmedCount,
		PendingSessions:        data.PendingCount,
		MonthSessions:          data.MonthCount,
		NextSession:            data.Next,
		TotalHoursAttended:     sumHours(data.AttendedDurations),
		AverageHoursRegistered: averageHours(data.RegisteredDurations),
	}, nil
}

// StudentStatsHistory summarizes a student's past sessions.
func (s *SessionsService) StudentStatsHistory(ctx context.Context, studentID int64) (*model.StudentStatsHistory, error) {
	past, err := s.sessions.StudentPastEnrollments(ctx, studentID, time.Now())
	if err != nil {
		return nil, err
	}
	return buildStudentHistory(past), nil
}

// TutorStats assembles the tutor dashboard numbers.
func (s *SessionsService) TutorStats(ctx context.Context, tutorID int64) (*model.TutorStats, error) {
	now := time.Now()

	data, err := s.sessions.TutorStatsData(ctx, tutorID, now)
	if err != nil {
		return nil, err
	}

	stats := buildTutorStats(data.Sessions, now)
	stats.NextSession = data.Next
	return stats, nil
}

func sessionNotFound() *errs.HTTPError {
	code := "SESSION_NOT_FOUND"
	return errs.NewNotFoundError("Session not found", true, &code)
}

// projectAttendance replaces each session's student list with the given
// student's own enrollment, exposed as the attendance field.
func projectAttendance(sessions []model.Session, studentID int64) {
	for i := range sessions {
		session := &sessions[i]

		var attendance *model.SessionStudent
		for j := range session.Students {
			if session.Students[j].StudentID == studentID {
				enrollment := session.Students[j]
				attendance = &enrollment
				break
			}
		}

		session.Attendance = attendance
		if attendance != nil {
			session.Students = []model.SessionStudent{*attendance}
		} else {
			session.Students = []model.SessionStudent{}
		}
	}
}

// round2 rounds to two decimals, the dashboard's display precision.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// sumHours converts minute durations to hours and totals them.
func sumHours(durations []int) float64 {
	total := 0.0
	for _, d := range durations {
		total += float64(d) / 60.0
	}
	return round2(total)
}

// averageHours averages minute durations in hours. Sessions without a
// duration do not count toward the average.
func averageHours(durations []int) float64 {
	total := 0.0
	count := 0
	for _, d := range durations {
		if d == 0 {
			continue
		}
		total += float64(d) / 60.0
		count++
	}
	if count == 0 {
		return 0.0
	}
	return round2(total / float64(count))
}

func buildStudentHistory(past []repository.PastEnrollment) *model.StudentStatsHistory {
	attendedCount := 0
	unattendedCount := 0
	totalHours := 0.0

	for _, enrollment := range past {
		if enrollment.Attended != nil && *enrollment.Attended {
			attendedCount++
			totalHours += float64(enrollment.Duration) / 60.0
		}
		if enrollment.Status == model.EnrollmentStatusAbsent {
			unattendedCount++
		}
	}

	rate := 0.0
	if len(past) > 0 {
		rate = round2(float64(attendedCount) / float64(len(past)) * 100)
	}

	return &model.StudentStatsHistory{
		AttendedSessions:   attendedCount,
		TotalHoursAttended: round2(totalHours),
		AttendanceRate:     rate,
		UnattendedSessions: unattendedCount,
	}
}

func buildTutorStats(sessions []repository.TutorSessionStats, now time.Time) *model.TutorStats {
	uniqueStudents := make(map[int64]struct{})
	dayStart, dayEnd := dayRange(now)

	today := 0
	completed := 0
	totalDuration := 0
	occupancySum := 0.0

	for _, session := range sessions {
		for _, studentID := range session.StudentIDs {
			uniqueStudents[studentID] = struct{}{}
		}

		if session.StartDate != nil && !session.StartDate.Before(dayStart) && !session.StartDate.After(dayEnd) {
			today++
		}
		if session.Status == model.SessionStatusConfirmed || (session.StartDate != nil && session.StartDate.Before(now)) {
			completed++
		}

		totalDuration += session.Duration

		seats := session.Seats
		if seats == 0 {
			seats = 1
		}
		occupancySum += float64(len(session.StudentIDs)) / float64(seats) * 100
	}

	total := len(sessions)

	completedPct := 0.0
	avgDuration := 0.0
	avgOccupancy := 0.0
	if total > 0 {
		completedPct = round2(float64(completed) / float64(total) * 100)
		avgDuration = round2(float64(totalDuration) / float64(total))
		avgOccupancy = round2(occupancySum / float64(total))
	}

	return &model.TutorStats{
		TotalStudents:               len(uniqueStudents),
		TodaySessions:               today,
		CompletedSessionsPercentage: completedPct,
		AverageDurationPerSession:   avgDuration,
		TotalTutoringSessions:       total,
		AverageOccupancyByCourse:    avgOccupancy,
	}
}

// dayRange returns the inclusive bounds of the calendar day containing t.
func dayRange(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// monthRange returns the inclusive bounds of the calendar month containing t.
func monthRange(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 1, 0).Add(-time.Nanosecond)
}
