package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tutoriapp/backend/internal/database"
	"github.com/tutoriapp/backend/internal/model"
	"github.com/tutoriapp/backend/internal/server"
)

const (
	sessionColumns    = "id, title, description, start_date, end_date, duration, seats, type, level, status, class_room, tutor_id, course_id, created_at, updated_at"
	enrollmentColumns = "id, session_id, student_id, status, attended, created_at, updated_at"
)

// SessionFilter narrows session listings. Date bounds are inclusive; on the
// student listing both bounds apply to the session start, elsewhere the end
// bound applies to the session end. ExcludeStudentID drops sessions the
// given student is already enrolled in, for the open catalog view.
type SessionFilter struct {
	Search           *string
	Level            *model.SessionLevel
	Status           *model.SessionStatus
	StartDate        *time.Time
	EndDate          *time.Time
	Limit            *int
	ExcludeStudentID *int64
}

// CreateSessionParams is the insert payload for a session.
type CreateSessionParams struct {
	Title       *string
	Description *string
	StartDate   *time.Time
	EndDate     *time.Time
	Duration    int
	Seats       int
	Type        model.SessionType
	Level       *model.SessionLevel
	Status      *model.SessionStatus
	ClassRoom   *string
	TutorID     int64
	CourseID    int64
}

// CreateEnrollmentParams is the insert payload for an enrollment. Nil
// Status falls back to the column default ("registered").
type CreateEnrollmentParams struct {
	SessionID int64
	StudentID int64
	Status    *model.EnrollmentStatus
	Attended  *bool
}

// UpdateEnrollmentParams updates an enrollment's standing. Attended is only
// written when non-nil.
type UpdateEnrollmentParams struct {
	Status   model.EnrollmentStatus
	Attended *bool
}

// StudentStatsData is the raw material for the student dashboard, gathered
// in one unit of work. The service derives the presented numbers.
type StudentStatsData struct {
	ConfirmedCount      int
	PendingCount        int
	MonthCount          int
	Next                *model.NextStudentSession
	AttendedDurations   []int
	RegisteredDurations []int
}

// PastEnrollment is the projection used for a student's attendance history.
type PastEnrollment struct {
	Status   model.EnrollmentStatus `db:"status"`
	Attended *bool                  `db:"attended"`
	Duration int                    `db:"duration"`
}

// TutorSessionStats is the per-session projection used for the tutor
// dashboard: enough to derive occupancy, durations and completion.
type TutorSessionStats struct {
	ID         int64               `db:"id"`
	Duration   int                 `db:"duration"`
	Seats      int                 `db:"seats"`
	Status     model.SessionStatus `db:"status"`
	StartDate  *time.Time          `db:"start_date"`
	StudentIDs []int64             `db:"student_ids"`
}

// TutorStatsData is the raw material for the tutor dashboard.
type TutorStatsData struct {
	Sessions []TutorSessionStats
	Next     *model.NextTutorSession
}

// SessionsRepository reads and writes sessions and their enrollments.
type SessionsRepository struct {
	runner *database.Runner
}

// NewSessionsRepository constructs a SessionsRepository on the server's
// runner.
func NewSessionsRepository(s *server.Server) *SessionsRepository {
	return &SessionsRepository{runner: s.Runner}
}

// FindOne fetches a session by id with its course, tutor and students.
func (r *SessionsRepository) FindOne(ctx context.Context, id int64) (*model.Session, error) {
	query := fmt.Sprintf("select %s from sessions where id = $1", sessionColumns)

	return database.Call(ctx, r.runner, func(ctx context.Context, q database.Querier) (*model.Session, error) {
		rows, err := q.Query(ctx, query, id)
		if err != nil {
			return nil, err
		}
		session, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Session])
		if err != nil {
			return nil, err
		}

		sessions := []model.Session{session}
		if err := attachSessionRelations(ctx, q, sessions); err != nil {
			return nil, err
		}
		return &sessions[0], nil
	})
}

// Exists reports whether a session with the given id exists.
func (r *SessionsRepository) Exists(ctx context.Context, id int64) (bool, error) {
	return database.Call(ctx, r.runner, func(ctx context.Context, q database.Querier) (bool, error) {
		var exists bool
		err := q.QueryRow(ctx, "select exists (select 1 from sessions where id = $1)", id).Scan(&exists)
		return exists, err
	})
}

// FindMany lists sessions matching the filter, with relations attached,
// ordered by start date.
func (r *SessionsRepository) FindMany(ctx context.Context, filter SessionFilter) ([]model.Session, error) {
	query, args := buildSessionListQuery(sessionScope{}, filter)
	return r.collectSessions(ctx, query, args)
}

// FindManyByTutor lists a tutor's sessions matching the filter.
func (r *SessionsRepository) FindManyByTutor(ctx context.Context, tutorID int64, filter SessionFilter) ([]model.Session, error) {
	query, args := buildSessionListQuery(sessionScope{tutorID: &tutorID}, filter)
	return r.collectSessions(ctx, query, args)
}

// FindManyByStudent lists the sessions a student is enrolled in.
func (r *SessionsRepository) FindManyByStudent(ctx context.Context, studentID int64, filter SessionFilter) ([]model.Session, error) {
	query, args := buildSessionListQuery(sessionScope{studentID: &studentID}, filter)
	return r.collectSessions(ctx, query, args)
}

// Create inserts a session and returns the stored row with relations.
func (r *SessionsRepository) Create(ctx context.Context, params CreateSessionParams) (*model.Session, error) {
	query := fmt.Sprintf(`
		insert into sessions (title, description, start_date, end_date, duration, seats, type, level, status, class_room, tutor_id, course_id)
		values ($1, $2, $3, $4, $5, $6, $7, $8, coalesce($9, 'pending'), $10, $11, $12)
		returning %s`, sessionColumns)

	return database.Call(ctx, r.runner, func(ctx context.Context, q database.Querier) (*model.Session, error) {
		rows, err := q.Query(ctx, query,
			params.Title, params.Description, params.StartDate, params.EndDate,
			params.Duration, params.Seats, params.Type, params.Level,
			params.Status, params.ClassRoom, params.TutorID, params.CourseID,
		)
		if err != nil {
			return nil, err
		}
		session, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Session])
		if err != nil {
			return nil, err
		}

		sessions := []model.Session{session}
		if err := attachSessionRelations(ctx, q, sessions); err != nil {
			return nil, err
		}
		return &sessions[0], nil
	})
}

// UpdateStatus moves a session to a new scheduling status. Returns
// pgx.ErrNoRows when the session does not exist.
func (r *SessionsRepository) UpdateStatus(ctx context.Context, id int64, status model.SessionStatus) (*model.Session, error) {
	query := fmt.Sprintf("update sessions set status = $1, updated_at = now() where id = $2 returning %s", sessionColumns)

	return database.Call(ctx, r.runner, func(ctx context.Context, q database.Querier) (*model.Session, error) {
		rows, err := q.Query(ctx, query, status, id)
		if err != nil {
			return nil, err
		}
		session, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Session])
		if err != nil {
			return nil, err
		}

		sessions := []model.Session{session}
		if err := attachSessionRelations(ctx, q, sessions); err != nil {
			return nil, err
		}
		return &sessions[0], nil
	})
}

// EnrollmentExists reports whether the student already has an enrollment in
// the session.
func (r *SessionsRepository) EnrollmentExists(ctx context.Context, sessionID, studentID int64) (bool, error) {
	return database.Call(ctx, r.runner, func(ctx context.Context, q database.Querier) (bool, error) {
		var exists bool
		err := q.QueryRow(ctx,
			"select exists (select 1 from session_students where session_id = $1 and student_id = $2)",
			sessionID, studentID,
		).Scan(&exists)
		return exists, err
	})
}

// CreateEnrollment inserts an enrollment and returns it with its session
// and student attached.
func (r *SessionsRepository) CreateEnrollment(ctx context.Context, params CreateEnrollmentParams) (*model.SessionStudent, error) {
	query := fmt.Sprintf(`
		insert into session_students (session_id, student_id, status, attended)
		values ($1, $2, coalesce($3, 'registered'), $4)
		returning %s`, enrollmentColumns)

	return database.Call(ctx, r.runner, func(ctx context.Context, q database.Querier) (*model.SessionStudent, error) {
		rows, err := q.Query(ctx, query, params.SessionID, params.StudentID, params.Status, params.Attended)
		if err != nil {
			return nil, err
		}
		enrollment, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.SessionStudent])
		if err != nil {
			return nil, err
		}

		if err := attachEnrollmentRelations(ctx, q, &enrollment); err != nil {
			return nil, err
		}
		return &enrollment, nil
	})
}

// UpdateEnrollment updates the enrollment identified by the session/student
// pair. Attended keeps its stored value when params.Attended is nil.
// Returns pgx.ErrNoRows when no such enrollment exists.
func (r *SessionsRepository) UpdateEnrollment(ctx context.Context, sessionID, studentID int64, params UpdateEnrollmentParams) (*model.SessionStudent, error) {
	query := fmt.Sprintf(`
		update session_students
		set status = $1, attended = coalesce($2, attended), updated_at = now()
		where session_id = $3 and student_id = $4
		returning %s`, enrollmentColumns)

	return database.Call(ctx, r.runner, func(ctx context.Context, q database.Querier) (*model.SessionStudent, error) {
		rows, err := q.Query(ctx, query, params.Status, params.Attended, sessionID, studentID)
		if err != nil {
			return nil, err
		}
		enrollment, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.SessionStudent])
		if err != nil {
			return nil, err
		}

		if err := attachEnrollmentRelations(ctx, q, &enrollment); err != nil {
			return nil, err
		}
		return &enrollment, nil
	})
}

// StudentStatsData gathers the student dashboard inputs in a single unit
// of work: upcoming counts, the current month's enrollment count, the next
// session teaser and the attended/registered duration lists.
func (r *SessionsRepository) StudentStatsData(ctx context.Context, studentID int64, now, monthStart, monthEnd time.Time) (*StudentStatsData, error) {
	return database.Call(ctx, r.runner, func(ctx context.Context, q database.Querier) (*StudentStatsData, error) {
		data := &StudentStatsData{}

		upcoming := `
			select count(*) from session_students ss
			join sessions s on s.id = ss.session_id
			where ss.student_id = $1 and ss.status = 'registered' and s.start_date >= $2 and s.status = $3`

		if err := q.QueryRow(ctx, upcoming, studentID, now, model.SessionStatusConfirmed).Scan(&data.ConfirmedCount); err != nil {
			return nil, err
		}
		if err := q.QueryRow(ctx, upcoming, studentID, now, model.SessionStatusPending).Scan(&data.PendingCount); err != nil {
			return nil, err
		}

		month := "select count(*) from session_students where student_id = $1 and created_at >= $2 and created_at <= $3"
		if err := q.QueryRow(ctx, month, studentID, monthStart, monthEnd).Scan(&data.MonthCount); err != nil {
			return nil, err
		}

		next := `
			select c.name, s.start_date from session_students ss
			join sessions s on s.id = ss.session_id
			left join courses c on c.id = s.course_id
			where ss.student_id = $1 and s.start_date > $2
			order by s.start_date asc
			limit 1`

		var teaser model.NextStudentSession
		err := q.QueryRow(ctx, next, studentID, now).Scan(&teaser.CourseName, &teaser.StartDate)
		switch {
		case err == nil:
			data.Next = &teaser
		case errors.Is(err, pgx.ErrNoRows):
			// No upcoming session; teaser stays nil.
		default:
			return nil, err
		}

		attended, err := collectDurations(ctx, q, `
			select s.duration from session_students ss
			join sessions s on s.id = ss.session_id
			where ss.student_id = $1 and ss.attended = true`, studentID)
		if err != nil {
			return nil, err
		}
		data.AttendedDurations = attended

		registered, err := collectDurations(ctx, q, `
			select s.duration from session_students ss
			join sessions s on s.id = ss.session_id
			where ss.student_id = $1 and ss.status = 'registered'`, studentID)
		if err != nil {
			return nil, err
		}
		data.RegisteredDurations = registered

		return data, nil
	})
}

// StudentPastEnrollments lists the status, attendance flag and duration of
// every past session the student was enrolled in.
func (r *SessionsRepository) StudentPastEnrollments(ctx context.Context, studentID int64, now time.Time) ([]PastEnrollment, error) {
	query := `
		select ss.status, ss.attended, s.duration from session_students ss
		join sessions s on s.id = ss.session_id
		where ss.student_id = $1 and s.start_date < $2`

	return database.Call(ctx, r.runner, func(ctx context.Context, q database.Querier) ([]PastEnrollment, error) {
		rows, err := q.Query(ctx, query, studentID, now)
		if err != nil {
			return nil, err
		}
		return pgx.CollectRows(rows, pgx.RowToStructByName[PastEnrollment])
	})
}

// TutorStatsData gathers the tutor dashboard inputs: every session of the
// tutor with its enrolled student ids, plus the next session teaser.
func (r *SessionsRepository) TutorStatsData(ctx context.Context, tutorID int64, now time.Time) (*TutorStatsData, error) {
	return database.Call(ctx, r.runner, func(ctx context.Context, q database.Querier) (*TutorStatsData, error) {
		data := &TutorStatsData{}

		perSession := `
			select s.id, s.duration, s.seats, s.status, s.start_date,
			       coalesce(array_agg(ss.student_id) filter (where ss.student_id is not null), '{}') as student_ids
			from sessions s
			left join session_students ss on ss.session_id = s.id
			where s.tutor_id = $1
			group by s.id
			order by s.id`

		rows, err := q.Query(ctx, perSession, tutorID)
		if err != nil {
			return nil, err
		}
		sessions, err := pgx.CollectRows(rows, pgx.RowToStructByName[TutorSessionStats])
		if err != nil {
			return nil, err
		}
		data.Sessions = sessions

		next := "select title, start_date from sessions where tutor_id = $1 and start_date > $2 order by start_date asc limit 1"

		var teaser model.NextTutorSession
		err = q.QueryRow(ctx, next, tutorID, now).Scan(&teaser.Title, &teaser.StartDate)
		switch {
		case err == nil:
			data.Next = &teaser
		case errors.Is(err, pgx.ErrNoRows):
			// No upcoming session; teaser stays nil.
		default:
			return nil, err
		}

		return data, nil
	})
}

func (r *SessionsRepository) collectSessions(ctx context.Context, query string, args []any) ([]model.Session, error) {
	return database.Call(ctx, r.runner, func(ctx context.Context, q database.Querier) ([]model.Session, error) {
		rows, err := q.Query(ctx, query, args...)
		if err != nil {
			return nil, err
		}
		sessions, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Session])
		if err != nil {
			return nil, err
		}

		if err := attachSessionRelations(ctx, q, sessions); err != nil {
			return nil, err
		}
		return sessions, nil
	})
}

// sessionScope pins a session listing to a tutor or to a student's
// enrollments. The zero value scopes to nothing (the open catalog).
type sessionScope struct {
	tutorID   *int64
	studentID *int64
}

func buildSessionListQuery(scope sessionScope, filter SessionFilter) (string, []any) {
	var (
		where []string
		args  []any
	)

	if scope.tutorID != nil {
		args = append(args, *scope.tutorID)
		where = append(where, fmt.Sprintf("s.tutor_id = $%d", len(args)))
	}
	if scope.studentID != nil {
		args = append(args, *scope.studentID)
		where = append(where, fmt.Sprintf(
			"exists (select 1 from session_students ss where ss.session_id = s.id and ss.student_id = $%d)", len(args)))
	}

	if filter.Level != nil {
		args = append(args, *filter.Level)
		where = append(where, fmt.Sprintf("s.level = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		where = append(where, fmt.Sprintf("s.status = $%d", len(args)))
	}
	if filter.Search != nil && *filter.Search != "" {
		args = append(args, "%"+*filter.Search+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(s.title ilike $%d or exists (select 1 from courses c where c.id = s.course_id and c.name ilike $%d))", n, n))
	}

	// The student view filters both bounds on the session start, the other
	// views bound the session end by the end date.
	if filter.StartDate != nil {
		args = append(args, *filter.StartDate)
		where = append(where, fmt.Sprintf("s.start_date >= $%d", len(args)))
	}
	if filter.EndDate != nil {
		args = append(args, *filter.EndDate)
		column := "s.end_date"
		if scope.studentID != nil {
			column = "s.start_date"
		}
		where = append(where, fmt.Sprintf("%s <= $%d", column, len(args)))
	}

	if filter.ExcludeStudentID != nil {
		args = append(args, *filter.ExcludeStudentID)
		where = append(where, fmt.Sprintf(
			"not exists (select 1 from session_students ss where ss.session_id = s.id and ss.student_id = $%d)", len(args)))
	}

	query := fmt.Sprintf("select %s from sessions s", prefixColumns("s", sessionColumns))
	if len(where) > 0 {
		query += " where " + strings.Join(where, " and ")
	}
	query += " order by s.start_date asc"

	if filter.Limit != nil {
		args = append(args, *filter.Limit)
		query += fmt.Sprintf(" limit $%d", len(args))
	}

	return query, args
}

// attachSessionRelations loads the courses, tutors and enrollments for a
// batch of sessions with three id-set queries, then stitches them in.
func attachSessionRelations(ctx context.Context, q database.Querier, sessions []model.Session) error {
	if len(sessions) == 0 {
		return nil
	}

	sessionIDs := make([]int64, 0, len(sessions))
	courseIDs := make([]int64, 0, len(sessions))
	tutorIDs := make([]int64, 0, len(sessions))
	seenCourses := make(map[int64]struct{})
	seenTutors := make(map[int64]struct{})

	for _, s := range sessions {
		sessionIDs = append(sessionIDs, s.ID)
		if _, ok := seenCourses[s.CourseID]; !ok {
			seenCourses[s.CourseID] = struct{}{}
			courseIDs = append(courseIDs, s.CourseID)
		}
		if _, ok := seenTutors[s.TutorID]; !ok {
			seenTutors[s.TutorID] = struct{}{}
			tutorIDs = append(tutorIDs, s.TutorID)
		}
	}

	rows, err := q.Query(ctx, fmt.Sprintf("select %s from courses where id = any($1)", courseColumns), courseIDs)
	if err != nil {
		return err
	}
	courses, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Course])
	if err != nil {
		return err
	}
	courseByID := make(map[int64]model.Course, len(courses))
	for _, c := range courses {
		courseByID[c.ID] = c
	}

	rows, err = q.Query(ctx, fmt.Sprintf("select %s from users where id = any($1)", userColumns), tutorIDs)
	if err != nil {
		return err
	}
	tutors, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.User])
	if err != nil {
		return err
	}
	tutorByID := make(map[int64]model.User, len(tutors))
	for _, t := range tutors {
		tutorByID[t.ID] = t
	}

	rows, err = q.Query(ctx,
		fmt.Sprintf("select %s from session_students where session_id = any($1) order by id", enrollmentColumns), sessionIDs)
	if err != nil {
		return err
	}
	enrollments, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.SessionStudent])
	if err != nil {
		return err
	}
	studentsBySession := make(map[int64][]model.SessionStudent)
	for _, e := range enrollments {
		studentsBySession[e.SessionID] = append(studentsBySession[e.SessionID], e)
	}

	for i := range sessions {
		s := &sessions[i]
		if course, ok := courseByID[s.CourseID]; ok {
			c := course
			s.Course = &c
		}
		if tutor, ok := tutorByID[s.TutorID]; ok {
			t := tutor
			s.Tutor = &t
		}
		students := studentsBySession[s.ID]
		if students == nil {
			students = []model.SessionStudent{}
		}
		s.Students = students
	}

	return nil
}

// attachEnrollmentRelations loads the flat session and student rows for a
// single enrollment.
func attachEnrollmentRelations(ctx context.Context, q database.Querier, enrollment *model.SessionStudent) error {
	rows, err := q.Query(ctx, fmt.Sprintf("select %s from sessions where id = $1", sessionColumns), enrollment.SessionID)
	if err != nil {
		return err
	}
	session, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Session])
	if err != nil {
		return err
	}
	session.Students = []model.SessionStudent{}
	enrollment.Session = &session

	rows, err = q.Query(ctx, fmt.Sprintf("select %s from users where id = $1", userColumns), enrollment.StudentID)
	if err != nil {
		return err
	}
	student, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.User])
	if err != nil {
		return err
	}
	enrollment.Student = &student

	return nil
}

func collectDurations(ctx context.Context, q database.Querier, query string, studentID int64) ([]int, error) {
	rows, err := q.Query(ctx, query, studentID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int])
}
