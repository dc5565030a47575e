package model

import "time"

// StudentStats feeds the student dashboard. Hours are derived from session
// durations (stored in minutes) and rounded to two decimals.
type StudentStats struct {
	ConfirmedSessions      int                 `json:"confirmed_sessions"`
	PendingSessions        int                 `json:"pending_sessions"`
	MonthSessions          int                 `json:"month_sessions"`
	NextSession            *NextStudentSession `json:"next_session"`
	TotalHoursAttended     float64             `json:"total_hours_attended"`
	AverageHoursRegistered float64             `json:"average_hours_registered"`
}

// NextStudentSession is the dashboard teaser for a student's next upcoming
// session.
type NextStudentSession struct {
	CourseName *string    `json:"course_name"`
	StartDate  *time.Time `json:"start_date"`
}

// StudentStatsHistory summarizes a student's past sessions.
// AttendanceRate is a percentage over all past enrollments.
type StudentStatsHistory struct {
	AttendedSessions   int     `json:"attended_sessions"`
	TotalHoursAttended float64 `json:"total_hours_attended"`
	AttendanceRate     float64 `json:"attendance_rate"`
	UnattendedSessions int     `json:"unattended_sessions"`
}

// TutorStats feeds the tutor dashboard. Occupancy compares enrolled
// students against seats, averaged across the tutor's sessions.
type TutorStats struct {
	TotalStudents               int               `json:"total_students"`
	TodaySessions               int               `json:"today_sessions"`
	CompletedSessionsPercentage float64           `json:"completed_sessions_percentage"`
	AverageDurationPerSession   float64           `json:"average_duration_per_session"`
	TotalTutoringSessions       int               `json:"total_tutoring_sessions"`
	AverageOccupancyByCourse    float64           `json:"average_occupancy_by_course"`
	NextSession                 *NextTutorSession `json:"next_session"`
}

// NextTutorSession is the dashboard teaser for a tutor's next upcoming
// session.
type NextTutorSession struct {
	Title     *string    `json:"title"`
	StartDate *time.Time `json:"start_date"`
}
