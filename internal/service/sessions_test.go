package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutoriapp/backend/internal/model"
	"github.com/tutoriapp/backend/internal/repository"
)

func ptr[T any](v T) *T {
	return &v
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 0.83, round2(50.0/60.0))
	assert.Equal(t, 1.5, round2(1.5))
	assert.Equal(t, 33.33, round2(100.0/3.0))
	assert.Equal(t, 0.0, round2(0))
}

func TestSumHours(t *testing.T) {
	assert.Equal(t, 2.0, sumHours([]int{90, 30}))
	assert.Equal(t, 0.83, sumHours([]int{50}))
	assert.Equal(t, 0.0, sumHours(nil))
}

func TestAverageHours(t *testing.T) {
	assert.Equal(t, 0.75, averageHours([]int{60, 30}))
	assert.Equal(t, 0.0, averageHours(nil))
}

func TestAverageHoursSkipsMissingDurations(t *testing.T) {
	// A zero duration must not drag the average down.
	assert.Equal(t, 0.75, averageHours([]int{60, 0, 30}))
	assert.Equal(t, 0.0, averageHours([]int{0, 0}))
}

func TestBuildStudentHistory(t *testing.T) {
	past := []repository.PastEnrollment{
		{Status: model.EnrollmentStatusRegistered, Attended: ptr(true), Duration: 90},
		{Status: model.EnrollmentStatusAbsent, Attended: ptr(false), Duration: 60},
		{Status: model.EnrollmentStatusAttended, Attended: ptr(true), Duration: 30},
		{Status: model.EnrollmentStatusRegistered, Attended: nil, Duration: 45},
	}

	history := buildStudentHistory(past)

	assert.Equal(t, 2, history.AttendedSessions)
	assert.Equal(t, 2.0, history.TotalHoursAttended)
	assert.Equal(t, 50.0, history.AttendanceRate)
	assert.Equal(t, 1, history.UnattendedSessions)
}

func TestBuildStudentHistoryEmpty(t *testing.T) {
	history := buildStudentHistory(nil)

	assert.Equal(t, 0, history.AttendedSessions)
	assert.Equal(t, 0.0, history.TotalHoursAttended)
	assert.Equal(t, 0.0, history.AttendanceRate)
	assert.Equal(t, 0, history.UnattendedSessions)
}

func TestBuildTutorStats(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

	sessions := []repository.TutorSessionStats{
		{
			ID:         1,
			Duration:   60,
			Seats:      2,
			Status:     model.SessionStatusConfirmed,
			StartDate:  ptr(time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)),
			StudentIDs: []int64{1, 2},
		},
		{
			ID:         2,
			Duration:   90,
			Seats:      4,
			Status:     model.SessionStatusPending,
			StartDate:  ptr(time.Date(2025, 3, 16, 9, 0, 0, 0, time.UTC)),
			StudentIDs: []int64{2},
		},
		{
			ID:         3,
			Duration:   30,
			Seats:      0,
			Status:     model.SessionStatusPending,
			StartDate:  ptr(time.Date(2025, 3, 8, 9, 0, 0, 0, time.UTC)),
			StudentIDs: nil,
		},
		{
			ID:         4,
			Duration:   0,
			Seats:      5,
			Status:     model.SessionStatusConfirmed,
			StartDate:  nil,
			StudentIDs: []int64{3},
		},
	}

	stats := buildTutorStats(sessions, now)

	assert.Equal(t, 3, stats.TotalStudents)
	assert.Equal(t, 1, stats.TodaySessions)
	assert.Equal(t, 75.0, stats.CompletedSessionsPercentage)
	assert.Equal(t, 45.0, stats.AverageDurationPerSession)
	assert.Equal(t, 4, stats.TotalTutoringSessions)
	// (100 + 25 + 0 + 20) / 4 sessions.
	assert.Equal(t, 36.25, stats.AverageOccupancyByCourse)
}

func TestBuildTutorStatsEmpty(t *testing.T) {
	stats := buildTutorStats(nil, time.Now())

	assert.Equal(t, 0, stats.TotalStudents)
	assert.Equal(t, 0, stats.TodaySessions)
	assert.Equal(t, 0.0, stats.CompletedSessionsPercentage)
	assert.Equal(t, 0.0, stats.AverageDurationPerSession)
	assert.Equal(t, 0, stats.TotalTutoringSessions)
	assert.Equal(t, 0.0, stats.AverageOccupancyByCourse)
}

func TestProjectAttendance(t *testing.T) {
	sessions := []model.Session{
		{
			ID: 1,
			Students: []model.SessionStudent{
				{ID: 10, SessionID: 1, StudentID: 2, Status: model.EnrollmentStatusRegistered},
				{ID: 11, SessionID: 1, StudentID: 3, Status: model.EnrollmentStatusRequested},
			},
		},
		{
			ID: 2,
			Students: []model.SessionStudent{
				{ID: 12, SessionID: 2, StudentID: 3, Status: model.EnrollmentStatusRegistered},
			},
		},
	}

	projectAttendance(sessions, 2)

	require.NotNil(t, sessions[0].Attendance)
	assert.Equal(t, int64(10), sessions[0].Attendance.ID)
	require.Len(t, sessions[0].Students, 1)
	assert.Equal(t, int64(2), sessions[0].Students[0].StudentID)

	assert.Nil(t, sessions[1].Attendance)
	assert.Empty(t, sessions[1].Students)
}

func TestDayRange(t *testing.T) {
	start, end := dayRange(time.Date(2025, 3, 15, 14, 30, 0, 0, time.UTC))

	assert.Equal(t, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 3, 15, 23, 59, 59, 999999999, time.UTC), end)
}

func TestMonthRange(t *testing.T) {
	start, end := monthRange(time.Date(2025, 2, 10, 14, 30, 0, 0, time.UTC))

	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 2, 28, 23, 59, 59, 999999999, time.UTC), end)
}
