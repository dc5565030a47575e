package repository

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutoriapp/backend/internal/model"
)

func ptr[T any](v T) *T {
	return &v
}

func TestPrefixColumns(t *testing.T) {
	assert.Equal(t, "u.id, u.email, u.name", prefixColumns("u", "id, email, name"))
	assert.Equal(t, "s.id", prefixColumns("s", "id"))
}

func TestBuildUserListQueryEmptyFilter(t *testing.T) {
	query, args := buildUserListQuery(UserFilter{})

	assert.Equal(t, "select "+userColumns+" from users order by name asc", query)
	assert.Empty(t, args)
}

func TestBuildUserListQueryFullFilter(t *testing.T) {
	query, args := buildUserListQuery(UserFilter{
		Role:   ptr(model.RoleAdmin),
		Status: ptr(true),
		Search: ptr("ada"),
	})

	assert.Contains(t, query, "role = $1")
	assert.Contains(t, query, "status = $2")
	assert.Contains(t, query, "(email ilike $3 or name ilike $3)")
	assert.Contains(t, query, "order by name asc")
	assert.Equal(t, []any{model.RoleAdmin, true, "%ada%"}, args)
}

func TestBuildUserListQueryIgnoresEmptySearch(t *testing.T) {
	query, args := buildUserListQuery(UserFilter{Search: ptr("")})

	assert.NotContains(t, query, "ilike")
	assert.Empty(t, args)
}

func TestBuildStudentListQuery(t *testing.T) {
	query, args := buildStudentListQuery(42, StudentFilter{})

	assert.Contains(t, query, "ss.session_id = $1")
	assert.Contains(t, query, "ss.student_id = u.id")
	assert.Equal(t, []any{int64(42)}, args)
}

func TestBuildStudentListQueryWithStatusAndSearch(t *testing.T) {
	query, args := buildStudentListQuery(42, StudentFilter{
		Status: ptr(model.EnrollmentStatusRegistered),
		Search: ptr("lee"),
	})

	assert.Contains(t, query, "ss.status = $2")
	assert.Contains(t, query, "(u.email ilike $3 or u.name ilike $3)")
	assert.Equal(t, []any{int64(42), model.EnrollmentStatusRegistered, "%lee%"}, args)
}

func TestBuildUserUpdateQuery(t *testing.T) {
	query, args, ok := buildUserUpdateQuery(7, UpdateUserParams{
		Name: ptr("Ada"),
		Role: ptr(model.RoleAdmin),
	})

	require.True(t, ok)
	assert.Equal(t,
		"update users set name = $1, role = $2, updated_at = now() where id = $3 returning "+userColumns,
		query)
	assert.Equal(t, []any{"Ada", model.RoleAdmin, int64(7)}, args)
}

func TestBuildUserUpdateQueryEmptyParams(t *testing.T) {
	_, _, ok := buildUserUpdateQuery(7, UpdateUserParams{})
	assert.False(t, ok)
}

func TestBuildCourseListQuery(t *testing.T) {
	query, args := buildCourseListQuery(CourseFilter{
		Search:   ptr("algebra"),
		Semester: ptr(2),
		Status:   ptr(true),
	})

	assert.Contains(t, query, "status = $1")
	assert.Contains(t, query, "semester = $2")
	assert.Contains(t, query, "(name ilike $3 or description ilike $3 or code ilike $3)")
	assert.Contains(t, query, "order by name asc")
	assert.Equal(t, []any{true, 2, "%algebra%"}, args)
}

func TestBuildCourseUpdateQuery(t *testing.T) {
	query, args, ok := buildCourseUpdateQuery(3, UpdateCourseParams{
		Description: ptr("Linear algebra, first semester"),
		Status:      ptr(false),
	})

	require.True(t, ok)
	assert.Equal(t,
		"update courses set description = $1, status = $2, updated_at = now() where id = $3 returning "+courseColumns,
		query)
	assert.Equal(t, []any{"Linear algebra, first semester", false, int64(3)}, args)
}

func TestBuildSessionListQueryEmpty(t *testing.T) {
	query, args := buildSessionListQuery(sessionScope{}, SessionFilter{})

	assert.Equal(t, "select "+prefixColumns("s", sessionColumns)+" from sessions s order by s.start_date asc", query)
	assert.Empty(t, args)
}

func TestBuildSessionListQueryCatalogDatesBoundEndColumn(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 31, 23, 59, 59, 0, time.UTC)

	query, args := buildSessionListQuery(sessionScope{}, SessionFilter{
		StartDate: &start,
		EndDate:   &end,
	})

	assert.Contains(t, query, "s.start_date >= $1")
	assert.Contains(t, query, "s.end_date <= $2")
	assert.Equal(t, []any{start, end}, args)
}

func TestBuildSessionListQueryStudentDatesBoundStartColumn(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 31, 23, 59, 59, 0, time.UTC)

	query, args := buildSessionListQuery(sessionScope{studentID: ptr(int64(9))}, SessionFilter{
		StartDate: &start,
		EndDate:   &end,
	})

	assert.Contains(t, query, "ss.student_id = $1")
	assert.Contains(t, query, "s.start_date >= $2")
	assert.Contains(t, query, "s.start_date <= $3")
	assert.NotContains(t, query, "s.end_date <=")
	assert.Equal(t, []any{int64(9), start, end}, args)
}

func TestBuildSessionListQueryTutorScope(t *testing.T) {
	query, args := buildSessionListQuery(sessionScope{tutorID: ptr(int64(5))}, SessionFilter{
		Status: ptr(model.SessionStatusConfirmed),
	})

	assert.Contains(t, query, "s.tutor_id = $1")
	assert.Contains(t, query, "s.status = $2")
	assert.Equal(t, []any{int64(5), model.SessionStatusConfirmed}, args)
}

func TestBuildSessionListQuerySearchMatchesTitleOrCourse(t *testing.T) {
	query, args := buildSessionListQuery(sessionScope{}, SessionFilter{Search: ptr("calc")})

	assert.Contains(t, query, "s.title ilike $1")
	assert.Contains(t, query, "c.name ilike $1")
	assert.Equal(t, []any{"%calc%"}, args)
}

func TestBuildSessionListQueryExcludeAndLimit(t *testing.T) {
	query, args := buildSessionListQuery(sessionScope{}, SessionFilter{
		Level:            ptr(model.SessionLevelBasic),
		ExcludeStudentID: ptr(int64(12)),
		Limit:            ptr(10),
	})

	assert.Contains(t, query, "s.level = $1")
	assert.Contains(t, query, "not exists (select 1 from session_students ss where ss.session_id = s.id and ss.student_id = $2)")
	assert.True(t, strings.HasSuffix(query, "limit $3"))
	assert.Equal(t, []any{model.SessionLevelBasic, int64(12), 10}, args)
}
