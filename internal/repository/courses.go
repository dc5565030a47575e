package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/tutoriapp/backend/internal/database"
	"github.com/tutoriapp/backend/internal/model"
	"github.com/tutoriapp/backend/internal/server"
)

const courseColumns = "id, code, name, description, semester, status, created_at, updated_at"

// CourseFilter narrows course listings. Search matches name, description
// or code case-insensitively.
type CourseFilter struct {
	Search   *string
	Semester *int
	Status   *bool
}

// CreateCourseParams is the insert payload for a course.
type CreateCourseParams struct {
	Code        *string
	Name        string
	Description string
	Semester    int
	Status      bool
}

// UpdateCourseParams is the partial-update payload for a course.
type UpdateCourseParams struct {
	Name        *string
	Description *string
	Semester    *int
	Status      *bool
}

// CoursesRepository reads and writes the courses table.
type CoursesRepository struct {
	runner *database.Runner
}

// NewCoursesRepository constructs a CoursesRepository on the server's runner.
func NewCoursesRepository(s *server.Server) *CoursesRepository {
	return &CoursesRepository{runner: s.Runner}
}

// FindOne fetches a course by id.
func (r *CoursesRepository) FindOne(ctx context.Context, id int64) (*model.Course, error) {
	query := fmt.Sprintf("select %s from courses where id = $1", courseColumns)

	return database.Call(ctx, r.runner, func(ctx context.Context, q database.Querier) (*model.Course, error) {
		rows, err := q.Query(ctx, query, id)
		if err != nil {
			return nil, err
		}
		course, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Course])
		if err != nil {
			return nil, err
		}
		return &course, nil
	})
}

// Exists reports whether a course with the given id exists.
func (r *CoursesRepository) Exists(ctx context.Context, id int64) (bool, error) {
	return database.Call(ctx, r.runner, func(ctx context.Context, q database.Querier) (bool, error) {
		var exists bool
		err := q.QueryRow(ctx, "select exists (select 1 from courses where id = $1)", id).Scan(&exists)
		return exists, err
	})
}

// FindMany lists courses matching the filter.
func (r *CoursesRepository) FindMany(ctx context.Context, filter CourseFilter) ([]model.Course, error) {
	query, args := buildCourseListQuery(filter)

	return database.Call(ctx, r.runner, func(ctx context.Context, q database.Querier) ([]model.Course, error) {
		rows, err := q.Query(ctx, query, args...)
		if err != nil {
			return nil, err
		}
		return pgx.CollectRows(rows, pgx.RowToStructByName[model.Course])
	})
}

// Create inserts a course and returns the stored row.
func (r *CoursesRepository) Create(ctx context.Context, params CreateCourseParams) (*model.Course, error) {
	query := fmt.Sprintf(`
		insert into courses (code, name, description, semester, status)
		values ($1, $2, $3, $4, $5)
		returning %s`, courseColumns)

	return database.Call(ctx, r.runner, func(ctx context.Context, q database.Querier) (*model.Course, error) {
		rows, err := q.Query(ctx, query, params.Code, params.Name, params.Description, params.Semester, params.Status)
		if err != nil {
			return nil, err
		}
		course, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Course])
		if err != nil {
			return nil, err
		}
		return &course, nil
	})
}

// Update applies the non-nil fields of params to a course and returns the
// updated row. Returns pgx.ErrNoRows when the course does not exist.
func (r *CoursesRepository) Update(ctx context.Context, id int64, params UpdateCourseParams) (*model.Course, error) {
	query, args, ok := buildCourseUpdateQuery(id, params)
	if !ok {
		return r.FindOne(ctx, id)
	}

	return database.Call(ctx, r.runner, func(ctx context.Context, q database.Querier) (*model.Course, error) {
		rows, err := q.Query(ctx, query, args...)
		if err != nil {
			return nil, err
		}
		course, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Course])
		if err != nil {
			return nil, err
		}
		return &course, nil
	})
}

// UpdateStatus opens or closes a course for enrollment.
func (r *CoursesRepository) UpdateStatus(ctx context.Context, id int64, status bool) (*model.Course, error) {
	return r.Update(ctx, id, UpdateCourseParams{Status: &status})
}

func buildCourseListQuery(filter CourseFilter) (string, []any) {
	var (
		where []string
		args  []any
	)

	if filter.Status != nil {
		args = append(args, *filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Semester != nil {
		args = append(args, *filter.Semester)
		where = append(where, fmt.Sprintf("semester = $%d", len(args)))
	}
	if filter.Search != nil && *filter.Search != "" {
		args = append(args, "%"+*filter.Search+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(name ilike $%d or description ilike $%d or code ilike $%d)", n, n, n))
	}

	query := fmt.Sprintf("select %s from courses", courseColumns)
	if len(where) > 0 {
		query += " where " + strings.Join(where, " and ")
	}
	query += " order by name asc"

	return query, args
}

func buildCourseUpdateQuery(id int64, params UpdateCourseParams) (string, []any, bool) {
	var (
		set  []string
		args []any
	)

	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if params.Name != nil {
		add("name", *params.Name)
	}
	if params.Description != nil {
		add("description", *params.Description)
	}
	if params.Semester != nil {
		add("semester", *params.Semester)
	}
	if params.Status != nil {
		add("status", *params.Status)
	}

	if len(set) == 0 {
		return "", nil, false
	}

	set = append(set, "updated_at = now()")
	args = append(args, id)

	query := fmt.Sprintf("update courses set %s where id = $%d returning %s",
		strings.Join(set, ", "), len(args), courseColumns)

	return query, args, true
}
