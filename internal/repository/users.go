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

// userColumns is the scan list for model.User. Keep it in sync with the
// users table and the struct's db tags.
const userColumns = "id, email, password, name, second_name, second_surname, phone_number, role, status, created_at, updated_at"

// UserFilter narrows user listings. Nil fields are ignored; Search matches
// email or name case-insensitively.
type UserFilter struct {
	Role   *model.Role
	Status *bool
	Search *string
}

// StudentFilter narrows a session's student roster. Status filters on the
// enrollment status, not the user account status.
type StudentFilter struct {
	Status *model.EnrollmentStatus
	Search *string
}

// CreateUserParams is the insert payload for a user. Password must already
// be hashed. Nil optionals fall back to column defaults (role "user",
// status true).
type CreateUserParams struct {
	Email         string
	Password      string
	Name          string
	SecondName    *string
	SecondSurname *string
	PhoneNumber   *string
	Role          *model.Role
	Status        *bool
}

// UpdateUserParams is the partial-update payload for a user. Only non-nil
// fields are written.
type UpdateUserParams struct {
	Email         *string
	Password      *string
	Name          *string
	SecondName    *string
	SecondSurname *string
	PhoneNumber   *string
	Role          *model.Role
	Status        *bool
}

// UsersRepository reads and writes the users table.
type UsersRepository struct {
	runner *database.Runner
}

// NewUsersRepository constructs a UsersRepository on the server's runner.
func NewUsersRepository(s *server.Server) *UsersRepository {
	return &UsersRepository{runner: s.Runner}
}

// FindOne fetches a user by id.
func (r *UsersRepository) FindOne(ctx context.Context, id int64) (*model.User, error) {
	query := fmt.Sprintf("select %s from users where id = $1", userColumns)

	return database.Call(ctx, r.runner, func(ctx context.Context, q database.Querier) (*model.User, error) {
		rows, err := q.Query(ctx, query, id)
		if err != nil {
			return nil, err
		}
		user, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.User])
		if err != nil {
			return nil, err
		}
		return &user, nil
	})
}

// FindByEmail fetches a user by email, used by the login flow.
func (r *UsersRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	query := fmt.Sprintf("select %s from users where email = $1", userColumns)

	return database.Call(ctx, r.runner, func(ctx context.Context, q database.Querier) (*model.User, error) {
		rows, err := q.Query(ctx, query, email)
		if err != nil {
			return nil, err
		}
		user, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.User])
		if err != nil {
			return nil, err
		}
		return &user, nil
	})
}

// Exists reports whether a user with the given id exists.
func (r *UsersRepository) Exists(ctx context.Context, id int64) (bool, error) {
	return database.Call(ctx, r.runner, func(ctx context.Context, q database.Querier) (bool, error) {
		var exists bool
		err := q.QueryRow(ctx, "select exists (select 1 from users where id = $1)", id).Scan(&exists)
		return exists, err
	})
}

// FindMany lists users matching the filter, ordered by name.
func (r *UsersRepository) FindMany(ctx context.Context, filter UserFilter) ([]model.User, error) {
	query, args := buildUserListQuery(filter)

	return database.Call(ctx, r.runner, func(ctx context.Context, q database.Querier) ([]model.User, error) {
		rows, err := q.Query(ctx, query, args...)
		if err != nil {
			return nil, err
		}
		return pgx.CollectRows(rows, pgx.RowToStructByName[model.User])
	})
}

// FindManyBySessionID lists the users enrolled in a session, optionally
// narrowed by enrollment status and search text.
func (r *UsersRepository) FindManyBySessionID(ctx context.Context, sessionID int64, filter StudentFilter) ([]model.User, error) {
	query, args := buildStudentListQuery(sessionID, filter)

	return database.Call(ctx, r.runner, func(ctx context.Context, q database.Querier) ([]model.User, error) {
		rows, err := q.Query(ctx, query, args...)
		if err != nil {
			return nil, err
		}
		return pgx.CollectRows(rows, pgx.RowToStructByName[model.User])
	})
}

// Create inserts a user and returns the stored row.
func (r *UsersRepository) Create(ctx context.Context, params CreateUserParams) (*model.User, error) {
	query := fmt.Sprintf(`
		insert into users (email, password, name, second_name, second_surname, phone_number, role, status)
		values ($1, $2, $3, $4, $5, $6, coalesce($7, 'user'), coalesce($8, true))
		returning %s`, userColumns)

	return database.Call(ctx, r.runner, func(ctx context.Context, q database.Querier) (*model.User, error) {
		rows, err := q.Query(ctx, query,
			params.Email, params.Password, params.Name,
			params.SecondName, params.SecondSurname, params.PhoneNumber,
			params.Role, params.Status,
		)
		if err != nil {
			return nil, err
		}
		user, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.User])
		if err != nil {
			return nil, err
		}
		return &user, nil
	})
}

// Update applies the non-nil fields of params to a user and returns the
// updated row. Returns pgx.ErrNoRows when the user does not exist.
func (r *UsersRepository) Update(ctx context.Context, id int64, params UpdateUserParams) (*model.User, error) {
	query, args, ok := buildUserUpdateQuery(id, params)
	if !ok {
		return r.FindOne(ctx, id)
	}

	return database.Call(ctx, r.runner, func(ctx context.Context, q database.Querier) (*model.User, error) {
		rows, err := q.Query(ctx, query, args...)
		if err != nil {
			return nil, err
		}
		user, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.User])
		if err != nil {
			return nil, err
		}
		return &user, nil
	})
}

// UpdateStatus activates or deactivates a user account.
func (r *UsersRepository) UpdateStatus(ctx context.Context, id int64, status bool) (*model.User, error) {
	query := fmt.Sprintf("update users set status = $1, updated_at = now() where id = $2 returning %s", userColumns)

	return database.Call(ctx, r.runner, func(ctx context.Context, q database.Querier) (*model.User, error) {
		rows, err := q.Query(ctx, query, status, id)
		if err != nil {
			return nil, err
		}
		user, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.User])
		if err != nil {
			return nil, err
		}
		return &user, nil
	})
}

func buildUserListQuery(filter UserFilter) (string, []any) {
	var (
		where []string
		args  []any
	)

	if filter.Role != nil {
		args = append(args, *filter.Role)
		where = append(where, fmt.Sprintf("role = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Search != nil && *filter.Search != "" {
		args = append(args, "%"+*filter.Search+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(email ilike $%d or name ilike $%d)", n, n))
	}

	query := fmt.Sprintf("select %s from users", userColumns)
	if len(where) > 0 {
		query += " where " + strings.Join(where, " and ")
	}
	query += " order by name asc"

	return query, args
}

func buildStudentListQuery(sessionID int64, filter StudentFilter) (string, []any) {
	args := []any{sessionID}

	enrollment := "ss.session_id = $1"
	if filter.Status != nil {
		args = append(args, *filter.Status)
		enrollment += fmt.Sprintf(" and ss.status = $%d", len(args))
	}

	query := fmt.Sprintf(`select %s from users u
		where exists (select 1 from session_students ss where %s and ss.student_id = u.id)`,
		prefixColumns("u", userColumns), enrollment)

	if filter.Search != nil && *filter.Search != "" {
		args = append(args, "%"+*filter.Search+"%")
		n := len(args)
		query += fmt.Sprintf(" and (u.email ilike $%d or u.name ilike $%d)", n, n)
	}

	return query, args
}

func buildUserUpdateQuery(id int64, params UpdateUserParams) (string, []any, bool) {
	var (
		set  []string
		args []any
	)

	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if params.Email != nil {
		add("email", *params.Email)
	}
	if params.Password != nil {
		add("password", *params.Password)
	}
	if params.Name != nil {
		add("name", *params.Name)
	}
	if params.SecondName != nil {
		add("second_name", *params.SecondName)
	}
	if params.SecondSurname != nil {
		add("second_surname", *params.SecondSurname)
	}
	if params.PhoneNumber != nil {
		add("phone_number", *params.PhoneNumber)
	}
	if params.Role != nil {
		add("role", *params.Role)
	}
	if params.Status != nil {
		add("status", *params.Status)
	}

	if len(set) == 0 {
		return "", nil, false
	}

	set = append(set, "updated_at = now()")
	args = append(args, id)

	query := fmt.Sprintf("update users set %s where id = $%d returning %s",
		strings.Join(set, ", "), len(args), userColumns)

	return query, args, true
}

// prefixColumns qualifies every column in a comma-separated list with a
// table alias: ("u", "id, email") -> "u.id, u.email".
func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ", ")
	for i, part := range parts {
		parts[i] = alias + "." + part
	}
	return strings.Join(parts, ", ")
}
