package model

import "time"

// Role determines which API surface a user can reach.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// User is a platform account. Tutors and students are both stored as users;
// what distinguishes them is how sessions reference them.
type User struct {
	ID            int64   `db:"id" json:"id"`
	Email         string  `db:"email" json:"email"`
	Password      string  `db:"password" json:"-"`
	Name          string  `db:"name" json:"name"`
	SecondName    *string `db:"second_name" json:"second_name"`
	SecondSurname *string `db:"second_surname" json:"second_surname"`
	PhoneNumber   *string `db:"phone_number" json:"phone_number"`
	Role          Role    `db:"role" json:"role"`
	Status        bool    `db:"status" json:"status"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// UserList is the envelope for user collection responses.
type UserList struct {
	TotalRecords int    `json:"totalRecords"`
	Users        []User `json:"users"`
}

// StudentList is the envelope for the students-of-a-session response. Same
// rows as UserList, different key, matching what the frontend consumes.
type StudentList struct {
	TotalRecords int    `json:"totalRecords"`
	Students     []User `json:"students"`
}

// LoginResult is returned by the login and register endpoints: a signed
// token plus the authenticated user.
type LoginResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
