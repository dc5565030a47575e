package model

import "time"

// EnrollmentStatus tracks a student's standing within a session, from the
// initial request through attendance bookkeeping.
type EnrollmentStatus string

const (
	EnrollmentStatusRequested  EnrollmentStatus = "requested"
	EnrollmentStatusRegistered EnrollmentStatus = "registered"
	EnrollmentStatusAbsent     EnrollmentStatus = "absent"
	EnrollmentStatusAttended   EnrollmentStatus = "attended"
	EnrollmentStatusRejected   EnrollmentStatus = "rejected"
)

// SessionStudent links a student to a session. Attended stays nil until
// the tutor records whether the student showed up.
type SessionStudent struct {
	ID        int64            `db:"id" json:"id"`
	SessionID int64            `db:"session_id" json:"session_id"`
	StudentID int64            `db:"student_id" json:"student_id"`
	Status    EnrollmentStatus `db:"status" json:"status"`
	Attended  *bool            `db:"attended" json:"attended"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	Session *Session `db:"-" json:"session,omitempty"`
	Student *User    `db:"-" json:"student,omitempty"`
}
