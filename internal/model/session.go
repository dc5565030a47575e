package model

import "time"

// SessionType says where a session takes place.
type SessionType string

const (
	SessionTypeOnline   SessionType = "online"
	SessionTypeInPerson SessionType = "in_person"
)

// SessionLevel grades the difficulty of the material covered.
type SessionLevel string

const (
	SessionLevelBasic    SessionLevel = "basic"
	SessionLevelMedium   SessionLevel = "medium"
	SessionLevelAdvanced SessionLevel = "advanced"
)

// SessionStatus tracks the scheduling state of a session.
type SessionStatus string

const (
	SessionStatusPending   SessionStatus = "pending"
	SessionStatusConfirmed SessionStatus = "confirmed"
	SessionStatusCancelled SessionStatus = "cancelled"
)

// Session is a tutoring appointment for a course, led by a tutor.
// Duration is in minutes.
//
// The relation fields (Course, Tutor, Students) are filled by the
// repository, not scanned from the sessions table. Enrolled and Attendance
// are projections computed for specific listings:
//   - Enrolled: number of enrolled students, set on the open catalog listing
//   - Attendance: the requesting student's own enrollment, set on the
//     student listing
type Session struct {
	ID          int64         `db:"id" json:"id"`
	Title       *string       `db:"title" json:"title"`
	Description *string       `db:"description" json:"description"`
	StartDate   *time.Time    `db:"start_date" json:"start_date"`
	EndDate     *time.Time    `db:"end_date" json:"end_date"`
	Duration    int           `db:"duration" json:"duration"`
	Seats       int           `db:"seats" json:"seats"`
	Type        SessionType   `db:"type" json:"type"`
	Level       *SessionLevel `db:"level" json:"level"`
	Status      SessionStatus `db:"status" json:"status"`
	ClassRoom   *string       `db:"class_room" json:"class_room"`
	TutorID     int64         `db:"tutor_id" json:"tutor_id"`
	CourseID    int64         `db:"course_id" json:"course_id"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	Course     *Course          `db:"-" json:"course"`
	Tutor      *User            `db:"-" json:"tutor"`
	Students   []SessionStudent `db:"-" json:"students"`
	Enrolled   *int             `db:"-" json:"enrolled,omitempty"`
	Attendance *SessionStudent  `db:"-" json:"attendance,omitempty"`
}

// SessionList is the envelope for session collection responses.
type SessionList struct {
	TotalRecords int       `json:"totalRecords"`
	Sessions     []Session `json:"sessions"`
}
