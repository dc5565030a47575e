package model

import "time"

// Course is a subject students can be tutored in. Code is an optional
// institutional identifier like "MATH-101".
type Course struct {
	ID          int64   `db:"id" json:"id"`
	Code        *string `db:"code" json:"code"`
	Name        string  `db:"name" json:"name"`
	Description string  `db:"description" json:"description"`
	Semester    int     `db:"semester" json:"semester"`
	Status      bool    `db:"status" json:"status"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CourseList is the envelope for course collection responses.
type CourseList struct {
	TotalRecords int      `json:"totalRecords"`
	Courses      []Course `json:"courses"`
}
