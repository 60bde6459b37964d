package models

import "time"

// Subject represents an academic subject.
type Subject struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description,omitempty"`
	Credits     int       `db:"credits" json:"credits"`
	TotalHours  int       `db:"total_hours" json:"total_hours"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// SubjectDetail extends a subject with the names of the teachers
// assigned to it. The projection is read-only and derived from the
// teacher-subject link table.
type SubjectDetail struct {
	Subject
	TeacherNames []string `db:"-" json:"teacher_names"`
}

// SubjectFilter captures supported filters for listing subjects.
type SubjectFilter struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
