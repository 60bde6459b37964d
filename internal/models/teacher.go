package models

import "time"

// Teacher represents an instructor record.
type Teacher struct {
	Person
	Qualification  string     `db:"qualification" json:"qualification,omitempty"`
	Specialisation string     `db:"specialisation" json:"specialisation,omitempty"`
	Salary         float64    `db:"salary" json:"salary"`
	HireDate       *time.Time `db:"hire_date" json:"hire_date,omitempty"`
}

// TeacherFilter captures filtering options for listing teachers.
type TeacherFilter struct {
	Search    string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
