package models

import "time"

// Student represents a learner registered in the institution.
type Student struct {
	Person
	RegisteredDate  *time.Time `db:"registered_date" json:"registered_date,omitempty"`
	AcademicYear    string     `db:"academic_year" json:"academic_year"`
	CurrentSemester int        `db:"current_semester" json:"current_semester"`
	ClassNumber     int        `db:"class_number" json:"class_number"`
	Graduated       bool       `db:"graduated" json:"graduated"`

	GuardianName          string `db:"guardian_name" json:"guardian_name,omitempty"`
	GuardianPhone         string `db:"guardian_phone" json:"guardian_phone,omitempty"`
	GuardianEmail         string `db:"guardian_email" json:"guardian_email,omitempty"`
	EmergencyContactPhone string `db:"emergency_contact_phone" json:"emergency_contact_phone,omitempty"`
	RelationshipToStudent string `db:"relationship_to_student" json:"relationship_to_student,omitempty"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search      string
	ClassNumber *int
	Active      *bool
	Graduated   *bool
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}
