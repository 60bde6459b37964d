package models

// Admin represents an administrator record.
type Admin struct {
	Person
	Department  string `db:"department" json:"department"`
	AcceptTerms bool   `db:"accept_terms" json:"accept_terms"`
}

// AdminFilter captures filtering options for listing administrators.
type AdminFilter struct {
	Search     string
	Department string
	Active     *bool
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
