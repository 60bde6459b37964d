package models

import "time"

// Person carries the identity, contact and audit fields shared by the
// administrator, teacher and student partitions. Email and personal
// number are unique across the union of all three.
type Person struct {
	ID             int64     `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Surname        string    `db:"surname" json:"surname"`
	Gender         string    `db:"gender" json:"gender"`
	BirthDate      time.Time `db:"birth_date" json:"birth_date"`
	Email          string    `db:"email" json:"email"`
	PersonalNumber string    `db:"personal_number" json:"personal_number"`
	Password       string    `db:"password" json:"-"`
	Role           Role      `db:"role" json:"role"`
	Active         bool      `db:"active" json:"active"`

	Address    string `db:"address" json:"address,omitempty"`
	City       string `db:"city" json:"city,omitempty"`
	Country    string `db:"country" json:"country,omitempty"`
	PostalCode string `db:"postal_code" json:"postal_code,omitempty"`
	Phone      string `db:"phone" json:"phone,omitempty"`
	Photo      string `db:"photo" json:"photo,omitempty"`
	Notes      string `db:"notes" json:"notes,omitempty"`

	CreatedBy  string     `db:"created_by" json:"created_by"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	ModifiedBy *string    `db:"modified_by" json:"modified_by,omitempty"`
	ModifiedAt *time.Time `db:"modified_at" json:"modified_at,omitempty"`
}

// FullName joins name and surname for display and notifications.
func (p Person) FullName() string {
	return p.Name + " " + p.Surname
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
