package service

import (
	"context"
	"regexp"
	"time"

	"github.com/noah-isme/school-admin-api/internal/models"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

var (
	personalNumberPattern = regexp.MustCompile(`^\d{10}$`)
	academicYearPattern   = regexp.MustCompile(`^[0-9]{4}-[0-9]{4}$`)
)

// uniquenessChecker is satisfied by UniquenessChecker; services depend
// on the interface so tests can stub it.
type uniquenessChecker interface {
	EmailTaken(ctx context.Context, email string) (bool, error)
	PersonalNumberTaken(ctx context.Context, personalNumber string) (bool, error)
}

// registrationNotifier delivers the fire-and-forget registration emails.
type registrationNotifier interface {
	NotifyRegistration(email, fullName, name, role, password string)
}

// PersonPayload carries the fields shared by the three registration
// payloads. Validation beyond struct tags runs in a fixed order and
// stops at the first failure.
type PersonPayload struct {
	Name            string    `json:"name" validate:"required"`
	Surname         string    `json:"surname" validate:"required"`
	Gender          string    `json:"gender" validate:"required"`
	BirthDate       time.Time `json:"birth_date" validate:"required"`
	Email           string    `json:"email" validate:"required,email"`
	PersonalNumber  string    `json:"personal_number" validate:"required"`
	Password        string    `json:"password" validate:"required,min=8"`
	ConfirmPassword string    `json:"confirm_password" validate:"required"`

	Address    string `json:"address"`
	City       string `json:"city"`
	Country    string `json:"country"`
	PostalCode string `json:"postal_code"`
	Phone      string `json:"phone"`
	Photo      string `json:"photo"`
	Notes      string `json:"notes"`
}

// PersonUpdatePayload carries the overwrite fields for modifying an
// existing user. Credentials are not changed through updates, so there
// is no password pair and no uniqueness re-check.
type PersonUpdatePayload struct {
	Name           string    `json:"name" validate:"required"`
	Surname        string    `json:"surname" validate:"required"`
	Gender         string    `json:"gender" validate:"required"`
	BirthDate      time.Time `json:"birth_date" validate:"required"`
	Email          string    `json:"email" validate:"required,email"`
	PersonalNumber string    `json:"personal_number" validate:"required"`
	Active         bool      `json:"active"`

	Address    string `json:"address"`
	City       string `json:"city"`
	Country    string `json:"country"`
	PostalCode string `json:"postal_code"`
	Phone      string `json:"phone"`
	Photo      string `json:"photo"`
	Notes      string `json:"notes"`
}

// confirmPassword is the first registration check. It runs ahead of the
// struct tags so a mismatched pair is reported before any field error.
func (p PersonPayload) confirmPassword() error {
	if p.Password != p.ConfirmPassword {
		return appErrors.Clone(appErrors.ErrValidation, "passwords do not match")
	}
	return nil
}

func (p PersonPayload) toPerson() models.Person {
	return models.Person{
		Name:           p.Name,
		Surname:        p.Surname,
		Gender:         p.Gender,
		BirthDate:      p.BirthDate,
		Email:          p.Email,
		PersonalNumber: p.PersonalNumber,
		Address:        p.Address,
		City:           p.City,
		Country:        p.Country,
		PostalCode:     p.PostalCode,
		Phone:          p.Phone,
		Photo:          p.Photo,
		Notes:          p.Notes,
	}
}

// applyTo overwrites the mutable person fields. The photo keeps its
// stored value when the payload leaves it empty.
func (p PersonUpdatePayload) applyTo(person *models.Person) {
	person.Name = p.Name
	person.Surname = p.Surname
	person.Gender = p.Gender
	person.BirthDate = p.BirthDate
	person.Email = p.Email
	person.PersonalNumber = p.PersonalNumber
	person.Active = p.Active
	person.Address = p.Address
	person.City = p.City
	person.Country = p.Country
	person.PostalCode = p.PostalCode
	person.Phone = p.Phone
	person.Notes = p.Notes
	if p.Photo != "" {
		person.Photo = p.Photo
	}
}

// validateNewCredentials runs the ordered registration checks shared by
// all three partitions: password confirmation, email uniqueness across
// the union of partitions, personal number format, then personal number
// uniqueness. The email comparison is exact; no case normalisation.
func validateNewCredentials(ctx context.Context, uniq uniquenessChecker, p PersonPayload) error {
	if err := p.confirmPassword(); err != nil {
		return err
	}

	taken, err := uniq.EmailTaken(ctx, p.Email)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate email")
	}
	if taken {
		return appErrors.ErrEmailExists
	}

	if !personalNumberPattern.MatchString(p.PersonalNumber) {
		return appErrors.Clone(appErrors.ErrInvalidFormat, "personal number must be exactly 10 digits")
	}

	taken, err = uniq.PersonalNumberTaken(ctx, p.PersonalNumber)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate personal number")
	}
	if taken {
		return appErrors.ErrPersonalNumber
	}

	return nil
}
