package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/school-admin-api/internal/models"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id int64) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id int64) error
}

// CreateStudentRequest holds the payload for registering a student.
type CreateStudentRequest struct {
	PersonPayload
	RegisteredDate  *time.Time `json:"registered_date"`
	AcademicYear    string     `json:"academic_year" validate:"required"`
	CurrentSemester int        `json:"current_semester"`
	ClassNumber     int        `json:"class_number"`

	GuardianName          string `json:"guardian_name"`
	GuardianPhone         string `json:"guardian_phone"`
	GuardianEmail         string `json:"guardian_email"`
	EmergencyContactPhone string `json:"emergency_contact_phone"`
	RelationshipToStudent string `json:"relationship_to_student"`
}

// UpdateStudentRequest holds the payload for overwriting a student.
type UpdateStudentRequest struct {
	PersonUpdatePayload
	RegisteredDate  *time.Time `json:"registered_date"`
	AcademicYear    string     `json:"academic_year" validate:"required"`
	CurrentSemester int        `json:"current_semester"`
	ClassNumber     int        `json:"class_number"`
	Graduated       bool       `json:"graduated"`

	GuardianName          string `json:"guardian_name"`
	GuardianPhone         string `json:"guardian_phone"`
	GuardianEmail         string `json:"guardian_email"`
	EmergencyContactPhone string `json:"emergency_contact_phone"`
	RelationshipToStudent string `json:"relationship_to_student"`
}

// StudentService handles student use-cases.
type StudentService struct {
	repo       studentRepository
	uniq       uniquenessChecker
	notifier   registrationNotifier
	validator  *validator.Validate
	logger     *zap.Logger
	bcryptCost int
}

// NewStudentService constructs the student service. The notifier may be
// nil when notifications are disabled.
func NewStudentService(repo studentRepository, uniq uniquenessChecker, notifier registrationNotifier, validate *validator.Validate, logger *zap.Logger, bcryptCost int) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &StudentService{repo: repo, uniq: uniq, notifier: notifier, validator: validate, logger: logger, bcryptCost: bcryptCost}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	for i := range students {
		students[i].Password = ""
	}
	return students, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a single student.
func (s *StudentService) Get(ctx context.Context, id int64) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	student.Password = ""
	return student, nil
}

// Create registers a new student on behalf of the caller.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest, identity *models.RequestIdentity) (*models.Student, error) {
	if err := req.confirmPassword(); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	if err := validateNewCredentials(ctx, s.uniq, req.PersonPayload); err != nil {
		return nil, err
	}
	if err := validateStudentRules(req); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	student := &models.Student{
		Person:                req.toPerson(),
		RegisteredDate:        req.RegisteredDate,
		AcademicYear:          req.AcademicYear,
		CurrentSemester:       req.CurrentSemester,
		ClassNumber:           req.ClassNumber,
		GuardianName:          req.GuardianName,
		GuardianPhone:         req.GuardianPhone,
		GuardianEmail:         req.GuardianEmail,
		EmergencyContactPhone: req.EmergencyContactPhone,
		RelationshipToStudent: req.RelationshipToStudent,
	}
	student.Password = string(hash)
	student.Role = models.RoleStudent
	student.Active = true
	student.CreatedBy = identity.AuditStamp()

	if err := s.repo.Create(ctx, student); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}

	if s.notifier != nil {
		s.notifier.NotifyRegistration(student.Email, student.FullName(), student.Name, string(student.Role), req.Password)
	}

	student.Password = ""
	return student, nil
}

// Update overwrites an existing student record.
func (s *StudentService) Update(ctx context.Context, id int64, req UpdateStudentRequest, identity *models.RequestIdentity) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	req.applyTo(&student.Person)
	student.RegisteredDate = req.RegisteredDate
	student.AcademicYear = req.AcademicYear
	student.CurrentSemester = req.CurrentSemester
	student.ClassNumber = req.ClassNumber
	student.Graduated = req.Graduated
	student.GuardianName = req.GuardianName
	student.GuardianPhone = req.GuardianPhone
	student.GuardianEmail = req.GuardianEmail
	student.EmergencyContactPhone = req.EmergencyContactPhone
	student.RelationshipToStudent = req.RelationshipToStudent
	stamp := identity.AuditStamp()
	now := time.Now().UTC()
	student.ModifiedBy = &stamp
	student.ModifiedAt = &now

	if err := s.repo.Update(ctx, student); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}

	student.Password = ""
	return student, nil
}

// Delete removes a student after checking it exists.
func (s *StudentService) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	return nil
}

// validateStudentRules enforces the student-specific registration rules:
// the student must be at least 18 years old (exactly 18 passes), the
// registration date cannot precede the birth date, the guardian email
// must differ from the student's own (case-insensitively) and the
// academic year must look like "YYYY-YYYY".
func validateStudentRules(req CreateStudentRequest) error {
	cutoff := time.Now().UTC().AddDate(-18, 0, 0)
	if req.BirthDate.After(cutoff) {
		return appErrors.Clone(appErrors.ErrValidation, "student must be at least 18 years old")
	}
	if req.RegisteredDate != nil && req.RegisteredDate.Before(req.BirthDate) {
		return appErrors.Clone(appErrors.ErrValidation, "registration date cannot be before birth date")
	}
	if req.GuardianEmail != "" && strings.EqualFold(req.GuardianEmail, req.Email) {
		return appErrors.Clone(appErrors.ErrValidation, "guardian email must differ from student email")
	}
	if !academicYearPattern.MatchString(req.AcademicYear) {
		return appErrors.Clone(appErrors.ErrInvalidFormat, "academic year must look like YYYY-YYYY")
	}
	return nil
}
