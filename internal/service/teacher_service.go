package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/school-admin-api/internal/models"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

type teacherRepository interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error)
	FindByID(ctx context.Context, id int64) (*models.Teacher, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	Update(ctx context.Context, teacher *models.Teacher) error
	Delete(ctx context.Context, id int64) error
}

// CreateTeacherRequest holds the payload for registering a teacher.
type CreateTeacherRequest struct {
	PersonPayload
	Qualification  string     `json:"qualification"`
	Specialisation string     `json:"specialisation"`
	Salary         float64    `json:"salary"`
	HireDate       *time.Time `json:"hire_date"`
}

// UpdateTeacherRequest holds the payload for overwriting a teacher.
type UpdateTeacherRequest struct {
	PersonUpdatePayload
	Qualification  string     `json:"qualification"`
	Specialisation string     `json:"specialisation"`
	Salary         float64    `json:"salary"`
	HireDate       *time.Time `json:"hire_date"`
}

// TeacherService handles teacher use-cases.
type TeacherService struct {
	repo       teacherRepository
	uniq       uniquenessChecker
	notifier   registrationNotifier
	validator  *validator.Validate
	logger     *zap.Logger
	bcryptCost int
}

// NewTeacherService constructs the teacher service. The notifier may be
// nil when notifications are disabled.
func NewTeacherService(repo teacherRepository, uniq uniquenessChecker, notifier registrationNotifier, validate *validator.Validate, logger *zap.Logger, bcryptCost int) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &TeacherService{repo: repo, uniq: uniq, notifier: notifier, validator: validate, logger: logger, bcryptCost: bcryptCost}
}

// List returns teachers and pagination metadata.
func (s *TeacherService) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, *models.Pagination, error) {
	teachers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	for i := range teachers {
		teachers[i].Password = ""
	}
	return teachers, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a single teacher.
func (s *TeacherService) Get(ctx context.Context, id int64) (*models.Teacher, error) {
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	teacher.Password = ""
	return teacher, nil
}

// Create registers a new teacher on behalf of the caller.
func (s *TeacherService) Create(ctx context.Context, req CreateTeacherRequest, identity *models.RequestIdentity) (*models.Teacher, error) {
	if err := req.confirmPassword(); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}
	if err := validateNewCredentials(ctx, s.uniq, req.PersonPayload); err != nil {
		return nil, err
	}
	if req.HireDate != nil && req.HireDate.Before(req.BirthDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "hire date cannot be before birth date")
	}
	if req.Salary < 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "salary cannot be negative")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	teacher := &models.Teacher{
		Person:         req.toPerson(),
		Qualification:  req.Qualification,
		Specialisation: req.Specialisation,
		Salary:         req.Salary,
		HireDate:       req.HireDate,
	}
	teacher.Password = string(hash)
	teacher.Role = models.RoleTeacher
	teacher.Active = true
	teacher.CreatedBy = identity.AuditStamp()

	if err := s.repo.Create(ctx, teacher); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher")
	}

	if s.notifier != nil {
		s.notifier.NotifyRegistration(teacher.Email, teacher.FullName(), teacher.Name, string(teacher.Role), req.Password)
	}

	teacher.Password = ""
	return teacher, nil
}

// Update overwrites an existing teacher record.
func (s *TeacherService) Update(ctx context.Context, id int64, req UpdateTeacherRequest, identity *models.RequestIdentity) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	req.applyTo(&teacher.Person)
	teacher.Qualification = req.Qualification
	teacher.Specialisation = req.Specialisation
	teacher.Salary = req.Salary
	teacher.HireDate = req.HireDate
	stamp := identity.AuditStamp()
	now := time.Now().UTC()
	teacher.ModifiedBy = &stamp
	teacher.ModifiedAt = &now

	if err := s.repo.Update(ctx, teacher); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update teacher")
	}

	teacher.Password = ""
	return teacher, nil
}

// Delete removes a teacher after checking it exists.
func (s *TeacherService) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete teacher")
	}
	return nil
}
