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

type adminRepository interface {
	List(ctx context.Context, filter models.AdminFilter) ([]models.Admin, int, error)
	FindByID(ctx context.Context, id int64) (*models.Admin, error)
	Create(ctx context.Context, admin *models.Admin) error
	Update(ctx context.Context, admin *models.Admin) error
	Delete(ctx context.Context, id int64) error
}

// CreateAdminRequest holds the payload for registering an administrator.
type CreateAdminRequest struct {
	PersonPayload
	Department  string      `json:"department" validate:"required"`
	AcceptTerms bool        `json:"accept_terms"`
	Role        models.Role `json:"role" validate:"required"`
}

// UpdateAdminRequest holds the payload for overwriting an administrator.
type UpdateAdminRequest struct {
	PersonUpdatePayload
	Department  string `json:"department" validate:"required"`
	AcceptTerms bool   `json:"accept_terms"`
}

// AdminService handles administrator use-cases.
type AdminService struct {
	repo       adminRepository
	uniq       uniquenessChecker
	notifier   registrationNotifier
	validator  *validator.Validate
	logger     *zap.Logger
	bcryptCost int
}

// NewAdminService constructs the administrator service. The notifier
// may be nil when notifications are disabled.
func NewAdminService(repo adminRepository, uniq uniquenessChecker, notifier registrationNotifier, validate *validator.Validate, logger *zap.Logger, bcryptCost int) *AdminService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AdminService{repo: repo, uniq: uniq, notifier: notifier, validator: validate, logger: logger, bcryptCost: bcryptCost}
}

// List returns administrators and pagination metadata.
func (s *AdminService) List(ctx context.Context, filter models.AdminFilter) ([]models.Admin, *models.Pagination, error) {
	admins, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list administrators")
	}
	for i := range admins {
		admins[i].Password = ""
	}
	return admins, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a single administrator.
func (s *AdminService) Get(ctx context.Context, id int64) (*models.Admin, error) {
	admin, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "administrator not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load administrator")
	}
	admin.Password = ""
	return admin, nil
}

// Create registers a new administrator on behalf of the caller.
func (s *AdminService) Create(ctx context.Context, req CreateAdminRequest, identity *models.RequestIdentity) (*models.Admin, error) {
	if err := req.confirmPassword(); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid administrator payload")
	}
	if err := validateNewCredentials(ctx, s.uniq, req.PersonPayload); err != nil {
		return nil, err
	}
	if !req.AcceptTerms {
		return nil, appErrors.Clone(appErrors.ErrValidation, "terms and conditions must be accepted")
	}
	if req.Role != models.RoleAdministrator {
		return nil, appErrors.Clone(appErrors.ErrValidation, "role must be ADMINISTRATOR")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	admin := &models.Admin{
		Person:      req.toPerson(),
		Department:  req.Department,
		AcceptTerms: req.AcceptTerms,
	}
	admin.Password = string(hash)
	admin.Role = models.RoleAdministrator
	admin.Active = true
	admin.CreatedBy = identity.AuditStamp()

	if err := s.repo.Create(ctx, admin); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create administrator")
	}

	if s.notifier != nil {
		s.notifier.NotifyRegistration(admin.Email, admin.FullName(), admin.Name, string(admin.Role), req.Password)
	}

	admin.Password = ""
	return admin, nil
}

// Update overwrites an existing administrator record.
func (s *AdminService) Update(ctx context.Context, id int64, req UpdateAdminRequest, identity *models.RequestIdentity) (*models.Admin, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid administrator payload")
	}
	admin, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "administrator not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load administrator")
	}

	req.applyTo(&admin.Person)
	admin.Department = req.Department
	admin.AcceptTerms = req.AcceptTerms
	stamp := identity.AuditStamp()
	now := time.Now().UTC()
	admin.ModifiedBy = &stamp
	admin.ModifiedAt = &now

	if err := s.repo.Update(ctx, admin); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update administrator")
	}

	admin.Password = ""
	return admin, nil
}

// Delete removes an administrator after checking it exists.
func (s *AdminService) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "administrator not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load administrator")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete administrator")
	}
	return nil
}

func paginationFor(page, size, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}
