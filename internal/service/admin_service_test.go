package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/school-admin-api/internal/models"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

type mockAdminRepo struct {
	items   map[int64]*models.Admin
	nextID  int64
	deleted []int64
}

func (m *mockAdminRepo) List(ctx context.Context, filter models.AdminFilter) ([]models.Admin, int, error) {
	out := make([]models.Admin, 0, len(m.items))
	for _, admin := range m.items {
		out = append(out, *admin)
	}
	return out, len(out), nil
}

func (m *mockAdminRepo) FindByID(ctx context.Context, id int64) (*models.Admin, error) {
	if admin, ok := m.items[id]; ok {
		cp := *admin
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAdminRepo) Create(ctx context.Context, admin *models.Admin) error {
	if m.items == nil {
		m.items = make(map[int64]*models.Admin)
	}
	m.nextID++
	admin.ID = m.nextID
	admin.CreatedAt = time.Now().UTC()
	cp := *admin
	m.items[admin.ID] = &cp
	return nil
}

func (m *mockAdminRepo) Update(ctx context.Context, admin *models.Admin) error {
	cp := *admin
	m.items[admin.ID] = &cp
	return nil
}

func (m *mockAdminRepo) Delete(ctx context.Context, id int64) error {
	m.deleted = append(m.deleted, id)
	delete(m.items, id)
	return nil
}

func validAdminRequest() CreateAdminRequest {
	return CreateAdminRequest{
		PersonPayload: validPersonPayload(),
		Department:    "Academic Affairs",
		AcceptTerms:   true,
		Role:          models.RoleAdministrator,
	}
}

func TestAdminServiceCreate(t *testing.T) {
	repo := &mockAdminRepo{}
	notifier := &stubNotifier{}
	svc := NewAdminService(repo, &stubUniq{}, notifier, validator.New(), zap.NewNop(), bcrypt.MinCost)

	admin, err := svc.Create(context.Background(), validAdminRequest(), adminIdentity())
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdministrator, admin.Role)
	assert.Equal(t, "boss@example.com - ADMINISTRATOR", admin.CreatedBy)
	assert.Empty(t, admin.Password)
	assert.Len(t, notifier.calls, 1)
}

func TestAdminServiceCreatePasswordMismatchReportedFirst(t *testing.T) {
	repo := &mockAdminRepo{}
	svc := NewAdminService(repo, &stubUniq{}, nil, validator.New(), zap.NewNop(), bcrypt.MinCost)

	// Both defects at once: the mismatch must win over the missing
	// department field.
	req := validAdminRequest()
	req.ConfirmPassword = "different"
	req.Department = ""
	_, err := svc.Create(context.Background(), req, adminIdentity())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, "passwords do not match", appErr.Message)
	assert.Empty(t, repo.items)
}

func TestAdminServiceCreateTermsNotAccepted(t *testing.T) {
	repo := &mockAdminRepo{}
	svc := NewAdminService(repo, &stubUniq{}, nil, validator.New(), zap.NewNop(), bcrypt.MinCost)

	req := validAdminRequest()
	req.AcceptTerms = false
	_, err := svc.Create(context.Background(), req, adminIdentity())
	require.Error(t, err)
	assert.Empty(t, repo.items)
}

func TestAdminServiceCreateWrongRole(t *testing.T) {
	repo := &mockAdminRepo{}
	svc := NewAdminService(repo, &stubUniq{}, nil, validator.New(), zap.NewNop(), bcrypt.MinCost)

	req := validAdminRequest()
	req.Role = models.RoleTeacher
	_, err := svc.Create(context.Background(), req, adminIdentity())
	require.Error(t, err)
	assert.Empty(t, repo.items)
}

func TestAdminServiceCreatePersonalNumberTaken(t *testing.T) {
	repo := &mockAdminRepo{}
	uniq := &stubUniq{pns: map[string]bool{"1234567890": true}}
	svc := NewAdminService(repo, uniq, nil, validator.New(), zap.NewNop(), bcrypt.MinCost)

	_, err := svc.Create(context.Background(), validAdminRequest(), adminIdentity())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrPersonalNumber.Code, appErr.Code)
}

func TestAdminServiceGetMissing(t *testing.T) {
	svc := NewAdminService(&mockAdminRepo{}, &stubUniq{}, nil, validator.New(), zap.NewNop(), bcrypt.MinCost)

	_, err := svc.Get(context.Background(), 99)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestAdminServiceDelete(t *testing.T) {
	existing := &models.Admin{}
	existing.ID = 3
	repo := &mockAdminRepo{items: map[int64]*models.Admin{3: existing}}
	svc := NewAdminService(repo, &stubUniq{}, nil, validator.New(), zap.NewNop(), bcrypt.MinCost)

	require.NoError(t, svc.Delete(context.Background(), 3))
	assert.Equal(t, []int64{3}, repo.deleted)

	err := svc.Delete(context.Background(), 3)
	require.Error(t, err)
}
