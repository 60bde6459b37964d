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

type mockStudentRepo struct {
	items      map[int64]*models.Student
	nextID     int64
	listResult []models.Student
	listTotal  int
	listErr    error
	deleted    []int64
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	return m.listResult, m.listTotal, nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	if student, ok := m.items[id]; ok {
		cp := *student
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student) error {
	if m.items == nil {
		m.items = make(map[int64]*models.Student)
	}
	m.nextID++
	student.ID = m.nextID
	student.CreatedAt = time.Now().UTC()
	cp := *student
	m.items[student.ID] = &cp
	return nil
}

func (m *mockStudentRepo) Update(ctx context.Context, student *models.Student) error {
	if m.items == nil {
		m.items = make(map[int64]*models.Student)
	}
	cp := *student
	m.items[student.ID] = &cp
	return nil
}

func (m *mockStudentRepo) Delete(ctx context.Context, id int64) error {
	m.deleted = append(m.deleted, id)
	delete(m.items, id)
	return nil
}

func adminIdentity() *models.RequestIdentity {
	return &models.RequestIdentity{
		UserID: 1,
		Email:  "boss@example.com",
		Role:   models.RoleAdministrator,
	}
}

func validStudentRequest() CreateStudentRequest {
	return CreateStudentRequest{
		PersonPayload: validPersonPayload(),
		AcademicYear:  "2025-2026",
		ClassNumber:   3,
	}
}

func TestStudentServiceCreate(t *testing.T) {
	repo := &mockStudentRepo{}
	notifier := &stubNotifier{}
	svc := NewStudentService(repo, &stubUniq{}, notifier, validator.New(), zap.NewNop(), bcrypt.MinCost)

	student, err := svc.Create(context.Background(), validStudentRequest(), adminIdentity())
	require.NoError(t, err)
	assert.Equal(t, "boss@example.com - ADMINISTRATOR", student.CreatedBy)
	assert.Equal(t, models.RoleStudent, student.Role)
	assert.True(t, student.Active)
	assert.Empty(t, student.Password)
	assert.Len(t, repo.items, 1)
	assert.Equal(t, []string{"ana@example.com"}, notifier.calls)

	stored := repo.items[student.ID]
	require.NotEmpty(t, stored.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("supersecret")))
}

func TestStudentServiceCreateAnonymousStampsSystem(t *testing.T) {
	repo := &mockStudentRepo{}
	svc := NewStudentService(repo, &stubUniq{}, nil, validator.New(), zap.NewNop(), bcrypt.MinCost)

	student, err := svc.Create(context.Background(), validStudentRequest(), nil)
	require.NoError(t, err)
	assert.Equal(t, "system", student.CreatedBy)
}

func TestStudentServiceCreatePasswordMismatch(t *testing.T) {
	repo := &mockStudentRepo{}
	svc := NewStudentService(repo, &stubUniq{}, nil, validator.New(), zap.NewNop(), bcrypt.MinCost)

	req := validStudentRequest()
	req.ConfirmPassword = "different"
	_, err := svc.Create(context.Background(), req, adminIdentity())
	require.Error(t, err)
	assert.Empty(t, repo.items)
}

func TestStudentServiceCreateEmailTakenElsewhere(t *testing.T) {
	repo := &mockStudentRepo{}
	uniq := &stubUniq{emails: map[string]bool{"ana@example.com": true}}
	svc := NewStudentService(repo, uniq, nil, validator.New(), zap.NewNop(), bcrypt.MinCost)

	_, err := svc.Create(context.Background(), validStudentRequest(), adminIdentity())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrEmailExists.Code, appErr.Code)
	assert.Empty(t, repo.items)
}

func TestStudentServiceCreateAgeBoundary(t *testing.T) {
	repo := &mockStudentRepo{}
	svc := NewStudentService(repo, &stubUniq{}, nil, validator.New(), zap.NewNop(), bcrypt.MinCost)

	req := validStudentRequest()
	req.BirthDate = time.Now().UTC().AddDate(-17, 0, 0)
	_, err := svc.Create(context.Background(), req, adminIdentity())
	require.Error(t, err)

	req = validStudentRequest()
	req.Email = "ana2@example.com"
	req.PersonalNumber = "1234567891"
	req.BirthDate = time.Now().UTC().AddDate(-18, 0, 0)
	_, err = svc.Create(context.Background(), req, adminIdentity())
	assert.NoError(t, err)
}

func TestStudentServiceCreateGuardianEmailSameAsStudent(t *testing.T) {
	repo := &mockStudentRepo{}
	svc := NewStudentService(repo, &stubUniq{}, nil, validator.New(), zap.NewNop(), bcrypt.MinCost)

	req := validStudentRequest()
	req.GuardianEmail = "ANA@EXAMPLE.COM"
	_, err := svc.Create(context.Background(), req, adminIdentity())
	require.Error(t, err)
	assert.Empty(t, repo.items)
}

func TestStudentServiceCreateRegistrationBeforeBirth(t *testing.T) {
	repo := &mockStudentRepo{}
	svc := NewStudentService(repo, &stubUniq{}, nil, validator.New(), zap.NewNop(), bcrypt.MinCost)

	req := validStudentRequest()
	before := req.BirthDate.AddDate(-1, 0, 0)
	req.RegisteredDate = &before
	_, err := svc.Create(context.Background(), req, adminIdentity())
	require.Error(t, err)
}

func TestStudentServiceCreateAcademicYearFormat(t *testing.T) {
	repo := &mockStudentRepo{}
	svc := NewStudentService(repo, &stubUniq{}, nil, validator.New(), zap.NewNop(), bcrypt.MinCost)

	req := validStudentRequest()
	req.AcademicYear = "2025/2026"
	_, err := svc.Create(context.Background(), req, adminIdentity())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidFormat.Code, appErr.Code)
}

func TestStudentServiceUpdateMissingID(t *testing.T) {
	repo := &mockStudentRepo{}
	svc := NewStudentService(repo, &stubUniq{}, nil, validator.New(), zap.NewNop(), bcrypt.MinCost)

	req := UpdateStudentRequest{
		PersonUpdatePayload: PersonUpdatePayload{
			Name:           "Ana",
			Surname:        "Petrova",
			Gender:         "FEMALE",
			BirthDate:      time.Now().UTC().AddDate(-25, 0, 0),
			Email:          "ana@example.com",
			PersonalNumber: "1234567890",
			Active:         true,
		},
		AcademicYear: "2025-2026",
	}
	_, err := svc.Update(context.Background(), 42, req, adminIdentity())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Empty(t, repo.items)
}

func TestStudentServiceUpdateKeepsPhotoWhenEmpty(t *testing.T) {
	existing := &models.Student{}
	existing.ID = 7
	existing.Name = "Ana"
	existing.Surname = "Petrova"
	existing.Photo = "stored.jpg"
	existing.Password = "hash"
	repo := &mockStudentRepo{items: map[int64]*models.Student{7: existing}}
	svc := NewStudentService(repo, &stubUniq{}, nil, validator.New(), zap.NewNop(), bcrypt.MinCost)

	req := UpdateStudentRequest{
		PersonUpdatePayload: PersonUpdatePayload{
			Name:           "Ana",
			Surname:        "Ivanova",
			Gender:         "FEMALE",
			BirthDate:      time.Now().UTC().AddDate(-25, 0, 0),
			Email:          "ana@example.com",
			PersonalNumber: "1234567890",
			Active:         true,
		},
		AcademicYear: "2025-2026",
	}
	student, err := svc.Update(context.Background(), 7, req, adminIdentity())
	require.NoError(t, err)
	assert.Equal(t, "stored.jpg", student.Photo)
	assert.Equal(t, "Ivanova", student.Surname)
	require.NotNil(t, student.ModifiedBy)
	assert.Equal(t, "boss@example.com - ADMINISTRATOR", *student.ModifiedBy)
}

func TestStudentServiceDeleteMissingID(t *testing.T) {
	repo := &mockStudentRepo{}
	svc := NewStudentService(repo, &stubUniq{}, nil, validator.New(), zap.NewNop(), bcrypt.MinCost)

	err := svc.Delete(context.Background(), 42)
	require.Error(t, err)
	assert.Empty(t, repo.deleted)
}
