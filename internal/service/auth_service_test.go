package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/pkg/config"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

type stubAdminAccounts struct{ byEmail map[string]*models.Admin }

func (s *stubAdminAccounts) FindByEmail(ctx context.Context, email string) (*models.Admin, error) {
	if admin, ok := s.byEmail[email]; ok {
		return admin, nil
	}
	return nil, sql.ErrNoRows
}

type stubTeacherAccounts struct{ byEmail map[string]*models.Teacher }

func (s *stubTeacherAccounts) FindByEmail(ctx context.Context, email string) (*models.Teacher, error) {
	if teacher, ok := s.byEmail[email]; ok {
		return teacher, nil
	}
	return nil, sql.ErrNoRows
}

type stubStudentAccounts struct{ byEmail map[string]*models.Student }

func (s *stubStudentAccounts) FindByEmail(ctx context.Context, email string) (*models.Student, error) {
	if student, ok := s.byEmail[email]; ok {
		return student, nil
	}
	return nil, sql.ErrNoRows
}

type stubAuditRecorder struct{ entries []*models.AuditLog }

func (s *stubAuditRecorder) Create(ctx context.Context, log *models.AuditLog) error {
	s.entries = append(s.entries, log)
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Expiration: time.Hour, Issuer: "school-admin-api"}
}

func hashFor(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func teacherAccount(t *testing.T, email, password string, active bool) *models.Teacher {
	teacher := &models.Teacher{}
	teacher.ID = 11
	teacher.Name = "Maya"
	teacher.Surname = "Kovaceva"
	teacher.Email = email
	teacher.Password = hashFor(t, password)
	teacher.Role = models.RoleTeacher
	teacher.Active = active
	return teacher
}

func newTestAuthService(t *testing.T, teacher *models.Teacher, audits *stubAuditRecorder) *AuthService {
	teachers := &stubTeacherAccounts{byEmail: map[string]*models.Teacher{}}
	if teacher != nil {
		teachers.byEmail[teacher.Email] = teacher
	}
	var recorder auditRecorder
	if audits != nil {
		recorder = audits
	}
	return NewAuthService(&stubAdminAccounts{}, teachers, &stubStudentAccounts{}, recorder, testJWTConfig(), zap.NewNop())
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	audits := &stubAuditRecorder{}
	svc := newTestAuthService(t, teacherAccount(t, "maya@example.com", "supersecret", true), audits)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "maya@example.com", Password: "supersecret"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, int64(11), res.User.ID)
	assert.Equal(t, models.RoleTeacher, res.User.Role)
	assert.Equal(t, "Maya Kovaceva", res.User.FullName)
	require.Len(t, audits.entries, 1)
	assert.Equal(t, models.AuditActionLogin, audits.entries[0].Action)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(11), claims.UserID)
	assert.Equal(t, models.RoleTeacher, claims.Role)
}

func TestAuthServiceLoginLowercasesEmail(t *testing.T) {
	svc := newTestAuthService(t, teacherAccount(t, "maya@example.com", "supersecret", true), nil)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "  MAYA@Example.COM ", Password: "supersecret"})
	require.NoError(t, err)
	assert.Equal(t, "maya@example.com", res.User.Email)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	svc := newTestAuthService(t, teacherAccount(t, "maya@example.com", "supersecret", true), nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "maya@example.com", Password: "wrong"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestAuthServiceLoginUnknownEmail(t *testing.T) {
	svc := newTestAuthService(t, nil, nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "nobody@example.com", Password: "whatever"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestAuthServiceLoginInactiveAccount(t *testing.T) {
	svc := newTestAuthService(t, teacherAccount(t, "maya@example.com", "supersecret", false), nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "maya@example.com", Password: "supersecret"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErr.Code)
}

func TestAuthServiceValidateTokenRejectsGarbage(t *testing.T) {
	svc := newTestAuthService(t, nil, nil)

	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
}

func TestAuthServiceValidateTokenRejectsExpired(t *testing.T) {
	cfg := testJWTConfig()
	cfg.Expiration = -time.Hour
	teachers := &stubTeacherAccounts{byEmail: map[string]*models.Teacher{}}
	account := teacherAccount(t, "maya@example.com", "supersecret", true)
	teachers.byEmail[account.Email] = account
	svc := NewAuthService(&stubAdminAccounts{}, teachers, &stubStudentAccounts{}, nil, cfg, zap.NewNop())

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "maya@example.com", Password: "supersecret"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(res.AccessToken)
	require.Error(t, err)
}

func TestAuthServiceValidateTokenRejectsOtherSecret(t *testing.T) {
	svc := newTestAuthService(t, teacherAccount(t, "maya@example.com", "supersecret", true), nil)
	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "maya@example.com", Password: "supersecret"})
	require.NoError(t, err)

	other := NewAuthService(&stubAdminAccounts{}, &stubTeacherAccounts{}, &stubStudentAccounts{},
		nil, config.JWTConfig{Secret: "different", Expiration: time.Hour}, zap.NewNop())
	_, err = other.ValidateToken(res.AccessToken)
	require.Error(t, err)
}
