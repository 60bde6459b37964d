package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/pkg/config"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

type adminAccounts interface {
	FindByEmail(ctx context.Context, email string) (*models.Admin, error)
}

type teacherAccounts interface {
	FindByEmail(ctx context.Context, email string) (*models.Teacher, error)
}

type studentAccounts interface {
	FindByEmail(ctx context.Context, email string) (*models.Student, error)
}

type auditRecorder interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

// AuthService authenticates users and issues access tokens. Accounts
// live in three partitions that share one credential namespace, so
// login probes them in a fixed order.
type AuthService struct {
	admins   adminAccounts
	teachers teacherAccounts
	students studentAccounts
	audits   auditRecorder
	cfg      config.JWTConfig
	logger   *zap.Logger
}

// NewAuthService constructs an AuthService. The audit recorder may be nil.
func NewAuthService(admins adminAccounts, teachers teacherAccounts, students studentAccounts, audits auditRecorder, cfg config.JWTConfig, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		admins:   admins,
		teachers: teachers,
		students: students,
		audits:   audits,
		cfg:      cfg,
		logger:   logger,
	}
}

// Login verifies credentials against the admin, teacher and student
// partitions in turn and returns a signed access token on success.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	account, err := s.findAccount(ctx, email)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, appErrors.ErrInvalidCredentials
	}
	if !account.active {
		return nil, appErrors.ErrInactiveAccount
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.passwordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.ErrInvalidCredentials
	}

	now := time.Now().UTC()
	token, err := s.generateAccessToken(account, now)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	s.recordLogin(ctx, account, req)

	return &models.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.cfg.Expiration.Seconds()),
		IssuedAt:    now,
		User: models.UserInfo{
			ID:       account.id,
			Email:    account.email,
			FullName: account.fullName,
			Role:     account.role,
		},
	}, nil
}

// ValidateToken parses and verifies an access token, returning its claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	claims := &models.JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}
	if !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return claims, nil
}

type account struct {
	id           int64
	email        string
	fullName     string
	role         models.Role
	passwordHash string
	active       bool
}

func (s *AuthService) findAccount(ctx context.Context, email string) (*account, error) {
	admin, err := s.admins.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return &account{
			id:           admin.ID,
			email:        admin.Email,
			fullName:     admin.FullName(),
			role:         admin.Role,
			passwordHash: admin.Password,
			active:       admin.Active,
		}, nil
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("lookup admin account: %w", err)
	}

	teacher, err := s.teachers.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return &account{
			id:           teacher.ID,
			email:        teacher.Email,
			fullName:     teacher.FullName(),
			role:         teacher.Role,
			passwordHash: teacher.Password,
			active:       teacher.Active,
		}, nil
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("lookup teacher account: %w", err)
	}

	student, err := s.students.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return &account{
			id:           student.ID,
			email:        student.Email,
			fullName:     student.FullName(),
			role:         student.Role,
			passwordHash: student.Password,
			active:       student.Active,
		}, nil
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("lookup student account: %w", err)
	}

	return nil, nil
}

func (s *AuthService) generateAccessToken(acc *account, now time.Time) (string, error) {
	claims := models.JWTClaims{
		UserID: acc.id,
		Role:   acc.role,
		Email:  acc.email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   acc.email,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.Expiration)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.Secret))
}

func (s *AuthService) recordLogin(ctx context.Context, acc *account, req models.LoginRequest) {
	if s.audits == nil {
		return
	}
	entry := &models.AuditLog{
		UserID:    &acc.id,
		Action:    models.AuditActionLogin,
		Resource:  "auth",
		IPAddress: req.IP,
		UserAgent: req.UserAgent,
	}
	if err := s.audits.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record login audit entry", zap.Int64("user_id", acc.id), zap.Error(err))
	}
}
