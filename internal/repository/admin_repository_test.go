package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-admin-api/internal/models"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func adminRow() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "surname", "gender", "birth_date", "email", "personal_number", "password", "role", "active",
		"address", "city", "country", "postal_code", "phone", "photo", "notes", "department", "accept_terms",
		"created_by", "created_at", "modified_by", "modified_at",
	}).AddRow(
		int64(1), "Ana", "Petrova", "FEMALE", time.Now().AddDate(-30, 0, 0), "ana@example.com", "1234567890", "hash", "ADMINISTRATOR", true,
		"", "", "", "", "", "", "", "Academic Affairs", true,
		"system", time.Now(), nil, nil,
	)
}

func TestAdminRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAdminRepository(db)

	mock.ExpectQuery(`SELECT (.+) FROM admins WHERE 1=1 ORDER BY created_at DESC LIMIT 20 OFFSET 0`).
		WillReturnRows(adminRow())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM admins WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	admins, total, err := repo.List(context.Background(), models.AdminFilter{})
	require.NoError(t, err)
	assert.Len(t, admins, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminRepositoryListFiltersByDepartment(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAdminRepository(db)

	mock.ExpectQuery(`SELECT (.+) FROM admins WHERE 1=1 AND department = \$1 ORDER BY`).
		WithArgs("Academic Affairs").
		WillReturnRows(adminRow())
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM admins WHERE 1=1 AND department = \$1`).
		WithArgs("Academic Affairs").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, _, err := repo.List(context.Background(), models.AdminFilter{Department: "Academic Affairs"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminRepositoryFindByIDMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAdminRepository(db)

	mock.ExpectQuery(`SELECT (.+) FROM admins WHERE id = \$1 LIMIT 1`).
		WithArgs(int64(42)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), 42)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestAdminRepositoryExistsByEmail(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAdminRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM admins WHERE email = $1 LIMIT 1")).
		WithArgs("ana@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	exists, err := repo.ExistsByEmail(context.Background(), "ana@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM admins WHERE email = $1 LIMIT 1")).
		WithArgs("nobody@example.com").
		WillReturnError(sql.ErrNoRows)

	exists, err = repo.ExistsByEmail(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminRepositoryCreateReturnsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAdminRepository(db)

	mock.ExpectQuery("INSERT INTO admins").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	admin := &models.Admin{Department: "Academic Affairs"}
	admin.Email = "ana@example.com"
	admin.Role = models.RoleAdministrator
	require.NoError(t, repo.Create(context.Background(), admin))
	assert.Equal(t, int64(7), admin.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminRepositoryCreateTranslatesUniqueViolation(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAdminRepository(db)

	mock.ExpectQuery("INSERT INTO admins").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "admins_email_key"})

	admin := &models.Admin{}
	admin.Email = "ana@example.com"
	err := repo.Create(context.Background(), admin)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrEmailExists.Code, appErr.Code)
}

func TestAdminRepositoryCreateTranslatesPersonalNumberViolation(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAdminRepository(db)

	mock.ExpectQuery("INSERT INTO admins").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "admins_personal_number_key"})

	admin := &models.Admin{}
	err := repo.Create(context.Background(), admin)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrPersonalNumber.Code, appErr.Code)
}

func TestAdminRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAdminRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM admins WHERE id = $1")).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}
