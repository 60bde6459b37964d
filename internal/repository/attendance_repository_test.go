package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-admin-api/internal/models"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

func TestAttendanceRepositoryExistsForSlot(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	date := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT 1 FROM attendance WHERE student_id = \$1 AND subject_id = \$2 AND date = \$3 LIMIT 1`).
		WithArgs(int64(1), int64(2), date).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	taken, err := repo.ExistsForSlot(context.Background(), 1, 2, date, 0)
	require.NoError(t, err)
	assert.True(t, taken)

	mock.ExpectQuery(`SELECT 1 FROM attendance WHERE student_id = \$1 AND subject_id = \$2 AND date = \$3 AND id <> \$4 LIMIT 1`).
		WithArgs(int64(1), int64(2), date, int64(5)).
		WillReturnError(sql.ErrNoRows)

	taken, err = repo.ExistsForSlot(context.Background(), 1, 2, date, 5)
	require.NoError(t, err)
	assert.False(t, taken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryCreateReturnsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery("INSERT INTO attendance").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(9)))

	record := &models.Attendance{StudentID: 1, SubjectID: 2, Date: time.Now(), Present: true}
	require.NoError(t, repo.Create(context.Background(), record))
	assert.Equal(t, int64(9), record.ID)
}

func TestAttendanceRepositoryCreateTranslatesSlotConflict(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery("INSERT INTO attendance").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "attendance_student_subject_date_key"})

	record := &models.Attendance{StudentID: 1, SubjectID: 2, Date: time.Now()}
	err := repo.Create(context.Background(), record)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestAttendanceRepositoryListWithFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	rows := sqlmock.NewRows([]string{
		"id", "student_id", "subject_id", "date", "present", "notes", "created_at", "updated_at",
		"student_name", "subject_name",
	}).AddRow(int64(1), int64(1), int64(2), time.Now(), true, nil, time.Now(), time.Now(), "Ana Petrova", "Mathematics")

	mock.ExpectQuery(`SELECT (.+) FROM attendance a\s+JOIN students s ON s.id = a.student_id`).
		WithArgs(int64(1)).
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM attendance a`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	studentID := int64(1)
	records, total, err := repo.List(context.Background(), models.AttendanceFilter{StudentID: &studentID})
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Ana Petrova", records[0].StudentName)
	assert.NoError(t, mock.ExpectationsWereMet())
}
