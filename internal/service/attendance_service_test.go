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

	"github.com/noah-isme/school-admin-api/internal/models"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

type slotKey struct {
	student int64
	subject int64
	date    string
}

type mockAttendanceRepo struct {
	items   map[int64]*models.AttendanceRecord
	slots   map[slotKey]int64
	nextID  int64
	deleted []int64
}

func (m *mockAttendanceRepo) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, int, error) {
	out := make([]models.AttendanceRecord, 0, len(m.items))
	for _, record := range m.items {
		out = append(out, *record)
	}
	return out, len(out), nil
}

func (m *mockAttendanceRepo) FindByID(ctx context.Context, id int64) (*models.AttendanceRecord, error) {
	if record, ok := m.items[id]; ok {
		cp := *record
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAttendanceRepo) ExistsForSlot(ctx context.Context, studentID, subjectID int64, date time.Time, excludeID int64) (bool, error) {
	owner, ok := m.slots[slotKey{studentID, subjectID, date.Format("2006-01-02")}]
	if !ok {
		return false, nil
	}
	return excludeID == 0 || owner != excludeID, nil
}

func (m *mockAttendanceRepo) Create(ctx context.Context, record *models.Attendance) error {
	if m.items == nil {
		m.items = make(map[int64]*models.AttendanceRecord)
	}
	if m.slots == nil {
		m.slots = make(map[slotKey]int64)
	}
	m.nextID++
	record.ID = m.nextID
	m.items[record.ID] = &models.AttendanceRecord{Attendance: *record}
	m.slots[slotKey{record.StudentID, record.SubjectID, record.Date.Format("2006-01-02")}] = record.ID
	return nil
}

func (m *mockAttendanceRepo) Update(ctx context.Context, record *models.Attendance) error {
	m.items[record.ID] = &models.AttendanceRecord{Attendance: *record}
	return nil
}

func (m *mockAttendanceRepo) Delete(ctx context.Context, id int64) error {
	m.deleted = append(m.deleted, id)
	delete(m.items, id)
	return nil
}

type stubStudentLookup struct{ ids map[int64]bool }

func (s *stubStudentLookup) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	if s.ids[id] {
		student := &models.Student{}
		student.ID = id
		return student, nil
	}
	return nil, sql.ErrNoRows
}

type stubSubjectLookup struct{ ids map[int64]bool }

func (s *stubSubjectLookup) Exists(ctx context.Context, id int64) (bool, error) {
	return s.ids[id], nil
}

func newTestAttendanceService(repo *mockAttendanceRepo) *AttendanceService {
	students := &stubStudentLookup{ids: map[int64]bool{1: true}}
	subjects := &stubSubjectLookup{ids: map[int64]bool{2: true}}
	return NewAttendanceService(repo, students, subjects, validator.New(), zap.NewNop())
}

func attendanceRequest() AttendanceRequest {
	return AttendanceRequest{
		StudentID: 1,
		SubjectID: 2,
		Date:      time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
		Present:   true,
	}
}

func TestAttendanceServiceCreate(t *testing.T) {
	repo := &mockAttendanceRepo{}
	svc := newTestAttendanceService(repo)

	record, err := svc.Create(context.Background(), attendanceRequest())
	require.NoError(t, err)
	assert.NotZero(t, record.ID)
	assert.Len(t, repo.items, 1)
}

func TestAttendanceServiceCreateDuplicateSlot(t *testing.T) {
	repo := &mockAttendanceRepo{}
	svc := newTestAttendanceService(repo)

	_, err := svc.Create(context.Background(), attendanceRequest())
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), attendanceRequest())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Len(t, repo.items, 1)
}

func TestAttendanceServiceCreateUnknownStudent(t *testing.T) {
	repo := &mockAttendanceRepo{}
	svc := newTestAttendanceService(repo)

	req := attendanceRequest()
	req.StudentID = 99
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestAttendanceServiceCreateUnknownSubject(t *testing.T) {
	repo := &mockAttendanceRepo{}
	svc := newTestAttendanceService(repo)

	req := attendanceRequest()
	req.SubjectID = 99
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestAttendanceServiceUpdateSameSlotAllowed(t *testing.T) {
	repo := &mockAttendanceRepo{}
	svc := newTestAttendanceService(repo)

	record, err := svc.Create(context.Background(), attendanceRequest())
	require.NoError(t, err)

	req := attendanceRequest()
	req.Present = false
	updated, err := svc.Update(context.Background(), record.ID, req)
	require.NoError(t, err)
	assert.False(t, updated.Present)
}

func TestAttendanceServiceUpdateMissingID(t *testing.T) {
	svc := newTestAttendanceService(&mockAttendanceRepo{})

	_, err := svc.Update(context.Background(), 42, attendanceRequest())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestAttendanceServiceDelete(t *testing.T) {
	repo := &mockAttendanceRepo{}
	svc := newTestAttendanceService(repo)

	record, err := svc.Create(context.Background(), attendanceRequest())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), record.ID))
	assert.Equal(t, []int64{record.ID}, repo.deleted)

	err = svc.Delete(context.Background(), record.ID)
	require.Error(t, err)
}
