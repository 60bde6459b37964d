package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-admin-api/internal/models"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

type attendanceRepository interface {
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, int, error)
	FindByID(ctx context.Context, id int64) (*models.AttendanceRecord, error)
	ExistsForSlot(ctx context.Context, studentID, subjectID int64, date time.Time, excludeID int64) (bool, error)
	Create(ctx context.Context, record *models.Attendance) error
	Update(ctx context.Context, record *models.Attendance) error
	Delete(ctx context.Context, id int64) error
}

type studentLookup interface {
	FindByID(ctx context.Context, id int64) (*models.Student, error)
}

type subjectLookup interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// AttendanceRequest holds the payload for recording or overwriting an
// attendance entry.
type AttendanceRequest struct {
	StudentID int64     `json:"student_id" validate:"required,gt=0"`
	SubjectID int64     `json:"subject_id" validate:"required,gt=0"`
	Date      time.Time `json:"date" validate:"required"`
	Present   bool      `json:"present"`
	Notes     *string   `json:"notes"`
}

// AttendanceService handles attendance use-cases. One record covers one
// (student, subject, date) slot.
type AttendanceService struct {
	repo      attendanceRepository
	students  studentLookup
	subjects  subjectLookup
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(repo attendanceRepository, students studentLookup, subjects subjectLookup, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{repo: repo, students: students, subjects: subjects, validator: validate, logger: logger}
}

// List returns attendance records with display names.
func (s *AttendanceService) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, *models.Pagination, error) {
	records, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return records, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a single attendance record.
func (s *AttendanceService) Get(ctx context.Context, id int64) (*models.AttendanceRecord, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance record")
	}
	return record, nil
}

// Create records attendance for a student on a subject and date. The
// referenced student and subject must exist and the slot must be free.
func (s *AttendanceService) Create(ctx context.Context, req AttendanceRequest) (*models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	if err := s.checkReferences(ctx, req); err != nil {
		return nil, err
	}

	taken, err := s.repo.ExistsForSlot(ctx, req.StudentID, req.SubjectID, req.Date, 0)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check attendance slot")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "attendance already recorded for this student, subject and date")
	}

	record := &models.Attendance{
		StudentID: req.StudentID,
		SubjectID: req.SubjectID,
		Date:      req.Date,
		Present:   req.Present,
		Notes:     req.Notes,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create attendance record")
	}
	return record, nil
}

// Update overwrites an existing attendance record.
func (s *AttendanceService) Update(ctx context.Context, id int64, req AttendanceRequest) (*models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance record")
	}
	if err := s.checkReferences(ctx, req); err != nil {
		return nil, err
	}

	taken, err := s.repo.ExistsForSlot(ctx, req.StudentID, req.SubjectID, req.Date, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check attendance slot")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "attendance already recorded for this student, subject and date")
	}

	record := existing.Attendance
	record.StudentID = req.StudentID
	record.SubjectID = req.SubjectID
	record.Date = req.Date
	record.Present = req.Present
	record.Notes = req.Notes

	if err := s.repo.Update(ctx, &record); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update attendance record")
	}
	return &record, nil
}

// Delete removes an attendance record after checking it exists.
func (s *AttendanceService) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance record")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete attendance record")
	}
	return nil
}

func (s *AttendanceService) checkReferences(ctx context.Context, req AttendanceRequest) error {
	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	exists, err := s.subjects.Exists(ctx, req.SubjectID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject")
	}
	if !exists {
		return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
	}
	return nil
}
