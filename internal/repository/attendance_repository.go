package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-admin-api/internal/models"
)

// AttendanceRepository manages persistence for attendance records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs an AttendanceRepository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// List returns attendance records with student and subject names.
func (r *AttendanceRepository) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, int, error) {
	base := `FROM attendance a
		JOIN students s ON s.id = a.student_id
		JOIN subjects sub ON sub.id = a.subject_id
		WHERE 1=1`
	var args []interface{}

	if filter.StudentID != nil {
		base += fmt.Sprintf(" AND a.student_id = $%d", len(args)+1)
		args = append(args, *filter.StudentID)
	}
	if filter.SubjectID != nil {
		base += fmt.Sprintf(" AND a.subject_id = $%d", len(args)+1)
		args = append(args, *filter.SubjectID)
	}
	if filter.Present != nil {
		base += fmt.Sprintf(" AND a.present = $%d", len(args)+1)
		args = append(args, *filter.Present)
	}
	if filter.DateFrom != nil {
		base += fmt.Sprintf(" AND a.date >= $%d", len(args)+1)
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		base += fmt.Sprintf(" AND a.date <= $%d", len(args)+1)
		args = append(args, *filter.DateTo)
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]string{"date": "a.date", "student": "s.surname", "created_at": "a.created_at"}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "a.date"
	}
	order := normalizeOrder(filter.SortOrder)
	_, size, offset := normalizePaging(filter.Page, filter.PageSize)

	query := fmt.Sprintf(`SELECT a.id, a.student_id, a.subject_id, a.date, a.present, a.notes, a.created_at, a.updated_at,
		s.name || ' ' || s.surname AS student_name, sub.name AS subject_name
		%s ORDER BY %s %s LIMIT %d OFFSET %d`, base, column, order, size, offset)

	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list attendance: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count attendance: %w", err)
	}
	return records, total, nil
}

// FindByID returns a single attendance record.
func (r *AttendanceRepository) FindByID(ctx context.Context, id int64) (*models.AttendanceRecord, error) {
	const query = `SELECT a.id, a.student_id, a.subject_id, a.date, a.present, a.notes, a.created_at, a.updated_at,
		s.name || ' ' || s.surname AS student_name, sub.name AS subject_name
		FROM attendance a
		JOIN students s ON s.id = a.student_id
		JOIN subjects sub ON sub.id = a.subject_id
		WHERE a.id = $1 LIMIT 1`
	var record models.AttendanceRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find attendance by id: %w", err)
	}
	return &record, nil
}

// ExistsForSlot reports whether a record already covers the
// (student, subject, date) slot, optionally excluding a record id.
func (r *AttendanceRepository) ExistsForSlot(ctx context.Context, studentID, subjectID int64, date time.Time, excludeID int64) (bool, error) {
	query := "SELECT 1 FROM attendance WHERE student_id = $1 AND subject_id = $2 AND date = $3"
	args := []interface{}{studentID, subjectID, date}
	if excludeID != 0 {
		query += " AND id <> $4"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check attendance slot: %w", err)
	}
	return true, nil
}

// Create inserts a new attendance record and populates the generated id.
func (r *AttendanceRepository) Create(ctx context.Context, record *models.Attendance) error {
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	const query = `INSERT INTO attendance (student_id, subject_id, date, present, notes, created_at, updated_at)
		VALUES (:student_id, :subject_id, :date, :present, :notes, :created_at, :updated_at)
		RETURNING id`
	rows, err := sqlx.NamedQueryContext(ctx, r.db, query, record)
	if err != nil {
		if conflict := translateUniqueViolation(err); conflict != nil {
			return conflict
		}
		return fmt.Errorf("create attendance: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&record.ID); err != nil {
			return fmt.Errorf("scan attendance id: %w", err)
		}
	}
	return nil
}

// Update overwrites the mutable fields of an attendance record.
func (r *AttendanceRepository) Update(ctx context.Context, record *models.Attendance) error {
	record.UpdatedAt = time.Now().UTC()
	const query = `UPDATE attendance SET student_id = :student_id, subject_id = :subject_id, date = :date,
		present = :present, notes = :notes, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		if conflict := translateUniqueViolation(err); conflict != nil {
			return conflict
		}
		return fmt.Errorf("update attendance: %w", err)
	}
	return nil
}

// Delete removes an attendance row.
func (r *AttendanceRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM attendance WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete attendance: %w", err)
	}
	return nil
}
