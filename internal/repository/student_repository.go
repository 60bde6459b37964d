package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-admin-api/internal/models"
)

const studentColumns = `id, name, surname, gender, birth_date, email, personal_number, password, role, active,
	address, city, country, postal_code, phone, photo, notes,
	registered_date, academic_year, current_semester, class_number, graduated,
	guardian_name, guardian_phone, guardian_email, emergency_contact_phone, relationship_to_student,
	created_by, created_at, modified_by, modified_at`

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching the provided filters.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	base := "FROM students WHERE 1=1"
	var args []interface{}

	if filter.ClassNumber != nil {
		base += fmt.Sprintf(" AND class_number = $%d", len(args)+1)
		args = append(args, *filter.ClassNumber)
	}
	if filter.Active != nil {
		base += fmt.Sprintf(" AND active = $%d", len(args)+1)
		args = append(args, *filter.Active)
	}
	if filter.Graduated != nil {
		base += fmt.Sprintf(" AND graduated = $%d", len(args)+1)
		args = append(args, *filter.Graduated)
	}
	if filter.Search != "" {
		base += fmt.Sprintf(" AND (LOWER(name) LIKE $%d OR LOWER(surname) LIKE $%d OR LOWER(email) LIKE $%d)",
			len(args)+1, len(args)+1, len(args)+1)
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{"name": true, "surname": true, "email": true, "class_number": true, "created_at": true}
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
	}
	order := normalizeOrder(filter.SortOrder)
	_, size, offset := normalizePaging(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", studentColumns, base, sortBy, order, size, offset)

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID returns a student by identifier.
func (r *StudentRepository) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE id = $1 LIMIT 1", studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student by id: %w", err)
	}
	return &student, nil
}

// FindByEmail returns a student by email address.
func (r *StudentRepository) FindByEmail(ctx context.Context, email string) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE email = $1 LIMIT 1", studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student by email: %w", err)
	}
	return &student, nil
}

// ExistsByEmail reports whether a student with the email exists.
func (r *StudentRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists int
	if err := r.db.GetContext(ctx, &exists, "SELECT 1 FROM students WHERE email = $1 LIMIT 1", email); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check student email: %w", err)
	}
	return true, nil
}

// ExistsByPersonalNumber reports whether the personal number is taken.
func (r *StudentRepository) ExistsByPersonalNumber(ctx context.Context, pn string) (bool, error) {
	var exists int
	if err := r.db.GetContext(ctx, &exists, "SELECT 1 FROM students WHERE personal_number = $1 LIMIT 1", pn); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check student personal number: %w", err)
	}
	return true, nil
}

// Create inserts a new student and populates the generated id.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.CreatedAt.IsZero() {
		student.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO students (name, surname, gender, birth_date, email, personal_number, password, role, active,
		address, city, country, postal_code, phone, photo, notes,
		registered_date, academic_year, current_semester, class_number, graduated,
		guardian_name, guardian_phone, guardian_email, emergency_contact_phone, relationship_to_student,
		created_by, created_at)
		VALUES (:name, :surname, :gender, :birth_date, :email, :personal_number, :password, :role, :active,
		:address, :city, :country, :postal_code, :phone, :photo, :notes,
		:registered_date, :academic_year, :current_semester, :class_number, :graduated,
		:guardian_name, :guardian_phone, :guardian_email, :emergency_contact_phone, :relationship_to_student,
		:created_by, :created_at)
		RETURNING id`
	rows, err := sqlx.NamedQueryContext(ctx, r.db, query, student)
	if err != nil {
		if conflict := translateUniqueViolation(err); conflict != nil {
			return conflict
		}
		return fmt.Errorf("create student: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&student.ID); err != nil {
			return fmt.Errorf("scan student id: %w", err)
		}
	}
	return nil
}

// Update overwrites the mutable fields of a student.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	const query = `UPDATE students SET name = :name, surname = :surname, gender = :gender, birth_date = :birth_date,
		email = :email, personal_number = :personal_number, role = :role, active = :active,
		address = :address, city = :city, country = :country, postal_code = :postal_code, phone = :phone,
		photo = :photo, notes = :notes,
		registered_date = :registered_date, academic_year = :academic_year, current_semester = :current_semester,
		class_number = :class_number, graduated = :graduated,
		guardian_name = :guardian_name, guardian_phone = :guardian_phone, guardian_email = :guardian_email,
		emergency_contact_phone = :emergency_contact_phone, relationship_to_student = :relationship_to_student,
		modified_by = :modified_by, modified_at = :modified_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		if conflict := translateUniqueViolation(err); conflict != nil {
			return conflict
		}
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// Delete removes a student row.
func (r *StudentRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM students WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return nil
}
