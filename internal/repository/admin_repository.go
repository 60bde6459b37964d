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

const adminColumns = `id, name, surname, gender, birth_date, email, personal_number, password, role, active,
	address, city, country, postal_code, phone, photo, notes, department, accept_terms,
	created_by, created_at, modified_by, modified_at`

// AdminRepository manages persistence for administrator records.
type AdminRepository struct {
	db *sqlx.DB
}

// NewAdminRepository constructs an AdminRepository.
func NewAdminRepository(db *sqlx.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// List returns administrators matching the provided filters.
func (r *AdminRepository) List(ctx context.Context, filter models.AdminFilter) ([]models.Admin, int, error) {
	base := "FROM admins WHERE 1=1"
	var args []interface{}

	if filter.Department != "" {
		base += fmt.Sprintf(" AND department = $%d", len(args)+1)
		args = append(args, filter.Department)
	}
	if filter.Active != nil {
		base += fmt.Sprintf(" AND active = $%d", len(args)+1)
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		base += fmt.Sprintf(" AND (LOWER(name) LIKE $%d OR LOWER(surname) LIKE $%d OR LOWER(email) LIKE $%d)",
			len(args)+1, len(args)+1, len(args)+1)
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{"name": true, "surname": true, "email": true, "created_at": true}
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
	}
	order := normalizeOrder(filter.SortOrder)
	_, size, offset := normalizePaging(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", adminColumns, base, sortBy, order, size, offset)

	var admins []models.Admin
	if err := r.db.SelectContext(ctx, &admins, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list admins: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count admins: %w", err)
	}
	return admins, total, nil
}

// FindByID returns an administrator by identifier.
func (r *AdminRepository) FindByID(ctx context.Context, id int64) (*models.Admin, error) {
	query := fmt.Sprintf("SELECT %s FROM admins WHERE id = $1 LIMIT 1", adminColumns)
	var admin models.Admin
	if err := r.db.GetContext(ctx, &admin, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find admin by id: %w", err)
	}
	return &admin, nil
}

// FindByEmail returns an administrator by email address.
func (r *AdminRepository) FindByEmail(ctx context.Context, email string) (*models.Admin, error) {
	query := fmt.Sprintf("SELECT %s FROM admins WHERE email = $1 LIMIT 1", adminColumns)
	var admin models.Admin
	if err := r.db.GetContext(ctx, &admin, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find admin by email: %w", err)
	}
	return &admin, nil
}

// ExistsByEmail reports whether an administrator with the email exists.
func (r *AdminRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists int
	if err := r.db.GetContext(ctx, &exists, "SELECT 1 FROM admins WHERE email = $1 LIMIT 1", email); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check admin email: %w", err)
	}
	return true, nil
}

// ExistsByPersonalNumber reports whether the personal number is taken.
func (r *AdminRepository) ExistsByPersonalNumber(ctx context.Context, pn string) (bool, error) {
	var exists int
	if err := r.db.GetContext(ctx, &exists, "SELECT 1 FROM admins WHERE personal_number = $1 LIMIT 1", pn); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check admin personal number: %w", err)
	}
	return true, nil
}

// Create inserts a new administrator and populates the generated id.
func (r *AdminRepository) Create(ctx context.Context, admin *models.Admin) error {
	if admin.CreatedAt.IsZero() {
		admin.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO admins (name, surname, gender, birth_date, email, personal_number, password, role, active,
		address, city, country, postal_code, phone, photo, notes, department, accept_terms, created_by, created_at)
		VALUES (:name, :surname, :gender, :birth_date, :email, :personal_number, :password, :role, :active,
		:address, :city, :country, :postal_code, :phone, :photo, :notes, :department, :accept_terms, :created_by, :created_at)
		RETURNING id`
	rows, err := sqlx.NamedQueryContext(ctx, r.db, query, admin)
	if err != nil {
		if conflict := translateUniqueViolation(err); conflict != nil {
			return conflict
		}
		return fmt.Errorf("create admin: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&admin.ID); err != nil {
			return fmt.Errorf("scan admin id: %w", err)
		}
	}
	return nil
}

// Update overwrites the mutable fields of an administrator.
func (r *AdminRepository) Update(ctx context.Context, admin *models.Admin) error {
	const query = `UPDATE admins SET name = :name, surname = :surname, gender = :gender, birth_date = :birth_date,
		email = :email, personal_number = :personal_number, role = :role, active = :active,
		address = :address, city = :city, country = :country, postal_code = :postal_code, phone = :phone,
		photo = :photo, notes = :notes, department = :department, accept_terms = :accept_terms,
		modified_by = :modified_by, modified_at = :modified_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, admin); err != nil {
		if conflict := translateUniqueViolation(err); conflict != nil {
			return conflict
		}
		return fmt.Errorf("update admin: %w", err)
	}
	return nil
}

// Delete removes an administrator row.
func (r *AdminRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM admins WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete admin: %w", err)
	}
	return nil
}
