package repository

import (
	"errors"
	"strings"

	"github.com/lib/pq"

	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

const uniqueViolation = "23505"

// translateUniqueViolation maps a postgres unique_violation to the
// matching domain conflict. The database constraint is the authoritative
// uniqueness guard; service-level checks are advisory.
func translateUniqueViolation(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || string(pqErr.Code) != uniqueViolation {
		return nil
	}
	switch {
	case strings.Contains(pqErr.Constraint, "email"):
		return appErrors.ErrEmailExists
	case strings.Contains(pqErr.Constraint, "personal_number"):
		return appErrors.ErrPersonalNumber
	default:
		return appErrors.ErrConflict
	}
}

func normalizePaging(page, size int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return page, size, (page - 1) * size
}

func normalizeOrder(order string) string {
	order = strings.ToUpper(order)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	return order
}
