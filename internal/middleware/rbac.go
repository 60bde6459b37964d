package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-admin-api/internal/models"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
	"github.com/noah-isme/school-admin-api/pkg/response"
)

// RequireRoles enforces role-based access control for routes. Anonymous
// callers get 401, authenticated callers with a role outside the allow
// list get 403.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	return guard("", roles)
}

// RequireRolesOrSelf additionally lets a caller through on their own
// row: the :id parameter must equal the caller's user id AND the
// caller's role must match the partition the route serves. The three
// partitions draw ids from independent sequences, so an id match alone
// says nothing about whose row it is.
func RequireRolesOrSelf(resource models.Role, roles ...models.Role) gin.HandlerFunc {
	return guard(resource, roles)
}

func guard(selfRole models.Role, allowed []models.Role) gin.HandlerFunc {
	allowedRoles := make(map[models.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedRoles[role] = struct{}{}
	}

	return func(c *gin.Context) {
		identity := IdentityFrom(c)
		if identity == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if _, ok := allowedRoles[identity.Role]; ok {
			c.Next()
			return
		}

		if selfRole != "" && identity.Role == selfRole {
			if targetID, err := strconv.ParseInt(c.Param("id"), 10, 64); err == nil && targetID == identity.UserID {
				c.Next()
				return
			}
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}
