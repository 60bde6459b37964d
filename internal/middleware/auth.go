package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/internal/service"
)

// Gin context keys populated by the authentication filter.
const (
	ContextIdentityKey = "currentIdentity"
	ContextUserIDKey   = "currentUserID"
)

// Authenticate inspects the Authorization header once per request and
// attaches a request identity when it carries a valid bearer token. It
// never rejects: a missing header, a non-Bearer scheme or a token that
// fails verification all result in an anonymous pass-through. Denial is
// the job of the per-route RBAC middleware.
func Authenticate(authService *service.AuthService, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		// The scheme is matched exactly; "bearer" or "BEARER" count as
		// an unknown scheme and fall through to anonymous.
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.Next()
			return
		}

		claims, err := authService.ValidateToken(parts[1])
		if err != nil {
			logger.Debug("bearer token rejected, proceeding anonymously", zap.Error(err))
			c.Next()
			return
		}

		identity := models.IdentityFromClaims(claims)
		c.Set(ContextIdentityKey, identity)
		c.Set(ContextUserIDKey, identity.UserID)
		c.Next()
	}
}

// IdentityFrom extracts the request identity, nil when anonymous.
func IdentityFrom(c *gin.Context) *models.RequestIdentity {
	value, ok := c.Get(ContextIdentityKey)
	if !ok {
		return nil
	}
	identity, ok := value.(*models.RequestIdentity)
	if !ok {
		return nil
	}
	return identity
}
