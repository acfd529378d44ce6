package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/unishare/unishare-api/internal/models"
	appErrors "github.com/unishare/unishare-api/pkg/errors"
	"github.com/unishare/unishare-api/pkg/response"
)

// SelfRole is a pseudo-role accepted by RBAC: the request passes when the
// ":id" route parameter equals the caller's own user ID.
const SelfRole = "SELF"

// RBAC gates a route on the caller's role. The service layer re-checks
// authorization with fresh profile data; this only cuts off the obvious
// cases before they reach a handler.
func RBAC(allowed ...string) gin.HandlerFunc {
	roles := make(map[models.UserRole]struct{}, len(allowed))
	allowSelf := false
	for _, a := range allowed {
		if a == SelfRole {
			allowSelf = true
			continue
		}
		roles[models.UserRole(a)] = struct{}{}
	}

	return func(c *gin.Context) {
		value, ok := c.Get(ContextUserKey)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims := value.(*models.JWTClaims)

		if _, ok := roles[claims.Role]; ok {
			c.Next()
			return
		}
		if allowSelf && c.Param("id") == claims.UserID && claims.UserID != "" {
			c.Next()
			return
		}
		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}

// RequireRoles is the typed convenience form of RBAC.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make([]string, len(roles))
	for i, r := range roles {
		allowed[i] = string(r)
	}
	return RBAC(allowed...)
}
