package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/unishare/unishare-api/internal/middleware"
	"github.com/unishare/unishare-api/internal/models"
)

// claimsFromContext returns the verified claims set by the JWT middleware,
// or nil on anonymous requests. Services treat nil claims as unauthorized.
func claimsFromContext(c *gin.Context) *models.JWTClaims {
	v, ok := c.Get(middleware.ContextUserKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*models.JWTClaims)
	return claims
}
