package middleware

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/unishare/unishare-api/internal/models"
	"github.com/unishare/unishare-api/internal/repository"
)

// Audit appends an audit row after the wrapped handler succeeds. The write is
// fire-and-forget: audit persistence must never fail a request that already
// committed its primary effect.
func Audit(repo *repository.UserRepository, action, resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()
		if repo == nil || c.Writer.Status() >= 400 {
			return
		}

		var actorID *string
		if v, ok := c.Get(ContextUserKey); ok {
			if claims, ok := v.(*models.JWTClaims); ok {
				actorID = &claims.UserID
			}
		}
		var resourceID *string
		if id := c.Param("id"); id != "" {
			resourceID = &id
		}

		detail, _ := json.Marshal(map[string]interface{}{
			"path":       c.FullPath(),
			"method":     c.Request.Method,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
		})

		_ = repo.CreateAuditLog(c.Request.Context(), &models.AuditLog{
			UserID:     actorID,
			Action:     action,
			Resource:   resource,
			ResourceID: resourceID,
			NewValues:  detail,
			IPAddress:  c.ClientIP(),
			UserAgent:  c.GetHeader("User-Agent"),
		})
	}
}
