package middlewares

import (
	"net/http"

	"github.com/empirehq/revenue_backend/config"
	"github.com/empirehq/revenue_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestContextMiddleware attaches a correlation id to every request,
// generating one when the caller did not send x-correlation-id. The id
// travels through workflows into outbox rows and logs.
func RequestContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Header("x-correlation-id", cid)
		c.Next()
	}
}

// ReadinessGateMiddleware returns 503 for app endpoints until DB and Redis
// are connected. /healthz always passes so the startup probe succeeds.
func ReadinessGateMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		if config.GetDB() == nil || config.GetRedisDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	}
}
