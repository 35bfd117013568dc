package middlewares

import (
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/empirehq/revenue_backend/utils"
	"github.com/gin-gonic/gin"
)

// OpsAuthMiddleware guards internal maintenance endpoints. The gateway in
// front of this service authenticates operators, forwards a shared bearer
// token (OPS_API_TOKEN) and passes the acting user through identity headers
// for the audit trail.
func OpsAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		expected := strings.TrimSpace(os.Getenv("OPS_API_TOKEN"))
		presented := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if expected == "" || presented != expected {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx := utils.SetIsAdminInContext(c.Request.Context(), true)
		if userId, err := strconv.Atoi(c.GetHeader("x-user-id")); err == nil && userId > 0 {
			ctx = utils.SetUserIdInContext(ctx, userId)
		}
		if userName := c.GetHeader("x-user-name"); userName != "" {
			ctx = utils.SetUserNameInContext(ctx, userName)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
