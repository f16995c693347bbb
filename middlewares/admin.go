package middlewares

import (
	"net/http"

	"Stitchup/utils/httpctx"

	"github.com/gin-gonic/gin"
)

// AdminOnlyMiddleware ensures that the incoming request is authenticated and belongs to an admin user.
func AdminOnlyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if httpctx.IsAdminRequest(c) {
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
	}
}
