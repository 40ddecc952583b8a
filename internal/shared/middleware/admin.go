package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"voucher-backend/internal/shared/response"
)

// AdminMiddleware checks if user has admin role. It must run after AuthMiddleware.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAdmin(c) {
			response.Abort(c, http.StatusForbidden, "FORBIDDEN", "Access denied: admin role required")
			return
		}

		c.Next()
	}
}
