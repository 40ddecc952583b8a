package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Keys set on the gin context by this package.
const (
	ContextKeyRequestID = "request_id"
	ContextKeyUserID    = "userID"
	ContextKeyEmail     = "email"
	ContextKeyRole      = "role"
)

const roleAdmin = "admin"

// GetUserID returns the authenticated caller, if AuthMiddleware ran.
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(ContextKeyUserID)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

func IsAdmin(c *gin.Context) bool {
	return c.GetString(ContextKeyRole) == roleAdmin
}
