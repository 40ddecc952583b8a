package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"voucher-backend/internal/shared/response"
	"voucher-backend/pkg/jwt"
)

// TokenValidator is satisfied by *jwt.Manager.
type TokenValidator interface {
	ValidateAccessToken(token string) (*jwt.Claims, error)
}

// AuthMiddleware verifies the bearer token and puts the caller's id, email
// and role on the context.
func AuthMiddleware(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			response.Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid authorization header format")
			return
		}

		claims, err := tokens.ValidateAccessToken(parts[1])
		if err != nil {
			log.Debug().Err(err).Str("request_id", c.GetString(ContextKeyRequestID)).Msg("token rejected")
			response.Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid token")
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid user ID in token")
			return
		}

		c.Set(ContextKeyUserID, userID)
		c.Set(ContextKeyEmail, claims.Email)
		c.Set(ContextKeyRole, claims.Role)

		c.Next()
	}
}
