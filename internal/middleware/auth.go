package middleware

import (
	"net/http"
	"strings"

	"club-room-booking/internal/models"
	"club-room-booking/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Context keys set by AuthMiddleware. Together they form the actor snapshot
// recorded on booking requests and history entries.
const (
	ContextUID         = "uid"
	ContextEmail       = "email"
	ContextDisplayName = "displayName"
	ContextRole        = "role"
)

// AuthMiddleware validates the bearer access token and stores its identity
// claims on the context
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Authorization header required. Use: Bearer <token>")
			return
		}

		claims, err := utils.ValidateAccessToken(token)
		if err != nil || claims.UID == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		c.Set(ContextUID, claims.UID)
		c.Set(ContextEmail, claims.Email)
		c.Set(ContextDisplayName, claims.DisplayName)
		c.Set(ContextRole, claims.Role)

		c.Next()
	}
}

// RequireAdmin must run after AuthMiddleware
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ContextUID) == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Authentication required")
			return
		}
		if c.GetString(ContextRole) != models.RoleAdmin {
			utils.ErrorResponse(c, http.StatusForbidden, "Admin access required")
			return
		}

		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
