package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tembiapo/tembiapo-backend/internal/apperror"
	"github.com/tembiapo/tembiapo-backend/internal/domain"
	"github.com/tembiapo/tembiapo-backend/internal/service"
)

// Gin context keys set by the guards
const (
	ContextUserID = "user_id"
	ContextEmail  = "email"
	ContextClaims = "claims"
	ContextUser   = "user"
)

// AuthMiddleware validates the bearer access token and adds user info to context
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		scheme, token, found := strings.Cut(c.GetHeader("Authorization"), " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			_ = c.Error(apperror.Unauthorized("missing or malformed authorization header"))
			c.Abort()
			return
		}

		claims, err := authService.ValidateToken(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextEmail, claims.Email)
		c.Set(ContextClaims, claims)

		c.Next()
	}
}

// RoleMiddleware admits only users whose current role is one of roles. It
// must run after AuthMiddleware.
func RoleMiddleware(authService service.AuthService, roles ...domain.RoleName) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(ContextUserID)
		if userID == "" {
			_ = c.Error(apperror.Unauthorized("authentication required"))
			c.Abort()
			return
		}

		user, err := authService.AuthorizeRole(c.Request.Context(), userID, roles...)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		c.Set(ContextUser, user)
		c.Next()
	}
}
