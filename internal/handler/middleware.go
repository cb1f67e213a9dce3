package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/statboard/internal/apperror"
	"github.com/prperemyshlev/statboard/internal/domain"
	"github.com/prperemyshlev/statboard/internal/service"
)

const bearerScheme = "Bearer"

// AuthMiddleware resolves the bearer token to an active user and stores it in the context
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		scheme, token, ok := strings.Cut(c.GetHeader("Authorization"), " ")
		if !ok || scheme != bearerScheme || token == "" {
			abortWithError(c, apperror.Unauthorized(apperror.MsgUnauthorized))
			return
		}

		user, err := authService.Authenticate(c.Request.Context(), token)
		if err != nil {
			abortWithError(c, err)
			return
		}

		setCurrentUser(c, user)
		c.Next()
	}
}

// RoleMiddleware lets through users holding role; admins always pass
func RoleMiddleware(role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			abortWithError(c, apperror.Unauthorized(apperror.MsgUnauthorized))
			return
		}

		if !user.HasRole(role) && !user.IsAdmin() {
			abortWithError(c, apperror.Forbidden(apperror.MsgForbidden))
			return
		}

		c.Next()
	}
}

// AccessMiddleware restricts routes carrying :userId to that user and admins
func AccessMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			abortWithError(c, apperror.Unauthorized(apperror.MsgUnauthorized))
			return
		}

		if _, ok := c.Params.Get("userId"); !ok {
			c.Next()
			return
		}

		userID, ok := pathID(c, "userId")
		if !ok {
			return
		}

		if user.ID != userID && !user.IsAdmin() {
			abortWithError(c, apperror.Forbidden(apperror.MsgValidateAccess))
			return
		}

		c.Next()
	}
}
