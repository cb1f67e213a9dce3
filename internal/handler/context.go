package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/statboard/internal/apperror"
	"github.com/prperemyshlev/statboard/internal/domain"
	"github.com/prperemyshlev/statboard/internal/utils"
)

const (
	userContextKey = "user"

	// UploadedFileKey holds the name of an avatar stored during the request
	UploadedFileKey = "uploaded_file"

	unknownDevice = "unknown"
)

// CurrentUser returns the authenticated user, or nil on public routes
func CurrentUser(c *gin.Context) *domain.User {
	value, ok := c.Get(userContextKey)
	if !ok {
		return nil
	}
	user, _ := value.(*domain.User)
	return user
}

func setCurrentUser(c *gin.Context, user *domain.User) {
	c.Set(userContextKey, user)
}

// deviceTag identifies the client a refresh token is bound to
func deviceTag(c *gin.Context) string {
	if ua := c.Request.UserAgent(); ua != "" {
		return ua
	}
	return unknownDevice
}

// pathID reads a uuid route parameter and records a 400 when it is malformed
func pathID(c *gin.Context, name string) (string, bool) {
	id := c.Param(name)
	if !utils.ValidateID(id) {
		abortWithError(c, apperror.Validation(apperror.MsgIncorrectID))
		return "", false
	}
	return id, true
}

// abortWithError hands err to ErrorMiddleware and stops the chain
func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
