package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/statboard/internal/apperror"
	"github.com/prperemyshlev/statboard/internal/dto"
	"github.com/prperemyshlev/statboard/internal/service"
	"go.uber.org/zap"
)

// ErrorMiddleware renders errors recorded by handlers as the uniform envelope.
// An avatar stored earlier in a failed request is removed.
func ErrorMiddleware(files service.FileService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		if name := c.GetString(UploadedFileKey); name != "" && files != nil {
			files.Discard(c.Request.Context(), name)
		}

		err := c.Errors.Last().Err
		appErr := apperror.From(err)
		status := appErr.Code.HTTPStatus()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Error(err),
		}
		if status >= http.StatusInternalServerError {
			logger.Error("request failed", fields...)
			reportError(c, err)
		} else {
			logger.Debug("request rejected", fields...)
		}

		if c.Writer.Written() {
			return
		}
		writeError(c, status, appErr.Message)
	}
}

// RecoveryHandler turns a panic into a 500 envelope
func RecoveryHandler(logger *zap.Logger) gin.RecoveryFunc {
	return func(c *gin.Context, recovered any) {
		err, ok := recovered.(error)
		if !ok {
			err = fmt.Errorf("%v", recovered)
		}

		logger.Error("panic recovered",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Any("panic", recovered),
		)
		reportError(c, err)

		writeError(c, http.StatusInternalServerError, apperror.MsgServerError)
		c.Abort()
	}
}

func writeError(c *gin.Context, status int, message string) {
	c.JSON(status, dto.ErrorResponse{
		StatusCode: status,
		Message:    message,
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
		Path:       c.Request.URL.Path,
	})
}

func reportError(c *gin.Context, err error) {
	hub := sentry.CurrentHub().Clone()
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetRequest(c.Request)
		scope.SetTag("path", c.FullPath())
		if user := CurrentUser(c); user != nil {
			scope.SetUser(sentry.User{ID: user.ID, Email: user.Email})
		}
		hub.CaptureException(err)
	})
}
