// Package middleware provides the gin middleware shared by all routes.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/PratikDhanave/metadata-change-listener/internal/pkg/errors"
	"github.com/PratikDhanave/metadata-change-listener/internal/pkg/logger"
)

// ErrorHandler renders errors added via c.Error() as a consistent JSON body:
// {"status":"error","code":...,"message":...}.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		rid := GetRequestID(c.Request.Context())

		if appErr, ok := apperrors.IsAppError(err); ok {
			fields := []zap.Field{
				zap.String("request_id", rid),
				zap.String("code", appErr.Code),
				zap.Int("status", appErr.HTTPStatus),
			}
			if appErr.Err != nil {
				fields = append(fields, zap.Error(appErr.Err))
			}
			if appErr.HTTPStatus >= http.StatusInternalServerError {
				logger.Error(appErr.Message, fields...)
			} else {
				logger.Warn(appErr.Message, fields...)
			}
			c.JSON(appErr.HTTPStatus, gin.H{
				"status":  "error",
				"code":    appErr.Code,
				"message": appErr.Message,
			})
			return
		}

		logger.Error("Unhandled request error", zap.String("request_id", rid), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"code":    apperrors.CodeInternal,
			"message": "An internal error occurred",
		})
	}
}
