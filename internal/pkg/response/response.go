package response

import (
	"errors"
	"net/http"

	"conveycrm/internal/pkg/apperr"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"data":    data,
	})
}

func Error(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error":   message,
	})
}

// Abort writes the error envelope and stops the handler chain.
func Abort(c *gin.Context, statusCode int, message string) {
	c.AbortWithStatusJSON(statusCode, gin.H{
		"success": false,
		"error":   message,
	})
}

// FromError maps an application error onto the error envelope.
// Anything that is not an *apperr.Error is logged and reported as a 500.
func FromError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := apperr.Status(kind)

	if status >= http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		_ = c.Error(err)
		Error(c, status, "Internal server error")
		return
	}

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		Error(c, status, appErr.Message)
		return
	}
	Error(c, status, err.Error())
}
