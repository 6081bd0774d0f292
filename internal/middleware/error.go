package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "budgetwise/internal/errors"
	"budgetwise/internal/logger"
)

// WriteError renders err as {"error":{"code","message"}}. AppErrors keep
// their status and code and have their internal cause logged; any other
// error is logged in full and reported as INTERNAL_ERROR.
func WriteError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		logger.Get().Errorw("unexpected error",
			"request_id", RequestID(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", err,
		)
		appErr = apperrors.ErrInternalServer
	} else if appErr.Internal != nil {
		logger.Get().Errorw("app error",
			"request_id", RequestID(c),
			"code", appErr.Code,
			"path", c.Request.URL.Path,
			"internal", appErr.Internal.Error(),
		)
	}

	c.AbortWithStatusJSON(appErr.StatusCode, gin.H{
		"error": gin.H{
			"code":    appErr.Code,
			"message": appErr.Message,
		},
	})
}

// ErrorHandler renders the last error a handler attached with c.Error when
// the handler did not write a response itself.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		WriteError(c, c.Errors.Last().Err)
	}
}

// NoRoute answers unknown paths with the standard NOT_FOUND error body.
func NoRoute() gin.HandlerFunc {
	return func(c *gin.Context) {
		WriteError(c, apperrors.ErrNotFound)
	}
}
