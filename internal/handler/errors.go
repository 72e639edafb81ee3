package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tembiapo/tembiapo-backend/internal/apperror"
	"github.com/tembiapo/tembiapo-backend/internal/dto"
	"go.uber.org/zap"
)

const internalErrorMessage = "internal server error"

// ErrorMiddleware turns the last error pushed with c.Error into the response
// envelope. Classified errors keep their message; anything else is logged
// and reported as a generic 500.
func ErrorMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err

		if appErr, ok := apperror.As(err); ok && appErr.Kind != apperror.KindInternal {
			if appErr.Err != nil {
				logger.Debug("Request failed",
					zap.String("path", c.Request.URL.Path),
					zap.String("kind", string(appErr.Kind)),
					zap.Error(appErr.Err),
				)
			}
			c.JSON(appErr.Status(), dto.Fail(appErr.Message, string(appErr.Kind)))
			return
		}

		logger.Error("Unhandled error",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, dto.Fail(internalErrorMessage, string(apperror.KindInternal)))
	}
}

// RecoveryMiddleware reports panics through the same envelope
func RecoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("Panic recovered",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Any("panic", recovered),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, dto.Fail(internalErrorMessage, string(apperror.KindInternal)))
	})
}

// NotFoundHandler answers unknown routes with the envelope
func NotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, dto.Fail("route not found", string(apperror.KindNotFound)))
}
