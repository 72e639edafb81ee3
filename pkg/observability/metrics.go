package observability

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// PrometheusHandler serves the metrics registry through gin
func PrometheusHandler(handler http.Handler) gin.HandlerFunc {
	if handler == nil {
		return func(c *gin.Context) {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"success": false,
				"data":    nil,
				"error": gin.H{
					"message": "metrics handler not initialized",
					"code":    "INTERNAL_ERROR",
				},
			})
		}
	}
	return gin.WrapH(handler)
}
