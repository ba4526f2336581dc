package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gip-inclusion/dora-api/internal/service"
)

// Metrics records request duration and count. Unmatched routes are grouped
// under a single label so random capability ids do not explode cardinality.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
