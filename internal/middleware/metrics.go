package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tractshare/tract-api/internal/service"
)

// unmatchedRoute keeps 404 scans from exploding the path label cardinality.
const unmatchedRoute = "unmatched"

// Metrics records per-request duration and count, labeled by route template.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
