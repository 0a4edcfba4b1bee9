package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/seat-desk-api/internal/service"
)

const unmatchedRoute = "unmatched"

// Metrics observes every routed request except the Prometheus scrape itself.
// Requests that match no route share one label so probing random URLs cannot grow the series set.
func Metrics(metricsSvc *service.MetricsService, skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if _, ok := skip[route]; ok {
			return
		}
		if route == "" {
			route = unmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
