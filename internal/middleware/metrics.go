package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/taskrythm/taskrythm/pkg/metrics"
)

// Metrics observes per-route request latency. The route template keeps
// label cardinality bounded: `/api/tasks/:id`, not one series per task.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			// Unrouted requests (404s on arbitrary paths) share one series.
			route = "unmatched"
		}

		metrics.APILatency.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
