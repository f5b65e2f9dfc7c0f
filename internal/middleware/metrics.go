package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/justsurfingit/Job-Application-Portal/internal/metrics"
)

// Metrics records count and latency per matched route.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordHTTPRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start).Seconds())
	}
}
