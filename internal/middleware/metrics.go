package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/project-collab-api/internal/metrics"
)

// Metrics records request count and latency by route pattern. Unmatched
// routes are grouped under "unmatched" to keep label cardinality bounded.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start).Seconds())
	}
}
