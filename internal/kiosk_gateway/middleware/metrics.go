package middleware

import (
	"time"

	"github.com/Annalisa11/monkey/internal/platform/metrics"
	"github.com/gin-gonic/gin"
)

const unmatchedRoute = "unmatched"

// Metrics records request count and latency per route template, so
// /monkeys/1/qr-check and /monkeys/2/qr-check share one series.
func Metrics(m *metrics.HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		m.ObserveRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
