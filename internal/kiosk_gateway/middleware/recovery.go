package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
)

// KioskIDParam is the route parameter naming the kiosk a request came from.
const KioskIDParam = "kioskId"

// Recovery turns a panic in a kiosk handler into a 500 and logs it with the
// kiosk and route that triggered it, so a misbehaving kiosk can be found
// from the log line alone.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}

			attrs := []any{
				"panic", recovered,
				"method", c.Request.Method,
				"route", c.FullPath(),
				"path", c.Request.URL.Path,
				"stack", string(debug.Stack()),
			}
			if kioskID := c.Param(KioskIDParam); kioskID != "" {
				attrs = append(attrs, "kiosk_id", kioskID)
			}
			correlationID := GetCorrelationID(c)
			if correlationID != "" {
				attrs = append(attrs, "correlation_id", correlationID)
			}
			logger.Error("Kiosk request panicked", attrs...)

			body := gin.H{
				"error": gin.H{
					"code":    "INTERNAL_SERVER_ERROR",
					"message": "An internal server error occurred",
				},
			}
			if correlationID != "" {
				body["correlation_id"] = correlationID
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, body)
		}()

		c.Next()
	}
}
