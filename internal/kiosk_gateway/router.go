package kiosk_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Annalisa11/monkey/internal/kiosk_gateway/handler"
	"github.com/Annalisa11/monkey/internal/kiosk_gateway/middleware"
	"github.com/Annalisa11/monkey/internal/platform/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRouter configures API routes and middleware for the application.
// CorrelationID runs before Logger so every access log line carries the id.
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	journeyHandler *handler.JourneyHandler,
	httpMetrics *metrics.HTTPMetrics,
	gatherer prometheus.Gatherer,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics(httpMetrics))

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		// Kiosk operations
		monkeys := v1.Group("/monkeys/:" + middleware.KioskIDParam)
		{
			monkeys.POST("/button-press", journeyHandler.PressButton)
			monkeys.POST("/navigation", journeyHandler.Navigate)
			monkeys.POST("/qr-check", journeyHandler.CheckQR)
			monkeys.POST("/banana-return", journeyHandler.ReturnBanana)
		}

		v1.GET("/journeys/:journeyId", journeyHandler.GetJourney)
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}
