package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Annalisa11/monkey/internal/config"
	"github.com/Annalisa11/monkey/internal/data/postgres"
	"github.com/Annalisa11/monkey/internal/kiosk_gateway"
	"github.com/Annalisa11/monkey/internal/kiosk_gateway/components"
	"github.com/Annalisa11/monkey/internal/logger"
	"github.com/Annalisa11/monkey/internal/platform/metrics"
	"github.com/Annalisa11/monkey/internal/platform/persistence"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("kiosk_gateway")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	// Migrations run before the pool is opened
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	repos := components.Repositories{
		Monkeys:   postgres.NewMonkeyRepository(log, postgresDB),
		Directory: postgres.NewDirectoryRepository(log, postgresDB),
		Journeys:  postgres.NewJourneyRepository(log, postgresDB),
		Events:    postgres.NewEventRepository(log, postgresDB),
		Outbox:    postgres.NewOutboxRepository(log, postgresDB),
	}

	journeyService := components.CreateJourneyService(
		postgresDB,
		repos,
		metrics.NewJourneyMetrics(registry),
		log,
		cfg,
	)

	server := kiosk_gateway.NewServer(log, cfg, journeyService, registry)
	log.Info("REST server initialized")

	errChan := make(chan error, 1)

	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	cancelAppCtx()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	// Drain in-flight requests before the pool goes away
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	postgresDB.Close()

	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
