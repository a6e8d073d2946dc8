package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	"github.com/Annalisa11/monkey/internal/config"
	"github.com/Annalisa11/monkey/internal/data/mongo"
	"github.com/Annalisa11/monkey/internal/data/postgres"
	"github.com/Annalisa11/monkey/internal/event_processor/components"
	"github.com/Annalisa11/monkey/internal/event_processor/service"
	"github.com/Annalisa11/monkey/internal/logger"
	"github.com/Annalisa11/monkey/internal/platform/messaging/consumers"
	"github.com/Annalisa11/monkey/internal/platform/messaging/producers"
	"github.com/Annalisa11/monkey/internal/platform/metrics"
	"github.com/Annalisa11/monkey/internal/platform/persistence"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("event_processor")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	log.Info("Starting Event Processor",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	projectionRepo := mongo.NewEventProjectionRepository(log, mongoDB.Database())
	if err := projectionRepo.EnsureIndexes(appCtx); err != nil {
		log.Error("Failed to ensure projection indexes", "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	relayMetrics := metrics.NewRelayMetrics(registry)

	eventProducer, err := producers.NewEventMessageProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize event Kafka producer", "error", err)
		os.Exit(1)
	}

	// dlqProducer is nil when KAFKA_DLQ_TOPIC is empty; its methods are nil-safe
	dlqProducer, err := producers.NewDLQProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize DLQ Kafka producer", "error", err)
		os.Exit(1)
	}

	kafkaConsumer := consumers.NewKafkaConsumer(appCtx, log, &cfg.Kafka)

	projectionService := components.CreateProjectionService(projectionRepo, relayMetrics, log, cfg)
	eventHandler := components.CreateEventHandler(projectionService, dlqProducer, relayMetrics, log)
	poller := components.CreatePoller(outboxRepo, eventProducer, dlqProducer, relayMetrics, log, cfg)

	metricsServer := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Server.Port),
		Handler:           metricsMux(registry),
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
	}

	errChan := make(chan error, 2)

	var wg sync.WaitGroup

	if err := kafkaConsumer.Subscribe(appCtx, eventHandler.HandleMessage); err != nil {
		log.Error("Failed to subscribe Kafka consumer", "error", err)
		os.Exit(1)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		poller.Start(appCtx)
	}()

	go func() {
		log.Info("Starting metrics server", "port", cfg.Server.Port)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("metrics server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var serviceErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Service error occurred", "error", err)
		serviceErr = err
	}

	cancelAppCtx()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	waitDone := make(chan struct{})
	go func() {
		wg.Wait()
		<-kafkaConsumer.Done()
		close(waitDone)
	}()

	select {
	case <-waitDone:
		log.Info("All services stopped successfully")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	if wpService, ok := projectionService.(*service.WorkerPoolProjectionService); ok {
		wpService.Shutdown()
	}

	if err = metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down metrics server", "error", err)
	}

	if err = kafkaConsumer.Close(); err != nil {
		log.Error("Error closing Kafka consumer", "error", err)
	}

	if err = eventProducer.Close(); err != nil {
		log.Error("Error closing event Kafka producer", "error", err)
	}

	if err = dlqProducer.Close(); err != nil {
		log.Error("Error closing DLQ Kafka producer", "error", err)
	}

	postgresDB.Close()

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	if serviceErr != nil {
		log.Error("Event Processor shutdown with errors", "error", serviceErr)
	}
	if err != nil {
		log.Error("Event Processor shutdown completed with errors")
	} else {
		log.Info("Event Processor shutdown completed successfully")
	}
}

func metricsMux(registry *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	return mux
}
