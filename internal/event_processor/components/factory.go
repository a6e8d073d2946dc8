package components

import (
	"log/slog"

	"github.com/Annalisa11/monkey/internal/config"
	"github.com/Annalisa11/monkey/internal/domain/event"
	"github.com/Annalisa11/monkey/internal/domain/outbox"
	"github.com/Annalisa11/monkey/internal/event_processor/consumer"
	"github.com/Annalisa11/monkey/internal/event_processor/outbox_poller"
	"github.com/Annalisa11/monkey/internal/event_processor/service"
	"github.com/Annalisa11/monkey/internal/platform/messaging/producers"
	"github.com/Annalisa11/monkey/internal/platform/metrics"
)

// CreateProjectionService builds the projection service, wrapped in a worker
// pool when WORKER_POOL_SIZE is positive.
func CreateProjectionService(
	projectionRepo event.ProjectionRepository,
	relayMetrics *metrics.RelayMetrics,
	logger *slog.Logger,
	cfg *config.Config,
) service.ProjectionService {
	baseService := service.NewProjectionService(
		projectionRepo,
		relayMetrics,
		logger.With("component", "projection"),
	)

	if cfg.WorkerPool.Size <= 0 {
		logger.Warn("Worker pool disabled, projecting on the consumer goroutine")
		return baseService
	}

	workerPoolService, err := service.NewWorkerPoolProjectionService(
		baseService,
		service.WorkerPoolConfig{
			Size: cfg.WorkerPool.Size,
		},
		logger.With("component", "worker_pool"),
	)
	if err != nil {
		logger.Error("Failed to create worker pool service, falling back to base service", "error", err)
		return baseService
	}

	logger.Info("Created worker pool projection service", "pool_size", cfg.WorkerPool.Size)
	return workerPoolService
}

// CreateEventHandler builds the Kafka handler feeding the projection.
func CreateEventHandler(
	projectionService service.ProjectionService,
	dlq producers.DeadLetterPublisher,
	relayMetrics *metrics.RelayMetrics,
	logger *slog.Logger,
) *consumer.EventHandler {
	return consumer.NewEventHandler(
		logger.With("component", "event_handler"),
		projectionService,
		dlq,
		relayMetrics,
	)
}

// CreatePoller builds the outbox relay.
func CreatePoller(
	outboxRepo outbox.Repository,
	producer producers.MessagePublisher,
	dlq producers.DeadLetterPublisher,
	relayMetrics *metrics.RelayMetrics,
	logger *slog.Logger,
	cfg *config.Config,
) *outbox_poller.Poller {
	publisher := outbox_poller.NewEventPublisher(producer, dlq, logger.With("component", "event_publisher"))
	return outbox_poller.NewPoller(
		&cfg.Outbox,
		outboxRepo,
		publisher,
		relayMetrics,
		logger.With("component", "outbox_poller"),
	)
}
