// Package outbox_poller relays recorded journey events from the PostgreSQL
// outbox to Kafka.
package outbox_poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Annalisa11/monkey/internal/config"
	"github.com/Annalisa11/monkey/internal/domain/outbox"
	"github.com/Annalisa11/monkey/internal/domain/shared"
	"github.com/Annalisa11/monkey/internal/platform/metrics"
)

// Poller processes pending outbox messages
type Poller struct {
	outboxRepo       outbox.Repository
	publisher        EventPublisher
	metrics          *metrics.RelayMetrics
	logger           *slog.Logger
	pollInterval     time.Duration
	batchSize        int
	maxRetryAttempts int
}

func NewPoller(
	cfg *config.OutboxConfig,
	outboxRepo outbox.Repository,
	publisher EventPublisher,
	relayMetrics *metrics.RelayMetrics,
	logger *slog.Logger,
) *Poller {
	return &Poller{
		outboxRepo:       outboxRepo,
		publisher:        publisher,
		metrics:          relayMetrics,
		logger:           logger,
		pollInterval:     cfg.PollingInterval,
		batchSize:        cfg.BatchSize,
		maxRetryAttempts: cfg.MaxRetryAttempts,
	}
}

// Start polls until ctx is canceled
func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("Starting Outbox Poller",
		"poll_interval", p.pollInterval.String(),
		"batch_size", p.batchSize,
		"max_retry_attempts", p.maxRetryAttempts,
	)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Outbox Poller stopping due to context cancellation.")
			return
		case <-ticker.C:
			if err := p.processPendingMessages(ctx); err != nil && !errors.Is(err, context.Canceled) {
				p.logger.Error("Error during batch processing of pending outbox messages", "error", err)
			}
		}
	}
}

// processPendingMessages relays one FIFO batch. Per-message failures are
// recorded on the row and never abort the batch.
func (p *Poller) processPendingMessages(ctx context.Context) error {
	start := time.Now()
	defer func() { p.metrics.ObservePoll(time.Since(start)) }()

	messages, err := p.outboxRepo.GetPending(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("failed to get pending outbox messages: %w", err)
	}

	if len(messages) == 0 {
		p.logger.Debug("No pending outbox messages found.")
		return nil
	}

	p.logger.Debug("Fetched pending outbox messages", "count", len(messages))

	for _, msg := range messages {
		if err := ctx.Err(); err != nil {
			return err
		}
		p.relay(ctx, msg)
	}
	return nil
}

func (p *Poller) relay(ctx context.Context, msg *outbox.Message) {
	logger := p.logger.With("outbox_id", msg.ID, "event_id", msg.EventID.String(), "message_key", msg.MessageKey)

	err := p.publisher.Publish(ctx, msg)
	if err == nil {
		// a failed status update republishes the row next tick; the projection dedupes on event id
		if errUpdate := p.outboxRepo.UpdateStatus(ctx, msg.ID, shared.OutboxStatusPublished); errUpdate != nil {
			logger.Error("Failed to mark outbox message as PUBLISHED", "error", errUpdate)
			return
		}
		p.metrics.IncPublished()
		logger.Info("Relayed outbox message")
		return
	}

	var corrupt ErrCorruptPayload
	if errors.As(err, &corrupt) {
		logger.Warn("Outbox message can never be published, marking as FAILED_TO_PUBLISH", "error", err)
		p.markFailed(ctx, logger, msg)
		return
	}

	p.metrics.IncPublishFailure()
	logger.Error("Failed to publish outbox message", "current_attempts", msg.Attempts, "error", err)

	if errInc := p.outboxRepo.IncrementAttempts(ctx, msg.ID); errInc != nil {
		logger.Error("Failed to increment attempts for outbox message", "error", errInc)
		return
	}

	if msg.ExhaustedAfterFailure(p.maxRetryAttempts) {
		logger.Warn("Max retry attempts reached for outbox message, marking as FAILED_TO_PUBLISH",
			"attempts_made", msg.Attempts+1,
		)
		p.markFailed(ctx, logger, msg)
	}
}

func (p *Poller) markFailed(ctx context.Context, logger *slog.Logger, msg *outbox.Message) {
	if err := p.outboxRepo.UpdateStatus(ctx, msg.ID, shared.OutboxStatusFailedToPublish); err != nil {
		logger.Error("Failed to update outbox status to FAILED_TO_PUBLISH", "error", err)
		return
	}
	p.metrics.IncAbandoned()
}
