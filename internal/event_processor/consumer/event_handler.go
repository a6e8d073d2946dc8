package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Annalisa11/monkey/internal/domain/event"
	"github.com/Annalisa11/monkey/internal/event_processor/service"
	"github.com/Annalisa11/monkey/internal/platform/messaging/producers"
	"github.com/Annalisa11/monkey/internal/platform/metrics"
	"github.com/google/uuid"
)

// EventHandler handles journey events consumed from Kafka
type EventHandler struct {
	projectionService service.ProjectionService
	producer          producers.DeadLetterPublisher
	metrics           *metrics.RelayMetrics
	logger            *slog.Logger
}

func NewEventHandler(
	logger *slog.Logger,
	projectionService service.ProjectionService,
	producer producers.DeadLetterPublisher,
	relayMetrics *metrics.RelayMetrics,
) *EventHandler {
	return &EventHandler{
		projectionService: projectionService,
		producer:          producer,
		metrics:           relayMetrics,
		logger:            logger,
	}
}

// HandleMessage decodes and projects one message. A nil return commits the offset.
func (h *EventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	e, err := decodeEvent(value)
	if err != nil {
		return h.deadLetter(ctx, key, value, err)
	}

	logger := h.logger.With(
		"event_id", e.EventID.String(),
		"event_type", string(e.Type),
	)
	logger.Debug("Received journey event", "message_key", string(key))

	if err := h.projectionService.Project(ctx, e); err != nil {
		return fmt.Errorf("projecting event %s failed: %w", e.EventID, err)
	}

	return nil
}

func decodeEvent(value []byte) (*event.Event, error) {
	var e event.Event
	if err := json.Unmarshal(value, &e); err != nil {
		return nil, err
	}
	if e.EventID == uuid.Nil {
		return nil, errors.New("event id is missing")
	}
	return &e, nil
}

// deadLetter parks an unprocessable message. The offset is committed once
// the DLQ write succeeds or when no DLQ is configured.
func (h *EventHandler) deadLetter(ctx context.Context, key, value []byte, cause error) error {
	reason := fmt.Sprintf("Failed to decode journey event from Kafka message: %s", cause.Error())
	h.logger.Error("Failed to decode journey event", "error", cause, "message_key", string(key))

	if h.producer == nil {
		h.logger.Warn("No DLQ configured, dropping unprocessable message", "message_key", string(key))
		return nil
	}

	if err := h.producer.PublishToDLQ(ctx, string(key), value, reason); err != nil {
		if errors.Is(err, producers.ErrDLQDisabled) {
			h.logger.Warn("DLQ disabled, dropping unprocessable message", "message_key", string(key))
			return nil
		}
		h.logger.Error("Failed to publish message to DLQ after decode error",
			"dlq_error", err,
			"original_error", cause,
			"message_key", string(key),
		)
		return fmt.Errorf("failed to decode message value: %w", cause)
	}

	h.metrics.IncDeadLettered()
	return nil
}
