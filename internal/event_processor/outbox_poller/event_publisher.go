package outbox_poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Annalisa11/monkey/internal/domain/outbox"
	"github.com/Annalisa11/monkey/internal/platform/messaging/producers"
)

// Kafka headers set on every relayed event
const (
	HeaderEventID   = "event-id"
	HeaderEventType = "event-type"
)

// EventPublisher relays one outbox message to the event stream
type EventPublisher interface {
	Publish(ctx context.Context, message *outbox.Message) error
}

// ErrCorruptPayload reports an outbox payload that can never be published.
type ErrCorruptPayload struct {
	OutboxID int64
	Err      error
}

func (e ErrCorruptPayload) Error() string {
	return fmt.Sprintf("outbox message %d has a corrupt payload: %v", e.OutboxID, e.Err)
}

func (e ErrCorruptPayload) Unwrap() error {
	return e.Err
}

// KafkaEventPublisher implements EventPublisher
type KafkaEventPublisher struct {
	producer producers.MessagePublisher
	dlq      producers.DeadLetterPublisher
	logger   *slog.Logger
}

func NewEventPublisher(
	producer producers.MessagePublisher,
	dlq producers.DeadLetterPublisher,
	logger *slog.Logger,
) *KafkaEventPublisher {
	return &KafkaEventPublisher{
		producer: producer,
		dlq:      dlq,
		logger:   logger,
	}
}

// Publish sends the stored payload unchanged, keyed by the message key.
// A payload that does not decode is parked on the DLQ and reported as
// ErrCorruptPayload.
func (p *KafkaEventPublisher) Publish(ctx context.Context, message *outbox.Message) error {
	e, err := message.Event()
	if err != nil {
		p.logger.Error("Failed to decode journey event from outbox payload",
			"outbox_id", message.ID, "event_id", message.EventID.String(), "error", err,
		)
		p.deadLetter(ctx, message, err)
		return ErrCorruptPayload{OutboxID: message.ID, Err: err}
	}

	err = p.producer.Publish(ctx, producers.Message{
		Key:   message.MessageKey,
		Value: message.Payload,
		Headers: map[string]string{
			HeaderEventID:   e.EventID.String(),
			HeaderEventType: string(e.Type),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish outbox message %d: %w", message.ID, err)
	}

	p.logger.Debug("Published journey event",
		"outbox_id", message.ID, "event_id", e.EventID.String(), "event_type", string(e.Type),
	)
	return nil
}

func (p *KafkaEventPublisher) deadLetter(ctx context.Context, message *outbox.Message, cause error) {
	if p.dlq == nil {
		return
	}
	reason := fmt.Sprintf("Failed to decode outbox payload: %s", cause.Error())
	err := p.dlq.PublishToDLQ(ctx, message.MessageKey, message.Payload, reason)
	if err != nil && !errors.Is(err, producers.ErrDLQDisabled) {
		p.logger.Error("Failed to publish corrupt outbox payload to DLQ",
			"outbox_id", message.ID, "dlq_error", err,
		)
	}
}
