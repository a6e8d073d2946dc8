package producers

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/Annalisa11/monkey/internal/config"
	"github.com/segmentio/kafka-go"
)

// EventMessageProducer publishes relayed journey events. Writes are
// synchronous so the outbox only marks a row published once the brokers
// acknowledged it.
type EventMessageProducer struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
}

var _ MessagePublisher = (*EventMessageProducer)(nil)

// NewEventMessageProducer ensures the event topic exists and returns a producer for it
func NewEventMessageProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*EventMessageProducer, error) {
	if cfg.EventTopic == "" {
		return nil, fmt.Errorf("kafka event topic is not configured")
	}

	conn, err := kafka.DialContext(ctx, "tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for event producer: %w", err)
	}
	defer conn.Close()

	err = createKafkaTopicIfNotExists(conn, cfg.EventTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure event topic %s exists: %w", cfg.EventTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.EventTopic,
		Balancer:     &kafka.Hash{}, // same journey, same partition
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		WriteTimeout: cfg.MaxWait,
	}

	return &EventMessageProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.EventTopic,
	}, nil
}

func (p *EventMessageProducer) Publish(ctx context.Context, msg Message) error {
	if len(msg.Value) == 0 {
		return fmt.Errorf("refusing to publish empty message to %s", p.topic)
	}

	kmsg := kafka.Message{
		Key:     []byte(msg.Key),
		Value:   msg.Value,
		Headers: toHeaders(msg.Headers),
	}

	if err := p.writer.WriteMessages(ctx, kmsg); err != nil {
		p.logger.Error("Failed to publish event message",
			"topic", p.topic,
			"key", msg.Key,
			"error", err,
		)
		return fmt.Errorf("failed to publish message to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published event message",
		"topic", p.topic,
		"key", msg.Key,
	)
	return nil
}

func (p *EventMessageProducer) Close() error {
	p.logger.Info("Closing event Kafka message producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close event kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}

// toHeaders converts h to Kafka headers in key order
func toHeaders(h map[string]string) []kafka.Header {
	if len(h) == 0 {
		return nil
	}
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	headers := make([]kafka.Header, 0, len(keys))
	for _, k := range keys {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(h[k])})
	}
	return headers
}
