package components

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Annalisa11/monkey/internal/domain/event"
	"github.com/Annalisa11/monkey/internal/domain/outbox"
	"github.com/Annalisa11/monkey/internal/kiosk_gateway/service"
	"github.com/jackc/pgx/v5"
)

// EventRecorderImpl implements the EventRecorder interface
type EventRecorderImpl struct {
	eventRepo  event.Repository
	outboxRepo outbox.Repository
	logger     *slog.Logger
}

// NewEventRecorder creates a new EventRecorderImpl
func NewEventRecorder(eventRepo event.Repository, outboxRepo outbox.Repository, logger *slog.Logger) service.EventRecorder {
	return &EventRecorderImpl{
		eventRepo:  eventRepo,
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

// Record appends the event and its outbox message in tx, so the event is
// relayed only if the surrounding operation commits.
func (r *EventRecorderImpl) Record(ctx context.Context, tx pgx.Tx, metadata event.Metadata, journeyID *int64, locationID int64, at time.Time) (*event.Event, error) {
	if metadata == nil {
		return nil, fmt.Errorf("event metadata is required")
	}
	e := event.New(metadata, journeyID, locationID, at)

	if err := r.eventRepo.WithTx(tx).Append(ctx, e); err != nil {
		return nil, err
	}

	message, err := outbox.NewMessage(e)
	if err != nil {
		r.logger.Error("Failed to build outbox message", "event_id", e.EventID.String(), "error", err)
		return nil, fmt.Errorf("failed to build outbox message for event %s: %w", e.EventID, err)
	}

	if err := r.outboxRepo.WithTx(tx).Create(ctx, message); err != nil {
		return nil, err
	}

	r.logger.Info("Event recorded",
		"event_id", e.EventID.String(),
		"event_type", string(e.Type),
		"location_id", locationID,
	)
	return e, nil
}
