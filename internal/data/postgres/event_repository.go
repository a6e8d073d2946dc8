package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Annalisa11/monkey/internal/domain/event"
	"github.com/Annalisa11/monkey/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

// EventRepository appends audit events to PostgreSQL
type EventRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewEventRepository(logger *slog.Logger, db *persistence.PostgresDB) event.Repository {
	return &EventRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func (r *EventRepository) WithTx(tx pgx.Tx) event.Repository {
	return &EventRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Append inserts e and sets its database id. Events are never updated.
func (r *EventRepository) Append(ctx context.Context, e *event.Event) error {
	metadata, err := event.EncodeMetadata(e.Metadata)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}

	query := `
		INSERT INTO events (event_id, journey_id, event_type, location_id, timestamp, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err = r.querier.QueryRow(ctx, query,
		e.EventID,
		e.JourneyID,
		e.Type,
		e.LocationID,
		e.Timestamp,
		metadata,
	).Scan(&e.ID)
	if err != nil {
		r.logger.Error("Failed to append event",
			"event_id", e.EventID.String(),
			"event_type", string(e.Type),
			"error", err,
		)
		return fmt.Errorf("failed to append event: %w", err)
	}

	return nil
}
