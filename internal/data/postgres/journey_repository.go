// Package postgres provides PostgreSQL implementations of the domain repositories.
// Every repository can be rebound to a transaction with WithTx so a whole
// kiosk request commits or rolls back as one unit.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Annalisa11/monkey/internal/domain/journey"
	"github.com/Annalisa11/monkey/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolationCode = "23505"

// JourneyRepository implements the journey.Repository interface for PostgreSQL
type JourneyRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewJourneyRepository creates a new PostgreSQL journey repository.
func NewJourneyRepository(logger *slog.Logger, db *persistence.PostgresDB) journey.Repository {
	return &JourneyRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx returns a repository bound to tx.
func (r *JourneyRepository) WithTx(tx pgx.Tx) journey.Repository {
	return &JourneyRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// OpenJourney inserts a journey in the started state and returns its id.
func (r *JourneyRepository) OpenJourney(ctx context.Context, startLocationID int64, startTime time.Time) (int64, error) {
	query := `
		INSERT INTO journeys (start_time, status, start_location_id)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	var id int64
	err := r.querier.QueryRow(ctx, query, startTime, journey.StatusStarted, startLocationID).Scan(&id)
	if err != nil {
		r.logger.Error("Failed to open journey", "start_location_id", startLocationID, "error", err)
		return 0, fmt.Errorf("failed to open journey: %w", err)
	}

	return id, nil
}

// GetByID retrieves a journey by its ID
func (r *JourneyRepository) GetByID(ctx context.Context, id int64) (*journey.Journey, error) {
	query := `
		SELECT id, start_time, end_time, status, start_location_id, requested_destination_id,
		       route_id, qr_token, qr_generated_at, qr_scanned_at
		FROM journeys
		WHERE id = $1
	`

	var j journey.Journey
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&j.ID,
		&j.StartTime,
		&j.EndTime,
		&j.Status,
		&j.StartLocationID,
		&j.RequestedDestinationID,
		&j.RouteID,
		&j.QRToken,
		&j.QRGeneratedAt,
		&j.QRScannedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, journey.ErrJourneyNotFound{JourneyID: id}
		}
		r.logger.Error("Failed to get journey", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get journey: %w", err)
	}

	return &j, nil
}

// AttachToken binds a freshly minted token and route to the journey and
// moves it to qr_generated. Completed journeys are left untouched and
// reported as ErrJourneyAlreadyCompleted. A token collision is reported as
// ErrDuplicateToken so the caller can regenerate.
func (r *JourneyRepository) AttachToken(ctx context.Context, id int64, attachment journey.TokenAttachment) error {
	query := `
		UPDATE journeys
		SET requested_destination_id = $1, route_id = $2, qr_token = $3, qr_generated_at = $4, status = $5
		WHERE id = $6 AND status <> $7 AND qr_scanned_at IS NULL
	`

	result, err := r.querier.Exec(ctx, query,
		attachment.DestinationID,
		attachment.RouteID,
		attachment.Token,
		attachment.GeneratedAt,
		journey.StatusQRGenerated,
		id,
		journey.StatusCompleted,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return journey.ErrDuplicateToken{}
		}
		r.logger.Error("Failed to attach token to journey", "id", id, "error", err)
		return fmt.Errorf("failed to attach token to journey: %w", err)
	}

	if result.RowsAffected() == 0 {
		return journey.ErrJourneyAlreadyCompleted{JourneyID: id}
	}

	return nil
}

// FindByToken locks the journey owning token and returns it with its route.
// Concurrent scans of the same token serialize on the row lock.
func (r *JourneyRepository) FindByToken(ctx context.Context, token string) (*journey.TokenBinding, error) {
	query := `
		SELECT j.id, j.start_time, j.end_time, j.status, j.start_location_id, j.requested_destination_id,
		       j.route_id, j.qr_token, j.qr_generated_at, j.qr_scanned_at,
		       r.id, r.source_location_id, r.destination_location_id, r.description, r.is_accessible
		FROM journeys j
		JOIN routes r ON r.id = j.route_id
		WHERE j.qr_token = $1
		FOR UPDATE OF j
	`

	var b journey.TokenBinding
	err := r.querier.QueryRow(ctx, query, token).Scan(
		&b.Journey.ID,
		&b.Journey.StartTime,
		&b.Journey.EndTime,
		&b.Journey.Status,
		&b.Journey.StartLocationID,
		&b.Journey.RequestedDestinationID,
		&b.Journey.RouteID,
		&b.Journey.QRToken,
		&b.Journey.QRGeneratedAt,
		&b.Journey.QRScannedAt,
		&b.Route.ID,
		&b.Route.SourceLocationID,
		&b.Route.DestinationLocationID,
		&b.Route.Description,
		&b.Route.IsAccessible,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, journey.ErrTokenNotFound{}
		}
		r.logger.Error("Failed to find journey by token", "error", err)
		return nil, fmt.Errorf("failed to find journey by token: %w", err)
	}

	return &b, nil
}

// CompleteIfUnscanned closes the journey in a single conditional update.
// Zero affected rows means another scan already completed it.
func (r *JourneyRepository) CompleteIfUnscanned(ctx context.Context, id int64, token string, at time.Time) error {
	query := `
		UPDATE journeys
		SET qr_scanned_at = $1, end_time = $1, status = $2
		WHERE id = $3 AND qr_token = $4 AND qr_scanned_at IS NULL AND status = $5
	`

	result, err := r.querier.Exec(ctx, query, at, journey.StatusCompleted, id, token, journey.StatusQRGenerated)
	if err != nil {
		r.logger.Error("Failed to complete journey", "id", id, "error", err)
		return fmt.Errorf("failed to complete journey: %w", err)
	}

	if result.RowsAffected() == 0 {
		return journey.ErrAlreadyScanned{JourneyID: id}
	}

	return nil
}

// DeleteIfStarted removes a stray journey that never got a token.
// It reports whether a row was deleted.
func (r *JourneyRepository) DeleteIfStarted(ctx context.Context, id int64) (bool, error) {
	query := `
		DELETE FROM journeys
		WHERE id = $1 AND status = $2
	`

	result, err := r.querier.Exec(ctx, query, id, journey.StatusStarted)
	if err != nil {
		r.logger.Error("Failed to delete stray journey", "id", id, "error", err)
		return false, fmt.Errorf("failed to delete stray journey: %w", err)
	}

	return result.RowsAffected() > 0, nil
}
