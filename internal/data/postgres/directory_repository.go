package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Annalisa11/monkey/internal/domain/directory"
	"github.com/Annalisa11/monkey/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

// DirectoryRepository implements the directory.Repository interface for PostgreSQL
type DirectoryRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewDirectoryRepository creates a new PostgreSQL directory repository
func NewDirectoryRepository(logger *slog.Logger, db *persistence.PostgresDB) directory.Repository {
	return &DirectoryRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func (r *DirectoryRepository) WithTx(tx pgx.Tx) directory.Repository {
	return &DirectoryRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// GetLocationByID retrieves a location by its ID
func (r *DirectoryRepository) GetLocationByID(ctx context.Context, id int64) (*directory.Location, error) {
	query := `
		SELECT id, name
		FROM locations
		WHERE id = $1
	`

	var loc directory.Location
	err := r.querier.QueryRow(ctx, query, id).Scan(&loc.ID, &loc.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, directory.ErrLocationNotFound{LocationID: id}
		}
		r.logger.Error("Failed to get location", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get location: %w", err)
	}

	return &loc, nil
}

// GetRouteBetween retrieves the directed route from source to destination.
func (r *DirectoryRepository) GetRouteBetween(ctx context.Context, sourceLocationID, destinationLocationID int64) (*directory.Route, error) {
	query := `
		SELECT id, source_location_id, destination_location_id, description, is_accessible
		FROM routes
		WHERE source_location_id = $1 AND destination_location_id = $2
	`

	var route directory.Route
	err := r.querier.QueryRow(ctx, query, sourceLocationID, destinationLocationID).Scan(
		&route.ID,
		&route.SourceLocationID,
		&route.DestinationLocationID,
		&route.Description,
		&route.IsAccessible,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, directory.ErrRouteNotFound{
				SourceLocationID:      sourceLocationID,
				DestinationLocationID: destinationLocationID,
			}
		}
		r.logger.Error("Failed to get route",
			"source_location_id", sourceLocationID,
			"destination_location_id", destinationLocationID,
			"error", err,
		)
		return nil, fmt.Errorf("failed to get route: %w", err)
	}

	return &route, nil
}
