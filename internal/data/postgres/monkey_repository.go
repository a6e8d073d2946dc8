package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Annalisa11/monkey/internal/domain/monkey"
	"github.com/Annalisa11/monkey/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

// MonkeyRepository implements the monkey.Repository interface for PostgreSQL
type MonkeyRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewMonkeyRepository(logger *slog.Logger, db *persistence.PostgresDB) monkey.Repository {
	return &MonkeyRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func (r *MonkeyRepository) WithTx(tx pgx.Tx) monkey.Repository {
	return &MonkeyRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// GetByID resolves a kiosk and the location it is currently stationed at
func (r *MonkeyRepository) GetByID(ctx context.Context, id int64) (*monkey.Monkey, error) {
	query := `
		SELECT id, name, location_id, address, is_active
		FROM monkeys
		WHERE id = $1
	`

	var m monkey.Monkey
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&m.ID,
		&m.Name,
		&m.LocationID,
		&m.Address,
		&m.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, monkey.ErrMonkeyNotFound{MonkeyID: id}
		}
		r.logger.Error("Failed to get monkey", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get monkey: %w", err)
	}

	return &m, nil
}
