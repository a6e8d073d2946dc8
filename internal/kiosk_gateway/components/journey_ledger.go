package components

import (
	"context"
	"log/slog"
	"time"

	"github.com/Annalisa11/monkey/internal/domain/journey"
	"github.com/Annalisa11/monkey/internal/kiosk_gateway/service"
	"github.com/jackc/pgx/v5"
)

// JourneyLedgerImpl implements the JourneyLedger interface
type JourneyLedgerImpl struct {
	journeyRepo journey.Repository
	logger      *slog.Logger
}

// NewJourneyLedger creates a new JourneyLedgerImpl
func NewJourneyLedger(journeyRepo journey.Repository, logger *slog.Logger) service.JourneyLedger {
	return &JourneyLedgerImpl{
		journeyRepo: journeyRepo,
		logger:      logger,
	}
}

// Open inserts a started journey anchored at startLocationID.
func (l *JourneyLedgerImpl) Open(ctx context.Context, tx pgx.Tx, startLocationID int64, at time.Time) (int64, error) {
	id, err := l.journeyRepo.WithTx(tx).OpenJourney(ctx, startLocationID, at)
	if err != nil {
		return 0, err
	}
	l.logger.Debug("Journey row inserted", "journey_id", id, "start_location_id", startLocationID)
	return id, nil
}

func (l *JourneyLedgerImpl) Get(ctx context.Context, tx pgx.Tx, journeyID int64) (*journey.Journey, error) {
	return l.journeyRepo.WithTx(tx).GetByID(ctx, journeyID)
}
