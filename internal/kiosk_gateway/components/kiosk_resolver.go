package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Annalisa11/monkey/internal/domain/monkey"
	"github.com/Annalisa11/monkey/internal/kiosk_gateway/service"
	"github.com/jackc/pgx/v5"
)

// KioskResolverImpl implements the KioskResolver interface
type KioskResolverImpl struct {
	monkeyRepo monkey.Repository
	logger     *slog.Logger
}

// NewKioskResolver creates a new KioskResolverImpl
func NewKioskResolver(monkeyRepo monkey.Repository, logger *slog.Logger) service.KioskResolver {
	return &KioskResolverImpl{
		monkeyRepo: monkeyRepo,
		logger:     logger,
	}
}

// Resolve loads the kiosk and its current station inside tx. A deactivated
// kiosk still resolves; it is only flagged in the log.
func (r *KioskResolverImpl) Resolve(ctx context.Context, tx pgx.Tx, monkeyID int64) (*monkey.Monkey, error) {
	kiosk, err := r.monkeyRepo.WithTx(tx).GetByID(ctx, monkeyID)
	if err != nil {
		if errors.Is(err, monkey.ErrMonkeyNotFound{}) {
			r.logger.Warn("Unknown kiosk", "monkey_id", monkeyID)
			return nil, err
		}
		return nil, fmt.Errorf("failed to resolve kiosk %d: %w", monkeyID, err)
	}
	if !kiosk.IsActive {
		attrs := []any{"monkey_id", kiosk.ID, "location_id", kiosk.LocationID}
		if kiosk.Address != nil {
			attrs = append(attrs, "address", *kiosk.Address)
		}
		r.logger.Warn("Request from deactivated kiosk", attrs...)
	}
	return kiosk, nil
}
