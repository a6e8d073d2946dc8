package components

import (
	"context"
	"log/slog"
	"time"

	"github.com/Annalisa11/monkey/internal/domain/journey"
	"github.com/Annalisa11/monkey/internal/kiosk_gateway/service"
	"github.com/jackc/pgx/v5"
)

// ArrivalVerifierImpl implements the ArrivalVerifier interface
type ArrivalVerifierImpl struct {
	kiosks      service.KioskResolver
	journeyRepo journey.Repository
	logger      *slog.Logger
}

// NewArrivalVerifier creates a new ArrivalVerifierImpl
func NewArrivalVerifier(kiosks service.KioskResolver, journeyRepo journey.Repository, logger *slog.Logger) service.ArrivalVerifier {
	return &ArrivalVerifierImpl{
		kiosks:      kiosks,
		journeyRepo: journeyRepo,
		logger:      logger,
	}
}

// Verify completes the journey owning scan.Token when the scanning kiosk is
// stationed at the scanned location and that location is the route's
// destination. The completion itself is a conditional update, so of any
// number of concurrent scans exactly one succeeds.
func (v *ArrivalVerifierImpl) Verify(ctx context.Context, tx pgx.Tx, scan service.ArrivalScan, at time.Time) (*service.Arrival, error) {
	journeyTx := v.journeyRepo.WithTx(tx)

	binding, err := journeyTx.FindByToken(ctx, scan.Token)
	if err != nil {
		return nil, err
	}
	owner := binding.Journey

	var mismatch *service.Reconciliation
	if owner.ID != scan.ExpectedJourneyID {
		deleted, err := journeyTx.DeleteIfStarted(ctx, scan.ExpectedJourneyID)
		if err != nil {
			return nil, err
		}
		mismatch = &service.Reconciliation{StrayJourneyID: scan.ExpectedJourneyID, Deleted: deleted}
		v.logger.Warn("Scanned token belongs to another journey",
			"expected_journey_id", scan.ExpectedJourneyID,
			"token_journey_id", owner.ID,
			"stray_deleted", deleted,
		)
	}

	if owner.IsScanned() || !owner.Status.CanTransitionTo(journey.StatusCompleted) {
		return nil, journey.ErrAlreadyScanned{JourneyID: owner.ID}
	}

	kiosk, err := v.kiosks.Resolve(ctx, tx, scan.MonkeyID)
	if err != nil {
		return nil, err
	}

	if kiosk.LocationID != scan.ScannedLocationID || scan.ScannedLocationID != binding.Route.DestinationLocationID {
		return nil, journey.ErrWrongDestination{
			JourneyID:          owner.ID,
			ScannedLocationID:  scan.ScannedLocationID,
			KioskLocationID:    kiosk.LocationID,
			RouteDestinationID: binding.Route.DestinationLocationID,
		}
	}

	if err := journeyTx.CompleteIfUnscanned(ctx, owner.ID, scan.Token, at); err != nil {
		return nil, err
	}

	completed := owner
	completed.Status = journey.StatusCompleted
	completed.QRScannedAt = &at
	completed.EndTime = &at

	return &service.Arrival{
		Journey:  completed,
		Route:    binding.Route,
		Kiosk:    *kiosk,
		Mismatch: mismatch,
	}, nil
}
