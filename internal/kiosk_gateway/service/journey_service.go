package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Annalisa11/monkey/internal/domain/event"
	"github.com/Annalisa11/monkey/internal/domain/journey"
	"github.com/Annalisa11/monkey/internal/platform/metrics"
	"github.com/Annalisa11/monkey/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

// Clock returns the current time. Tests pin it.
type Clock func() time.Time

type JourneyServiceImpl struct {
	transactor persistence.Transactor
	kiosks     KioskResolver
	ledger     JourneyLedger
	issuer     TokenIssuer
	verifier   ArrivalVerifier
	recorder   EventRecorder
	metrics    *metrics.JourneyMetrics
	now        Clock
	logger     *slog.Logger
}

func NewJourneyService(
	transactor persistence.Transactor,
	kiosks KioskResolver,
	ledger JourneyLedger,
	issuer TokenIssuer,
	verifier ArrivalVerifier,
	recorder EventRecorder,
	journeyMetrics *metrics.JourneyMetrics,
	now Clock,
	logger *slog.Logger,
) JourneyService {
	if now == nil {
		now = time.Now
	}
	return &JourneyServiceImpl{
		transactor: transactor,
		kiosks:     kiosks,
		ledger:     ledger,
		issuer:     issuer,
		verifier:   verifier,
		recorder:   recorder,
		metrics:    journeyMetrics,
		now:        now,
		logger:     logger,
	}
}

func (s *JourneyServiceImpl) loggerFor(ctx context.Context) *slog.Logger {
	if id := CorrelationIDFromContext(ctx); id != "" {
		return s.logger.With("correlation_id", id)
	}
	return s.logger
}

// PressButton opens a journey at the kiosk's station and records the press.
func (s *JourneyServiceImpl) PressButton(ctx context.Context, monkeyID int64) (int64, error) {
	logger := s.loggerFor(ctx)
	at := s.now().UTC()

	var journeyID int64
	err := s.transactor.ExecuteTx(ctx, func(tx pgx.Tx) error {
		kiosk, err := s.kiosks.Resolve(ctx, tx, monkeyID)
		if err != nil {
			return err
		}

		journeyID, err = s.ledger.Open(ctx, tx, kiosk.LocationID, at)
		if err != nil {
			return err
		}

		_, err = s.recorder.Record(ctx, tx, event.ButtonPress{MonkeyID: kiosk.ID}, &journeyID, kiosk.LocationID, at)
		return err
	})
	if err != nil {
		logger.Warn("Button press failed", "monkey_id", monkeyID, "error", err)
		return 0, err
	}

	s.metrics.IncOpened()
	logger.Info("Journey opened", "journey_id", journeyID, "monkey_id", monkeyID)
	return journeyID, nil
}

// IssueNavigationToken binds a fresh token and route to the journey.
func (s *JourneyServiceImpl) IssueNavigationToken(ctx context.Context, monkeyID, destinationLocationID, journeyID int64) (*journey.NavigationTicket, error) {
	logger := s.loggerFor(ctx)
	at := s.now().UTC()

	var issuance *Issuance
	err := s.transactor.ExecuteTx(ctx, func(tx pgx.Tx) error {
		var err error
		issuance, err = s.issuer.Issue(ctx, tx, monkeyID, destinationLocationID, journeyID, at)
		if err != nil {
			return err
		}

		metadata := event.QRGenerated{
			MonkeyID:      issuance.Kiosk.ID,
			RouteID:       issuance.Route.ID,
			DestinationID: issuance.Route.DestinationLocationID,
		}
		_, err = s.recorder.Record(ctx, tx, metadata, &journeyID, issuance.Kiosk.LocationID, at)
		return err
	})
	if err != nil {
		logger.Warn("Navigation token not issued",
			"monkey_id", monkeyID,
			"journey_id", journeyID,
			"destination_id", destinationLocationID,
			"error", err,
		)
		return nil, err
	}

	s.metrics.IncTokenIssued()
	logger.Info("Navigation token issued",
		"journey_id", journeyID,
		"route_id", issuance.Route.ID,
		"collisions", issuance.Collisions,
	)

	ticket := issuance.Ticket
	return &ticket, nil
}

// VerifyArrival completes the journey owning the scanned token. Nothing is
// written unless every check passes.
func (s *JourneyServiceImpl) VerifyArrival(ctx context.Context, scan ArrivalScan) error {
	logger := s.loggerFor(ctx)
	at := s.now().UTC()

	var arrival *Arrival
	err := s.transactor.ExecuteTx(ctx, func(tx pgx.Tx) error {
		var err error
		arrival, err = s.verifier.Verify(ctx, tx, scan, at)
		if err != nil {
			return err
		}

		metadata := event.JourneyCompleted{
			MonkeyID:        arrival.Kiosk.ID,
			RouteID:         arrival.Route.ID,
			DurationSeconds: arrival.Journey.Duration(at).Seconds(),
		}
		_, err = s.recorder.Record(ctx, tx, metadata, &arrival.Journey.ID, arrival.Kiosk.LocationID, at)
		return err
	})

	outcome := verificationOutcome(err)
	s.metrics.IncVerification(outcome)
	if err != nil {
		logger.Warn("Arrival verification rejected",
			"monkey_id", scan.MonkeyID,
			"expected_journey_id", scan.ExpectedJourneyID,
			"scanned_location_id", scan.ScannedLocationID,
			"outcome", outcome,
			"error", err,
		)
		return err
	}

	if arrival.Mismatch != nil {
		s.metrics.IncMismatch(arrival.Mismatch.Deleted)
	}
	s.metrics.ObserveJourneyDuration(arrival.Journey.Duration(at))
	logger.Info("Journey completed", "journey_id", arrival.Journey.ID, "monkey_id", scan.MonkeyID)
	return nil
}

// RecordBananaReturn logs that a visitor handed the guide banana back.
func (s *JourneyServiceImpl) RecordBananaReturn(ctx context.Context, monkeyID int64, journeyID *int64) error {
	logger := s.loggerFor(ctx)
	at := s.now().UTC()

	err := s.transactor.ExecuteTx(ctx, func(tx pgx.Tx) error {
		kiosk, err := s.kiosks.Resolve(ctx, tx, monkeyID)
		if err != nil {
			return err
		}
		if journeyID != nil {
			if _, err := s.ledger.Get(ctx, tx, *journeyID); err != nil {
				return err
			}
		}

		_, err = s.recorder.Record(ctx, tx, event.BananaReturn{MonkeyID: kiosk.ID}, journeyID, kiosk.LocationID, at)
		return err
	})
	if err != nil {
		logger.Warn("Banana return not recorded", "monkey_id", monkeyID, "error", err)
		return err
	}

	s.metrics.IncBananaReturn()
	logger.Info("Banana returned", "monkey_id", monkeyID)
	return nil
}

// GetJourney returns the journey's current state.
func (s *JourneyServiceImpl) GetJourney(ctx context.Context, journeyID int64) (*journey.Journey, error) {
	var j *journey.Journey
	err := s.transactor.ExecuteTx(ctx, func(tx pgx.Tx) error {
		var err error
		j, err = s.ledger.Get(ctx, tx, journeyID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return j, nil
}

func verificationOutcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeVerified
	case errors.Is(err, journey.ErrTokenNotFound{}):
		return metrics.OutcomeUnknownToken
	case errors.Is(err, journey.ErrAlreadyScanned{}):
		return metrics.OutcomeAlreadyScanned
	case errors.Is(err, journey.ErrWrongDestination{}):
		return metrics.OutcomeWrongDestination
	default:
		return metrics.OutcomeError
	}
}
