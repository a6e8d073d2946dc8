package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Annalisa11/monkey/internal/domain/directory"
	"github.com/Annalisa11/monkey/internal/domain/journey"
	"github.com/Annalisa11/monkey/internal/kiosk_gateway/service"
	"github.com/Annalisa11/monkey/internal/platform/metrics"
	"github.com/jackc/pgx/v5"
)

// TokenIssuerImpl implements the TokenIssuer interface
type TokenIssuerImpl struct {
	kiosks        service.KioskResolver
	directoryRepo directory.Repository
	journeyRepo   journey.Repository
	generate      journey.TokenGenerator
	maxAttempts   int
	metrics       *metrics.JourneyMetrics
	logger        *slog.Logger
}

// NewTokenIssuer creates a new TokenIssuerImpl. A nil generator uses
// journey.GenerateToken.
func NewTokenIssuer(
	kiosks service.KioskResolver,
	directoryRepo directory.Repository,
	journeyRepo journey.Repository,
	generate journey.TokenGenerator,
	maxAttempts int,
	journeyMetrics *metrics.JourneyMetrics,
	logger *slog.Logger,
) service.TokenIssuer {
	if generate == nil {
		generate = journey.GenerateToken
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &TokenIssuerImpl{
		kiosks:        kiosks,
		directoryRepo: directoryRepo,
		journeyRepo:   journeyRepo,
		generate:      generate,
		maxAttempts:   maxAttempts,
		metrics:       journeyMetrics,
		logger:        logger,
	}
}

// Issue resolves kiosk, destination, journey and route, then binds a fresh
// token to the journey. Nothing is written unless every lookup succeeds.
func (i *TokenIssuerImpl) Issue(ctx context.Context, tx pgx.Tx, monkeyID, destinationLocationID, journeyID int64, at time.Time) (*service.Issuance, error) {
	kiosk, err := i.kiosks.Resolve(ctx, tx, monkeyID)
	if err != nil {
		return nil, err
	}

	directoryTx := i.directoryRepo.WithTx(tx)
	journeyTx := i.journeyRepo.WithTx(tx)

	if _, err := directoryTx.GetLocationByID(ctx, destinationLocationID); err != nil {
		return nil, err
	}

	current, err := journeyTx.GetByID(ctx, journeyID)
	if err != nil {
		return nil, err
	}

	route, err := directoryTx.GetRouteBetween(ctx, kiosk.LocationID, destinationLocationID)
	if err != nil {
		if errors.Is(err, directory.ErrRouteNotFound{}) {
			i.logger.Warn("No route to requested destination",
				"journey_id", journeyID,
				"from_location_id", kiosk.LocationID,
				"to_location_id", destinationLocationID,
			)
		}
		return nil, err
	}

	if current.StartLocationID != kiosk.LocationID {
		return nil, journey.ErrStartLocationMismatch{
			JourneyID:       journeyID,
			StartLocationID: current.StartLocationID,
			KioskLocationID: kiosk.LocationID,
		}
	}
	if !current.Status.CanTransitionTo(journey.StatusQRGenerated) {
		return nil, journey.ErrJourneyAlreadyCompleted{JourneyID: journeyID}
	}

	token, collisions, err := i.attachFreshToken(ctx, tx, journeyID, route, at)
	if err != nil {
		return nil, err
	}

	if current.Status == journey.StatusQRGenerated {
		i.logger.Info("Navigation token re-issued, previous token orphaned", "journey_id", journeyID)
	}

	return &service.Issuance{
		Ticket: journey.NavigationTicket{
			Payload: journey.Payload{
				Token:         token,
				DestinationID: destinationLocationID,
				JourneyID:     journeyID,
			},
			RouteDescription: route.Description,
		},
		Kiosk:      *kiosk,
		Route:      *route,
		Collisions: collisions,
	}, nil
}

// attachFreshToken writes a new token inside a savepoint, regenerating on a
// uniqueness collision. A failed statement aborts the whole transaction in
// PostgreSQL, so each attempt rolls back to its own savepoint.
func (i *TokenIssuerImpl) attachFreshToken(ctx context.Context, tx pgx.Tx, journeyID int64, route *directory.Route, at time.Time) (string, int, error) {
	for attempt := 1; attempt <= i.maxAttempts; attempt++ {
		token, err := i.generate()
		if err != nil {
			return "", 0, err
		}

		savepoint, err := tx.Begin(ctx)
		if err != nil {
			return "", 0, fmt.Errorf("failed to create savepoint: %w", err)
		}

		err = i.journeyRepo.WithTx(savepoint).AttachToken(ctx, journeyID, journey.TokenAttachment{
			DestinationID: route.DestinationLocationID,
			RouteID:       route.ID,
			Token:         token,
			GeneratedAt:   at,
		})
		if err == nil {
			if err := savepoint.Commit(ctx); err != nil {
				return "", 0, fmt.Errorf("failed to release savepoint: %w", err)
			}
			return token, attempt - 1, nil
		}

		if rbErr := savepoint.Rollback(ctx); rbErr != nil {
			return "", 0, fmt.Errorf("failed to roll back savepoint: %w", rbErr)
		}

		var duplicate journey.ErrDuplicateToken
		if !errors.As(err, &duplicate) {
			return "", 0, err
		}

		i.metrics.IncTokenCollision()
		i.logger.Warn("Navigation token collided, regenerating", "journey_id", journeyID, "attempt", attempt)
	}

	i.logger.Error("Token generation exhausted", "journey_id", journeyID, "attempts", i.maxAttempts)
	return "", 0, journey.ErrTokenGenerationExhausted{Attempts: i.maxAttempts}
}
