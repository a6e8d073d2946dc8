package components

import (
	"log/slog"

	"github.com/Annalisa11/monkey/internal/config"
	"github.com/Annalisa11/monkey/internal/domain/directory"
	"github.com/Annalisa11/monkey/internal/domain/event"
	"github.com/Annalisa11/monkey/internal/domain/journey"
	"github.com/Annalisa11/monkey/internal/domain/monkey"
	"github.com/Annalisa11/monkey/internal/domain/outbox"
	"github.com/Annalisa11/monkey/internal/kiosk_gateway/service"
	"github.com/Annalisa11/monkey/internal/platform/metrics"
	"github.com/Annalisa11/monkey/internal/platform/persistence"
)

// Repositories groups the stores the journey service is built on.
type Repositories struct {
	Monkeys   monkey.Repository
	Directory directory.Repository
	Journeys  journey.Repository
	Events    event.Repository
	Outbox    outbox.Repository
}

// CreateJourneyService creates a new JourneyService with all its dependencies.
func CreateJourneyService(
	transactor persistence.Transactor,
	repos Repositories,
	journeyMetrics *metrics.JourneyMetrics,
	logger *slog.Logger,
	cfg *config.Config,
) service.JourneyService {
	return createJourneyService(transactor, repos, journey.GenerateToken, nil, journeyMetrics, logger, cfg.Journey.TokenMaxAttempts)
}

func createJourneyService(
	transactor persistence.Transactor,
	repos Repositories,
	generate journey.TokenGenerator,
	now service.Clock,
	journeyMetrics *metrics.JourneyMetrics,
	logger *slog.Logger,
	tokenMaxAttempts int,
) service.JourneyService {
	kiosks := NewKioskResolver(repos.Monkeys, logger.With("component", "kiosk_resolver"))
	ledger := NewJourneyLedger(repos.Journeys, logger.With("component", "journey_ledger"))
	issuer := NewTokenIssuer(kiosks, repos.Directory, repos.Journeys, generate, tokenMaxAttempts, journeyMetrics, logger.With("component", "token_issuer"))
	verifier := NewArrivalVerifier(kiosks, repos.Journeys, logger.With("component", "arrival_verifier"))
	recorder := NewEventRecorder(repos.Events, repos.Outbox, logger.With("component", "event_recorder"))

	return service.NewJourneyService(
		transactor,
		kiosks,
		ledger,
		issuer,
		verifier,
		recorder,
		journeyMetrics,
		now,
		logger,
	)
}
