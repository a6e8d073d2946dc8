package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Annalisa11/monkey/internal/domain/event"
	"github.com/Annalisa11/monkey/internal/platform/metrics"
)

// Projection results
const (
	ResultInserted  = "inserted"
	ResultDuplicate = "duplicate"
	ResultCollision = "collision"
	ResultFailed    = "failed"
)

// ProjectionServiceImpl writes each event once into the projection repository.
// Redelivered events are acknowledged without a second write. A redelivery
// is read back and compared, and an event id reused by a different outbox
// row is counted as a collision.
type ProjectionServiceImpl struct {
	repo    event.ProjectionRepository
	metrics *metrics.RelayMetrics
	logger  *slog.Logger
}

var _ ProjectionService = (*ProjectionServiceImpl)(nil)

func NewProjectionService(
	repo event.ProjectionRepository,
	relayMetrics *metrics.RelayMetrics,
	logger *slog.Logger,
) *ProjectionServiceImpl {
	return &ProjectionServiceImpl{
		repo:    repo,
		metrics: relayMetrics,
		logger:  logger,
	}
}

func (s *ProjectionServiceImpl) Project(ctx context.Context, e *event.Event) error {
	if e == nil {
		return errors.New("event is required")
	}

	logger := s.logger.With(
		"event_id", e.EventID.String(),
		"event_type", string(e.Type),
	)
	if e.JourneyID != nil {
		logger = logger.With("journey_id", *e.JourneyID)
	}

	inserted, err := s.repo.Project(ctx, e)
	if err != nil {
		s.metrics.IncProjected(string(e.Type), ResultFailed)
		logger.Error("Failed to project journey event", "error", err)
		return fmt.Errorf("failed to project event %s: %w", e.EventID, err)
	}

	if !inserted {
		s.metrics.IncProjected(string(e.Type), s.classifyDuplicate(ctx, e, logger))
		return nil
	}

	s.metrics.IncProjected(string(e.Type), ResultInserted)
	logger.Info("Projected journey event")
	return nil
}

func (s *ProjectionServiceImpl) classifyDuplicate(ctx context.Context, e *event.Event, logger *slog.Logger) string {
	stored, err := s.repo.GetByEventID(ctx, e.EventID)
	if err != nil {
		logger.Warn("Journey event already projected, stored copy unreadable", "error", err)
		return ResultDuplicate
	}

	if stored.Type != e.Type || stored.ID != e.ID {
		logger.Error("Event id already projected for a different event",
			"stored_event_type", string(stored.Type),
			"stored_source_id", stored.ID,
			"source_id", e.ID,
		)
		return ResultCollision
	}

	logger.Info("Journey event already projected, skipping")
	return ResultDuplicate
}
