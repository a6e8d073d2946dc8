package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Annalisa11/monkey/internal/domain/event"
	"github.com/panjf2000/ants/v2"
)

// WorkerPoolProjectionService bounds concurrent projection writes with an ants pool.
// Project blocks until the submitted task finishes or ctx is done.
type WorkerPoolProjectionService struct {
	baseService ProjectionService
	pool        *ants.Pool
	logger      *slog.Logger
}

var _ ProjectionService = (*WorkerPoolProjectionService)(nil)

type WorkerPoolConfig struct {
	Size int
}

func NewWorkerPoolProjectionService(
	baseService ProjectionService,
	config WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolProjectionService, error) {
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, err
	}

	return &WorkerPoolProjectionService{
		baseService: baseService,
		pool:        pool,
		logger:      logger,
	}, nil
}

// Project submits e to the pool and waits for its result.
func (s *WorkerPoolProjectionService) Project(ctx context.Context, e *event.Event) error {
	if e == nil {
		return errors.New("event is required")
	}

	resultChan := make(chan error, 1)

	err := s.pool.Submit(func() {
		resultChan <- s.baseService.Project(ctx, e)
	})
	if err != nil {
		s.logger.Error("Failed to submit event to worker pool",
			"event_id", e.EventID.String(),
			"error", err,
		)
		return err
	}

	select {
	case err := <-resultChan:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown releases the pool. Later submissions fail with ants.ErrPoolClosed.
func (s *WorkerPoolProjectionService) Shutdown() {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

func (s *WorkerPoolProjectionService) Running() int {
	return s.pool.Running()
}

func (s *WorkerPoolProjectionService) Capacity() int {
	return s.pool.Cap()
}
