package service

import (
	"context"

	"github.com/Annalisa11/monkey/internal/domain/event"
)

// ProjectionService materialises relayed journey events into the analytics read model.
type ProjectionService interface {
	Project(ctx context.Context, e *event.Event) error
}
