package event

import (
	"context"

	"github.com/google/uuid"
)

// ProjectionRepository maintains the analytics read model of relayed events.
type ProjectionRepository interface {
	// Project stores e once. It reports false when the event was already projected.
	Project(ctx context.Context, e *Event) (bool, error)
	// GetByEventID reads back a projected event. It returns ErrProjectionNotFound when absent.
	GetByEventID(ctx context.Context, eventID uuid.UUID) (*Event, error)
}

// ErrProjectionNotFound indicates the event has not been projected
type ErrProjectionNotFound struct {
	EventID uuid.UUID
}

func (e ErrProjectionNotFound) Error() string {
	return "projected event not found: " + e.EventID.String()
}

func (e ErrProjectionNotFound) Is(target error) bool {
	t, ok := target.(ErrProjectionNotFound)
	if !ok {
		return false
	}
	return t.EventID == uuid.Nil || t.EventID == e.EventID
}
