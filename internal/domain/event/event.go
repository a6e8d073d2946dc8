// Package event defines the append-only audit events emitted by the journey
// engine and consumed by analytics.
package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Type identifies an event and selects its metadata variant
type Type string

const (
	TypeButtonPress      Type = "button_press"
	TypeQRGenerated      Type = "qr_generated"
	TypeJourneyCompleted Type = "journey_completed"
	TypeBananaReturn     Type = "banana_return"
)

// Event is an immutable audit record
type Event struct {
	ID         int64
	EventID    uuid.UUID
	JourneyID  *int64
	Type       Type
	LocationID int64
	Timestamp  time.Time
	Metadata   Metadata
}

// New builds an event whose type is taken from its metadata variant.
func New(metadata Metadata, journeyID *int64, locationID int64, timestamp time.Time) *Event {
	return &Event{
		EventID:    uuid.New(),
		JourneyID:  journeyID,
		Type:       metadata.EventType(),
		LocationID: locationID,
		Timestamp:  timestamp.UTC(),
		Metadata:   metadata,
	}
}

// Key is the partitioning key used when the event is relayed: events of one
// journey stay ordered, journey-less events spread by their own id.
func (e *Event) Key() string {
	if e.JourneyID != nil {
		return fmt.Sprintf("journey-%d", *e.JourneyID)
	}
	return e.EventID.String()
}

type wireEvent struct {
	ID         int64           `json:"id,omitempty"`
	EventID    uuid.UUID       `json:"eventId"`
	JourneyID  *int64          `json:"journeyId,omitempty"`
	Type       Type            `json:"eventType"`
	LocationID int64           `json:"locationId"`
	Timestamp  time.Time       `json:"timestamp"`
	Metadata   json.RawMessage `json:"metadata"`
}

// MarshalJSON writes the metadata variant under "metadata".
func (e Event) MarshalJSON() ([]byte, error) {
	metadata, err := EncodeMetadata(e.Metadata)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireEvent{
		ID:         e.ID,
		EventID:    e.EventID,
		JourneyID:  e.JourneyID,
		Type:       e.Type,
		LocationID: e.LocationID,
		Timestamp:  e.Timestamp,
		Metadata:   metadata,
	})
}

// UnmarshalJSON decodes the metadata variant selected by "eventType".
func (e *Event) UnmarshalJSON(data []byte) error {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	metadata, err := DecodeMetadata(w.Type, w.Metadata)
	if err != nil {
		return err
	}
	*e = Event{
		ID:         w.ID,
		EventID:    w.EventID,
		JourneyID:  w.JourneyID,
		Type:       w.Type,
		LocationID: w.LocationID,
		Timestamp:  w.Timestamp,
		Metadata:   metadata,
	}
	return nil
}

// Repository appends events. There is no read path in the engine.
type Repository interface {
	Append(ctx context.Context, e *Event) error
	WithTx(tx pgx.Tx) Repository
}
