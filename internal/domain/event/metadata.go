package event

import (
	"encoding/json"
	"fmt"
)

// Metadata is the typed payload of an event. Each variant belongs to exactly one Type.
type Metadata interface {
	EventType() Type
}

// ButtonPress is recorded when a visitor presses a kiosk's button and a journey opens.
type ButtonPress struct {
	MonkeyID int64 `json:"monkeyId" bson:"monkey_id"`
}

func (ButtonPress) EventType() Type { return TypeButtonPress }

// QRGenerated is recorded when a navigation token is issued.
type QRGenerated struct {
	MonkeyID      int64 `json:"monkeyId" bson:"monkey_id"`
	RouteID       int64 `json:"routeId" bson:"route_id"`
	DestinationID int64 `json:"destinationId" bson:"destination_id"`
}

func (QRGenerated) EventType() Type { return TypeQRGenerated }

// JourneyCompleted is recorded when a destination kiosk verifies the token.
type JourneyCompleted struct {
	MonkeyID        int64   `json:"monkeyId" bson:"monkey_id"`
	RouteID         int64   `json:"routeId" bson:"route_id"`
	DurationSeconds float64 `json:"durationSeconds" bson:"duration_seconds"`
}

func (JourneyCompleted) EventType() Type { return TypeJourneyCompleted }

// BananaReturn is recorded when a visitor hands the guide banana back to a kiosk.
type BananaReturn struct {
	MonkeyID int64 `json:"monkeyId" bson:"monkey_id"`
}

func (BananaReturn) EventType() Type { return TypeBananaReturn }

// ErrUnknownEventType is returned when decoding metadata for an unsupported type
type ErrUnknownEventType struct {
	Type Type
}

func (e ErrUnknownEventType) Error() string {
	return fmt.Sprintf("unknown event type: %q", string(e.Type))
}

// EncodeMetadata serializes a metadata variant.
func EncodeMetadata(m Metadata) (json.RawMessage, error) {
	if m == nil {
		return nil, fmt.Errorf("event metadata is required")
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s metadata: %w", m.EventType(), err)
	}
	return raw, nil
}

// DecodeMetadata parses raw into the variant selected by t.
func DecodeMetadata(t Type, raw json.RawMessage) (Metadata, error) {
	var (
		m   Metadata
		err error
	)
	switch t {
	case TypeButtonPress:
		var v ButtonPress
		err = unmarshalMetadata(raw, &v)
		m = v
	case TypeQRGenerated:
		var v QRGenerated
		err = unmarshalMetadata(raw, &v)
		m = v
	case TypeJourneyCompleted:
		var v JourneyCompleted
		err = unmarshalMetadata(raw, &v)
		m = v
	case TypeBananaReturn:
		var v BananaReturn
		err = unmarshalMetadata(raw, &v)
		m = v
	default:
		return nil, ErrUnknownEventType{Type: t}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s metadata: %w", t, err)
	}
	return m, nil
}

func unmarshalMetadata(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}
