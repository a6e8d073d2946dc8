package outbox

import (
	"encoding/json"
	"time"

	"github.com/Annalisa11/monkey/internal/domain/event"
	"github.com/Annalisa11/monkey/internal/domain/shared"
	"github.com/google/uuid"
)

// Message stores a recorded event until it has been relayed to the event stream
type Message struct {
	ID            int64               `json:"id"`
	EventID       uuid.UUID           `json:"event_id"`
	MessageKey    string              `json:"message_key"`
	Payload       json.RawMessage     `json:"payload"`
	Status        shared.OutboxStatus `json:"status"`
	Attempts      int                 `json:"attempts"`
	CreatedAt     time.Time           `json:"created_at"`
	LastAttemptAt *time.Time          `json:"last_attempt_at,omitempty"`
}

// NewMessage wraps e in a pending outbox message.
func NewMessage(e *event.Event) (*Message, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}

	return &Message{
		EventID:    e.EventID,
		MessageKey: e.Key(),
		Payload:    payload,
		Status:     shared.OutboxStatusPending,
		Attempts:   0,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// Event decodes the relayed event from the payload
func (m *Message) Event() (*event.Event, error) {
	var e event.Event
	if err := json.Unmarshal(m.Payload, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// ExhaustedAfterFailure reports whether one more failed attempt reaches maxAttempts.
func (m *Message) ExhaustedAfterFailure(maxAttempts int) bool {
	return m.Attempts+1 >= maxAttempts
}
