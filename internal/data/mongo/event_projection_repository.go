package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Annalisa11/monkey/internal/domain/event"
)

const (
	// EventCollectionName is the name of the projected journey event collection in MongoDB
	EventCollectionName = "journey_events"
)

// eventDocument is the stored shape of a projected event. Metadata keeps the
// variant's own bson field names.
type eventDocument struct {
	EventID     string     `bson:"event_id"`
	SourceID    int64      `bson:"source_id"`
	JourneyID   *int64     `bson:"journey_id,omitempty"`
	Type        event.Type `bson:"event_type"`
	LocationID  int64      `bson:"location_id"`
	Timestamp   time.Time  `bson:"timestamp"`
	Metadata    bson.Raw   `bson:"metadata"`
	ProjectedAt time.Time  `bson:"projected_at"`
}

var _ event.ProjectionRepository = (*EventProjectionRepository)(nil)

// EventProjectionRepository implements the event.ProjectionRepository interface for MongoDB
type EventProjectionRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewEventProjectionRepository creates a new MongoDB projection repository
func NewEventProjectionRepository(logger *slog.Logger, db *mongo.Database) *EventProjectionRepository {
	return &EventProjectionRepository{
		db:     db,
		logger: logger,
	}
}

// EnsureIndexes creates the unique event_id index the upsert relies on and
// the journey_id index analytics queries read timelines through.
func (r *EventProjectionRepository) EnsureIndexes(ctx context.Context) error {
	collection := r.db.Collection(EventCollectionName)

	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "event_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_event_id"),
		},
		{
			Keys:    bson.D{{Key: "journey_id", Value: 1}, {Key: "timestamp", Value: 1}},
			Options: options.Index().SetName("journey_timeline"),
		},
	})
	if err != nil {
		r.logger.Error("Failed to create projection indexes", "error", err)
		return fmt.Errorf("failed to create projection indexes: %w", err)
	}

	return nil
}

// Project inserts the event unless a document with the same event_id exists.
// Redelivered Kafka messages therefore leave the projection unchanged.
func (r *EventProjectionRepository) Project(ctx context.Context, e *event.Event) (bool, error) {
	doc, err := toDocument(e)
	if err != nil {
		return false, err
	}

	collection := r.db.Collection(EventCollectionName)
	filter := bson.M{"event_id": doc.EventID}
	update := bson.M{"$setOnInsert": doc}

	result, err := collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		r.logger.Error("Failed to project event",
			"event_id", doc.EventID,
			"event_type", string(doc.Type),
			"error", err)
		return false, fmt.Errorf("failed to project event: %w", err)
	}

	return result.UpsertedCount > 0, nil
}

// GetByEventID retrieves a projected event by its event ID.
func (r *EventProjectionRepository) GetByEventID(ctx context.Context, eventID uuid.UUID) (*event.Event, error) {
	collection := r.db.Collection(EventCollectionName)

	var doc eventDocument
	err := collection.FindOne(ctx, bson.M{"event_id": eventID.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, event.ErrProjectionNotFound{EventID: eventID}
		}
		r.logger.Error("Failed to get projected event",
			"event_id", eventID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get projected event: %w", err)
	}

	return fromDocument(&doc)
}

func toDocument(e *event.Event) (*eventDocument, error) {
	if e.Metadata == nil {
		return nil, fmt.Errorf("event %s has no metadata", e.EventID)
	}
	metadata, err := bson.Marshal(e.Metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s metadata: %w", e.Type, err)
	}

	return &eventDocument{
		EventID:     e.EventID.String(),
		SourceID:    e.ID,
		JourneyID:   e.JourneyID,
		Type:        e.Type,
		LocationID:  e.LocationID,
		Timestamp:   e.Timestamp.UTC(),
		Metadata:    metadata,
		ProjectedAt: time.Now().UTC(),
	}, nil
}

func fromDocument(doc *eventDocument) (*event.Event, error) {
	eventID, err := uuid.Parse(doc.EventID)
	if err != nil {
		return nil, fmt.Errorf("invalid projected event id %q: %w", doc.EventID, err)
	}
	metadata, err := decodeMetadata(doc.Type, doc.Metadata)
	if err != nil {
		return nil, err
	}

	return &event.Event{
		ID:         doc.SourceID,
		EventID:    eventID,
		JourneyID:  doc.JourneyID,
		Type:       doc.Type,
		LocationID: doc.LocationID,
		Timestamp:  doc.Timestamp.UTC(),
		Metadata:   metadata,
	}, nil
}

func decodeMetadata(t event.Type, raw bson.Raw) (event.Metadata, error) {
	var (
		m   event.Metadata
		err error
	)
	switch t {
	case event.TypeButtonPress:
		var v event.ButtonPress
		err = bson.Unmarshal(raw, &v)
		m = v
	case event.TypeQRGenerated:
		var v event.QRGenerated
		err = bson.Unmarshal(raw, &v)
		m = v
	case event.TypeJourneyCompleted:
		var v event.JourneyCompleted
		err = bson.Unmarshal(raw, &v)
		m = v
	case event.TypeBananaReturn:
		var v event.BananaReturn
		err = bson.Unmarshal(raw, &v)
		m = v
	default:
		return nil, event.ErrUnknownEventType{Type: t}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s metadata: %w", t, err)
	}
	return m, nil
}
