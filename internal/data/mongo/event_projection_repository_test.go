package mongo

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/Annalisa11/monkey/internal/domain/event"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestEventProjectionRepository_Project(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	journeyID := int64(7)
	e := event.New(event.QRGenerated{MonkeyID: 1, RouteID: 5, DestinationID: 2}, &journeyID, 1, time.Now())

	mt.Run("FirstDeliveryInserts", func(mt *mtest.T) {
		repo := NewEventProjectionRepository(newTestLogger(), mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 0},
			bson.E{Key: "upserted", Value: bson.A{bson.D{{Key: "index", Value: 0}, {Key: "_id", Value: "x"}}}},
		))

		inserted, err := repo.Project(context.Background(), e)
		require.NoError(mt, err)
		assert.True(mt, inserted)
	})

	mt.Run("RedeliveryIsNoop", func(mt *mtest.T) {
		repo := NewEventProjectionRepository(newTestLogger(), mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 0},
		))

		inserted, err := repo.Project(context.Background(), e)
		require.NoError(mt, err)
		assert.False(mt, inserted)
	})

	mt.Run("WriteError", func(mt *mtest.T) {
		repo := NewEventProjectionRepository(newTestLogger(), mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		inserted, err := repo.Project(context.Background(), e)
		require.Error(mt, err)
		assert.False(mt, inserted)
		assert.Contains(mt, err.Error(), "failed to project event")
	})

	mt.Run("MissingMetadata", func(mt *mtest.T) {
		repo := NewEventProjectionRepository(newTestLogger(), mt.DB)

		_, err := repo.Project(context.Background(), &event.Event{EventID: uuid.New(), Type: event.TypeButtonPress})
		assert.Error(mt, err)
	})
}

func TestEventProjectionRepository_GetByEventID(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	eventID := uuid.New()
	ts := time.Date(2024, 5, 1, 9, 45, 0, 0, time.UTC)

	mt.Run("Found", func(mt *mtest.T) {
		repo := NewEventProjectionRepository(newTestLogger(), mt.DB)
		ns := mt.DB.Name() + "." + EventCollectionName
		mt.AddMockResponses(mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, bson.D{
			{Key: "event_id", Value: eventID.String()},
			{Key: "source_id", Value: int64(31)},
			{Key: "journey_id", Value: int64(7)},
			{Key: "event_type", Value: "journey_completed"},
			{Key: "location_id", Value: int64(2)},
			{Key: "timestamp", Value: ts},
			{Key: "metadata", Value: bson.D{
				{Key: "monkey_id", Value: int64(2)},
				{Key: "route_id", Value: int64(5)},
				{Key: "duration_seconds", Value: 900.0},
			}},
		}))

		e, err := repo.GetByEventID(context.Background(), eventID)
		require.NoError(mt, err)
		assert.Equal(mt, eventID, e.EventID)
		assert.Equal(mt, int64(31), e.ID)
		assert.Equal(mt, int64(7), *e.JourneyID)
		assert.Equal(mt, event.JourneyCompleted{MonkeyID: 2, RouteID: 5, DurationSeconds: 900}, e.Metadata)
		assert.True(mt, ts.Equal(e.Timestamp))
	})

	mt.Run("NotFound", func(mt *mtest.T) {
		repo := NewEventProjectionRepository(newTestLogger(), mt.DB)
		ns := mt.DB.Name() + "." + EventCollectionName
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		e, err := repo.GetByEventID(context.Background(), eventID)
		assert.Nil(mt, e)
		assert.ErrorIs(mt, err, event.ErrProjectionNotFound{})
	})
}

func TestDecodeMetadata_UnknownType(t *testing.T) {
	raw, err := bson.Marshal(bson.D{{Key: "monkey_id", Value: int64(1)}})
	require.NoError(t, err)

	_, err = decodeMetadata(event.Type("firmware_update"), raw)
	assert.ErrorIs(t, err, event.ErrUnknownEventType{Type: "firmware_update"})
}

func TestToDocument_RoundTrip(t *testing.T) {
	journeyID := int64(3)
	e := event.New(event.BananaReturn{MonkeyID: 4}, &journeyID, 1, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	e.ID = 11

	doc, err := toDocument(e)
	require.NoError(t, err)
	assert.Equal(t, e.EventID.String(), doc.EventID)
	assert.Equal(t, int64(4), doc.Metadata.Lookup("monkey_id").Int64())

	back, err := fromDocument(doc)
	require.NoError(t, err)
	assert.Equal(t, e, back)
}
