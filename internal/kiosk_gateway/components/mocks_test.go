package components

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/Annalisa11/monkey/internal/domain/directory"
	"github.com/Annalisa11/monkey/internal/domain/event"
	"github.com/Annalisa11/monkey/internal/domain/journey"
	"github.com/Annalisa11/monkey/internal/domain/monkey"
	"github.com/Annalisa11/monkey/internal/domain/outbox"
	"github.com/Annalisa11/monkey/internal/domain/shared"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubTx stands in for a pgx.Tx. Savepoints opened with Begin share its counters.
type stubTx struct {
	pgx.Tx
	beginErr  error
	begins    int
	commits   int
	rollbacks int
}

func (t *stubTx) Begin(ctx context.Context) (pgx.Tx, error) {
	if t.beginErr != nil {
		return nil, t.beginErr
	}
	t.begins++
	return t, nil
}

func (t *stubTx) Commit(ctx context.Context) error {
	t.commits++
	return nil
}

func (t *stubTx) Rollback(ctx context.Context) error {
	t.rollbacks++
	return nil
}

type MockMonkeyRepo struct {
	mock.Mock
}

func (m *MockMonkeyRepo) GetByID(ctx context.Context, id int64) (*monkey.Monkey, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*monkey.Monkey), args.Error(1)
}

func (m *MockMonkeyRepo) WithTx(tx pgx.Tx) monkey.Repository {
	args := m.Called(tx)
	return args.Get(0).(monkey.Repository)
}

type MockDirectoryRepo struct {
	mock.Mock
}

func (m *MockDirectoryRepo) GetLocationByID(ctx context.Context, id int64) (*directory.Location, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directory.Location), args.Error(1)
}

func (m *MockDirectoryRepo) GetRouteBetween(ctx context.Context, sourceLocationID, destinationLocationID int64) (*directory.Route, error) {
	args := m.Called(ctx, sourceLocationID, destinationLocationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directory.Route), args.Error(1)
}

func (m *MockDirectoryRepo) WithTx(tx pgx.Tx) directory.Repository {
	args := m.Called(tx)
	return args.Get(0).(directory.Repository)
}

type MockJourneyRepo struct {
	mock.Mock
}

func (m *MockJourneyRepo) OpenJourney(ctx context.Context, startLocationID int64, startTime time.Time) (int64, error) {
	args := m.Called(ctx, startLocationID, startTime)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockJourneyRepo) GetByID(ctx context.Context, id int64) (*journey.Journey, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*journey.Journey), args.Error(1)
}

func (m *MockJourneyRepo) AttachToken(ctx context.Context, id int64, attachment journey.TokenAttachment) error {
	args := m.Called(ctx, id, attachment)
	return args.Error(0)
}

func (m *MockJourneyRepo) FindByToken(ctx context.Context, token string) (*journey.TokenBinding, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*journey.TokenBinding), args.Error(1)
}

func (m *MockJourneyRepo) CompleteIfUnscanned(ctx context.Context, id int64, token string, at time.Time) error {
	args := m.Called(ctx, id, token, at)
	return args.Error(0)
}

func (m *MockJourneyRepo) DeleteIfStarted(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockJourneyRepo) WithTx(tx pgx.Tx) journey.Repository {
	args := m.Called(tx)
	return args.Get(0).(journey.Repository)
}

type MockEventRepo struct {
	mock.Mock
}

func (m *MockEventRepo) Append(ctx context.Context, e *event.Event) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockEventRepo) WithTx(tx pgx.Tx) event.Repository {
	args := m.Called(tx)
	return args.Get(0).(event.Repository)
}

type MockOutboxRepo struct {
	mock.Mock
}

func (m *MockOutboxRepo) Create(ctx context.Context, message *outbox.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockOutboxRepo) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepo) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockOutboxRepo) IncrementAttempts(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepo) WithTx(tx pgx.Tx) outbox.Repository {
	args := m.Called(tx)
	return args.Get(0).(outbox.Repository)
}
