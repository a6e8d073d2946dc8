package components

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Annalisa11/monkey/internal/domain/directory"
	"github.com/Annalisa11/monkey/internal/domain/journey"
	"github.com/Annalisa11/monkey/internal/domain/monkey"
	"github.com/Annalisa11/monkey/internal/domain/shared"
	"github.com/Annalisa11/monkey/internal/kiosk_gateway/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	tokenA = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	tokenB = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	tokenC = "cccccccccccccccccccccccccccccccc"
)

func sequenceTokens(tokens ...string) journey.TokenGenerator {
	i := 0
	return func() (string, error) {
		token := tokens[i%len(tokens)]
		i++
		return token, nil
	}
}

type issuerFixture struct {
	monkeys   *MockMonkeyRepo
	directory *MockDirectoryRepo
	journeys  *MockJourneyRepo
	tx        *stubTx
}

func newIssuerFixture() *issuerFixture {
	f := &issuerFixture{
		monkeys:   &MockMonkeyRepo{},
		directory: &MockDirectoryRepo{},
		journeys:  &MockJourneyRepo{},
		tx:        &stubTx{},
	}
	f.monkeys.On("WithTx", mock.Anything).Return(f.monkeys)
	f.directory.On("WithTx", mock.Anything).Return(f.directory)
	f.journeys.On("WithTx", mock.Anything).Return(f.journeys)
	return f
}

func (f *issuerFixture) issuer(generate journey.TokenGenerator, maxAttempts int) service.TokenIssuer {
	logger := newTestLogger()
	return NewTokenIssuer(NewKioskResolver(f.monkeys, logger), f.directory, f.journeys, generate, maxAttempts, nil, logger)
}

// lobbyKiosk is stationed at Lobby(1) with a route to Optometrist(2).
func (f *issuerFixture) lobbyKiosk(j *journey.Journey) {
	f.monkeys.On("GetByID", mock.Anything, int64(1)).Return(&monkey.Monkey{ID: 1, Name: "K1", LocationID: 1, IsActive: true}, nil)
	f.directory.On("GetLocationByID", mock.Anything, int64(2)).Return(&directory.Location{ID: 2, Name: "Optometrist"}, nil)
	f.journeys.On("GetByID", mock.Anything, j.ID).Return(j, nil)
	f.directory.On("GetRouteBetween", mock.Anything, int64(1), int64(2)).Return(&directory.Route{
		ID:                    10,
		SourceLocationID:      1,
		DestinationLocationID: 2,
		Description:           "go past reception, take stairs up",
		IsAccessible:          true,
	}, nil)
}

func TestTokenIssuer_Issue(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("BindsTokenAndRoute", func(t *testing.T) {
		f := newIssuerFixture()
		f.lobbyKiosk(&journey.Journey{ID: 41, Status: journey.StatusStarted, StartLocationID: 1, StartTime: at})
		f.journeys.On("AttachToken", mock.Anything, int64(41), journey.TokenAttachment{
			DestinationID: 2,
			RouteID:       10,
			Token:         tokenA,
			GeneratedAt:   at,
		}).Return(nil).Once()

		issuance, err := f.issuer(sequenceTokens(tokenA), 3).Issue(ctx, f.tx, 1, 2, 41, at)
		require.NoError(t, err)

		assert.Equal(t, journey.Payload{Token: tokenA, DestinationID: 2, JourneyID: 41}, issuance.Ticket.Payload)
		assert.Equal(t, "go past reception, take stairs up", issuance.Ticket.RouteDescription)
		assert.Equal(t, int64(10), issuance.Route.ID)
		assert.Equal(t, int64(1), issuance.Kiosk.ID)
		assert.Zero(t, issuance.Collisions)
		assert.Equal(t, 1, f.tx.begins)
		assert.Equal(t, 1, f.tx.commits)
		assert.Zero(t, f.tx.rollbacks)
		f.journeys.AssertExpectations(t)
	})

	t.Run("RegeneratesAfterCollision", func(t *testing.T) {
		f := newIssuerFixture()
		f.lobbyKiosk(&journey.Journey{ID: 41, Status: journey.StatusStarted, StartLocationID: 1})
		f.journeys.On("AttachToken", mock.Anything, int64(41), mock.MatchedBy(func(a journey.TokenAttachment) bool {
			return a.Token == tokenA
		})).Return(journey.ErrDuplicateToken{}).Once()
		f.journeys.On("AttachToken", mock.Anything, int64(41), mock.MatchedBy(func(a journey.TokenAttachment) bool {
			return a.Token == tokenB
		})).Return(nil).Once()

		issuance, err := f.issuer(sequenceTokens(tokenA, tokenB), 3).Issue(ctx, f.tx, 1, 2, 41, at)
		require.NoError(t, err)

		assert.Equal(t, tokenB, issuance.Ticket.Payload.Token)
		assert.Equal(t, 1, issuance.Collisions)
		assert.Equal(t, 2, f.tx.begins)
		assert.Equal(t, 1, f.tx.rollbacks)
		assert.Equal(t, 1, f.tx.commits)
	})

	t.Run("GivesUpAfterMaxAttempts", func(t *testing.T) {
		f := newIssuerFixture()
		f.lobbyKiosk(&journey.Journey{ID: 41, Status: journey.StatusStarted, StartLocationID: 1})
		f.journeys.On("AttachToken", mock.Anything, int64(41), mock.Anything).Return(journey.ErrDuplicateToken{})

		_, err := f.issuer(sequenceTokens(tokenA, tokenB, tokenC), 3).Issue(ctx, f.tx, 1, 2, 41, at)
		require.Error(t, err)

		var exhausted journey.ErrTokenGenerationExhausted
		require.ErrorAs(t, err, &exhausted)
		assert.Equal(t, 3, exhausted.Attempts)
		assert.NotErrorIs(t, err, shared.ErrNotFound)
		assert.NotErrorIs(t, err, shared.ErrConflict)
		assert.NotErrorIs(t, err, shared.ErrSemantic)
		f.journeys.AssertNumberOfCalls(t, "AttachToken", 3)
		assert.Equal(t, 3, f.tx.rollbacks)
	})

	t.Run("StorageErrorIsNotRetried", func(t *testing.T) {
		f := newIssuerFixture()
		dbErr := errors.New("deadlock detected")
		f.lobbyKiosk(&journey.Journey{ID: 41, Status: journey.StatusStarted, StartLocationID: 1})
		f.journeys.On("AttachToken", mock.Anything, int64(41), mock.Anything).Return(dbErr)

		_, err := f.issuer(sequenceTokens(tokenA), 3).Issue(ctx, f.tx, 1, 2, 41, at)
		assert.ErrorIs(t, err, dbErr)
		f.journeys.AssertNumberOfCalls(t, "AttachToken", 1)
		assert.Equal(t, 1, f.tx.rollbacks)
	})

	t.Run("SavepointFailure", func(t *testing.T) {
		f := newIssuerFixture()
		f.tx.beginErr = errors.New("conn busy")
		f.lobbyKiosk(&journey.Journey{ID: 41, Status: journey.StatusStarted, StartLocationID: 1})

		_, err := f.issuer(sequenceTokens(tokenA), 3).Issue(ctx, f.tx, 1, 2, 41, at)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create savepoint")
		f.journeys.AssertNotCalled(t, "AttachToken", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ReissueOnQRGeneratedOverwritesToken", func(t *testing.T) {
		f := newIssuerFixture()
		previous := tokenA
		f.lobbyKiosk(&journey.Journey{ID: 41, Status: journey.StatusQRGenerated, StartLocationID: 1, QRToken: &previous})
		f.journeys.On("AttachToken", mock.Anything, int64(41), mock.MatchedBy(func(a journey.TokenAttachment) bool {
			return a.Token == tokenB
		})).Return(nil).Once()

		issuance, err := f.issuer(sequenceTokens(tokenB), 3).Issue(ctx, f.tx, 1, 2, 41, at)
		require.NoError(t, err)
		assert.Equal(t, tokenB, issuance.Ticket.Payload.Token)
	})

	t.Run("ReissueOnCompletedRejected", func(t *testing.T) {
		f := newIssuerFixture()
		f.lobbyKiosk(&journey.Journey{ID: 41, Status: journey.StatusCompleted, StartLocationID: 1})

		_, err := f.issuer(sequenceTokens(tokenB), 3).Issue(ctx, f.tx, 1, 2, 41, at)
		assert.ErrorIs(t, err, journey.ErrJourneyAlreadyCompleted{JourneyID: 41})
		assert.ErrorIs(t, err, shared.ErrSemantic)
		f.journeys.AssertNotCalled(t, "AttachToken", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("UnknownStatusRejected", func(t *testing.T) {
		f := newIssuerFixture()
		f.lobbyKiosk(&journey.Journey{ID: 41, Status: journey.Status("archived"), StartLocationID: 1})

		_, err := f.issuer(sequenceTokens(tokenB), 3).Issue(ctx, f.tx, 1, 2, 41, at)
		assert.ErrorIs(t, err, shared.ErrSemantic)
		f.journeys.AssertNotCalled(t, "AttachToken", mock.Anything, mock.Anything, mock.Anything)
		assert.Zero(t, f.tx.begins)
	})

	t.Run("CompletedBetweenReadAndWrite", func(t *testing.T) {
		f := newIssuerFixture()
		f.lobbyKiosk(&journey.Journey{ID: 41, Status: journey.StatusQRGenerated, StartLocationID: 1})
		f.journeys.On("AttachToken", mock.Anything, int64(41), mock.Anything).Return(journey.ErrJourneyAlreadyCompleted{JourneyID: 41})

		_, err := f.issuer(sequenceTokens(tokenB), 3).Issue(ctx, f.tx, 1, 2, 41, at)
		assert.ErrorIs(t, err, shared.ErrSemantic)
		f.journeys.AssertNumberOfCalls(t, "AttachToken", 1)
	})

	t.Run("JourneyStartedElsewhere", func(t *testing.T) {
		f := newIssuerFixture()
		f.lobbyKiosk(&journey.Journey{ID: 41, Status: journey.StatusStarted, StartLocationID: 3})

		_, err := f.issuer(sequenceTokens(tokenA), 3).Issue(ctx, f.tx, 1, 2, 41, at)
		var mismatch journey.ErrStartLocationMismatch
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, int64(3), mismatch.StartLocationID)
		assert.Equal(t, int64(1), mismatch.KioskLocationID)
		f.journeys.AssertNotCalled(t, "AttachToken", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestTokenIssuer_LookupFailures(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		setup func(f *issuerFixture)
		want  error
	}{
		{
			name: "UnknownKiosk",
			setup: func(f *issuerFixture) {
				f.monkeys.On("GetByID", mock.Anything, int64(1)).Return(nil, monkey.ErrMonkeyNotFound{MonkeyID: 1})
			},
			want: monkey.ErrMonkeyNotFound{MonkeyID: 1},
		},
		{
			name: "UnknownDestination",
			setup: func(f *issuerFixture) {
				f.monkeys.On("GetByID", mock.Anything, int64(1)).Return(&monkey.Monkey{ID: 1, LocationID: 1}, nil)
				f.directory.On("GetLocationByID", mock.Anything, int64(4)).Return(nil, directory.ErrLocationNotFound{LocationID: 4})
			},
			want: directory.ErrLocationNotFound{LocationID: 4},
		},
		{
			name: "UnknownJourney",
			setup: func(f *issuerFixture) {
				f.monkeys.On("GetByID", mock.Anything, int64(1)).Return(&monkey.Monkey{ID: 1, LocationID: 1}, nil)
				f.directory.On("GetLocationByID", mock.Anything, int64(4)).Return(&directory.Location{ID: 4, Name: "Emergency Room"}, nil)
				f.journeys.On("GetByID", mock.Anything, int64(43)).Return(nil, journey.ErrJourneyNotFound{JourneyID: 43})
			},
			want: journey.ErrJourneyNotFound{JourneyID: 43},
		},
		{
			name: "NoRouteToDestination",
			setup: func(f *issuerFixture) {
				f.monkeys.On("GetByID", mock.Anything, int64(1)).Return(&monkey.Monkey{ID: 1, LocationID: 1}, nil)
				f.directory.On("GetLocationByID", mock.Anything, int64(4)).Return(&directory.Location{ID: 4, Name: "Emergency Room"}, nil)
				f.journeys.On("GetByID", mock.Anything, int64(43)).Return(&journey.Journey{ID: 43, Status: journey.StatusStarted, StartLocationID: 1}, nil)
				f.directory.On("GetRouteBetween", mock.Anything, int64(1), int64(4)).Return(nil, directory.ErrRouteNotFound{SourceLocationID: 1, DestinationLocationID: 4})
			},
			want: directory.ErrRouteNotFound{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newIssuerFixture()
			tt.setup(f)

			_, err := f.issuer(sequenceTokens(tokenA), 3).Issue(ctx, f.tx, 1, 4, 43, at)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, shared.ErrNotFound)
			f.journeys.AssertNotCalled(t, "AttachToken", mock.Anything, mock.Anything, mock.Anything)
			assert.Zero(t, f.tx.begins)
		})
	}
}
