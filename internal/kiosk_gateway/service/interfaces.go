package service

import (
	"context"
	"time"

	"github.com/Annalisa11/monkey/internal/domain/directory"
	"github.com/Annalisa11/monkey/internal/domain/event"
	"github.com/Annalisa11/monkey/internal/domain/journey"
	"github.com/Annalisa11/monkey/internal/domain/monkey"
	"github.com/jackc/pgx/v5"
)

// JourneyService is the kiosk-facing journey lifecycle. Each call runs in
// its own database transaction.
type JourneyService interface {
	PressButton(ctx context.Context, monkeyID int64) (int64, error)
	IssueNavigationToken(ctx context.Context, monkeyID, destinationLocationID, journeyID int64) (*journey.NavigationTicket, error)
	VerifyArrival(ctx context.Context, scan ArrivalScan) error
	RecordBananaReturn(ctx context.Context, monkeyID int64, journeyID *int64) error
	GetJourney(ctx context.Context, journeyID int64) (*journey.Journey, error)
}

// ArrivalScan is what a destination kiosk reports after reading a token.
type ArrivalScan struct {
	Token             string
	ScannedLocationID int64
	ExpectedJourneyID int64
	MonkeyID          int64
}

// Issuance is the outcome of a successful token issue.
type Issuance struct {
	Ticket     journey.NavigationTicket
	Kiosk      monkey.Monkey
	Route      directory.Route
	Collisions int // regenerated tokens before one stuck
}

// Arrival is the outcome of a successful verification.
type Arrival struct {
	Journey journey.Journey
	Route   directory.Route
	Kiosk   monkey.Monkey
	// Mismatch is set when the scan named a journey other than the token owner.
	Mismatch *Reconciliation
}

// Reconciliation describes how a stray expected journey was handled.
type Reconciliation struct {
	StrayJourneyID int64
	Deleted        bool
}

// KioskResolver resolves a kiosk and its current station
type KioskResolver interface {
	Resolve(ctx context.Context, tx pgx.Tx, monkeyID int64) (*monkey.Monkey, error)
}

// JourneyLedger opens and reads journeys
type JourneyLedger interface {
	Open(ctx context.Context, tx pgx.Tx, startLocationID int64, at time.Time) (int64, error)
	Get(ctx context.Context, tx pgx.Tx, journeyID int64) (*journey.Journey, error)
}

// TokenIssuer binds a navigation token and route to a journey
type TokenIssuer interface {
	Issue(ctx context.Context, tx pgx.Tx, monkeyID, destinationLocationID, journeyID int64, at time.Time) (*Issuance, error)
}

// ArrivalVerifier completes the journey that owns a scanned token
type ArrivalVerifier interface {
	Verify(ctx context.Context, tx pgx.Tx, scan ArrivalScan, at time.Time) (*Arrival, error)
}

// EventRecorder appends an audit event and queues it for relay
type EventRecorder interface {
	Record(ctx context.Context, tx pgx.Tx, metadata event.Metadata, journeyID *int64, locationID int64, at time.Time) (*event.Event, error)
}
