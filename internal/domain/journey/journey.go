// Package journey models one guidance episode: a visitor asks a kiosk for
// directions, receives a single-use navigation token, and completes the
// journey by scanning it at the destination kiosk.
package journey

import (
	"encoding/json"
	"time"

	"github.com/Annalisa11/monkey/internal/domain/directory"
)

// Status is the lifecycle state of a journey
type Status string

const (
	StatusStarted     Status = "started"
	StatusQRGenerated Status = "qr_generated"
	StatusCompleted   Status = "completed"
)

// CanTransitionTo reports whether moving from s to next keeps the lifecycle
// monotonic. qr_generated -> qr_generated is a token re-issue. The token
// issuer and the arrival verifier consult it before writing.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusStarted:
		return next == StatusQRGenerated
	case StatusQRGenerated:
		return next == StatusQRGenerated || next == StatusCompleted
	default:
		return false
	}
}

// Journey is the core aggregate
type Journey struct {
	ID                     int64      `json:"id"`
	StartTime              time.Time  `json:"startTime"`
	EndTime                *time.Time `json:"endTime,omitempty"`
	Status                 Status     `json:"status"`
	StartLocationID        int64      `json:"startLocationId"`
	RequestedDestinationID *int64     `json:"requestedDestinationId,omitempty"`
	RouteID                *int64     `json:"routeId,omitempty"`
	QRToken                *string    `json:"-"`
	QRGeneratedAt          *time.Time `json:"qrGeneratedAt,omitempty"`
	QRScannedAt            *time.Time `json:"qrScannedAt,omitempty"`
}

// IsScanned reports whether the journey's token has been consumed
func (j *Journey) IsScanned() bool {
	return j.QRScannedAt != nil
}

// Duration is the elapsed time from start to end, or to at when still open.
func (j *Journey) Duration(at time.Time) time.Duration {
	end := at
	if j.EndTime != nil {
		end = *j.EndTime
	}
	if end.Before(j.StartTime) {
		return 0
	}
	return end.Sub(j.StartTime)
}

// TokenBinding is a journey looked up by its token together with the route
// the token was issued for.
type TokenBinding struct {
	Journey Journey
	Route   directory.Route
}

// TokenAttachment carries the fields written when a navigation token is issued
type TokenAttachment struct {
	DestinationID int64
	RouteID       int64
	Token         string
	GeneratedAt   time.Time
}

// Payload is the data optically encoded for the visitor
type Payload struct {
	Token         string `json:"token"`
	DestinationID int64  `json:"destinationId"`
	JourneyID     int64  `json:"journeyId"`
}

// Encode renders the payload as the JSON string embedded in the scannable code.
func (p Payload) Encode() ([]byte, error) {
	return json.Marshal(p)
}

// NavigationTicket is the result of issuing a navigation token
type NavigationTicket struct {
	Payload          Payload
	RouteDescription string
}
