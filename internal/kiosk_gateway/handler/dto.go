package handler

import "encoding/json"

// NavigationRequest asks for a navigation token toward a destination
type NavigationRequest struct {
	DestinationLocationID int64 `json:"destinationLocationId" binding:"required,gt=0"`
	JourneyID             int64 `json:"journeyId" binding:"required,gt=0"`
}

// QRCheckRequest is the payload a destination kiosk read from the visitor's code
type QRCheckRequest struct {
	Token         string `json:"token" binding:"required,len=32"`
	DestinationID int64  `json:"destinationId" binding:"required,gt=0"`
	JourneyID     int64  `json:"journeyId" binding:"required,gt=0"`
}

// BananaReturnRequest optionally names the journey the banana belonged to
type BananaReturnRequest struct {
	JourneyID *int64 `json:"journeyId" binding:"omitempty,gt=0"`
}

// ButtonPressResponse carries the id of the journey a button press opened
type ButtonPressResponse struct {
	JourneyID int64 `json:"journeyId"`
}

// NavigationResponse is returned when a navigation token was issued
// QRCode is the encoded journey.Payload, passed through unchanged so the
// kiosk renders exactly what the destination kiosk will read back.
type NavigationResponse struct {
	QRCode           json.RawMessage `json:"qrCode"`
	RouteDescription string          `json:"routeDescription"`
}

// MessageResponse is a plain acknowledgement
type MessageResponse struct {
	Message string `json:"message"`
}

// JourneyResponse represents a journey in API responses. The token is never exposed.
type JourneyResponse struct {
	ID                     int64  `json:"id"`
	Status                 string `json:"status"`
	StartLocationID        int64  `json:"startLocationId"`
	RequestedDestinationID *int64 `json:"requestedDestinationId,omitempty"`
	RouteID                *int64 `json:"routeId,omitempty"`
	StartTime              string `json:"startTime"`
	EndTime                string `json:"endTime,omitempty"`
	QRGeneratedAt          string `json:"qrGeneratedAt,omitempty"`
	QRScannedAt            string `json:"qrScannedAt,omitempty"`
}
