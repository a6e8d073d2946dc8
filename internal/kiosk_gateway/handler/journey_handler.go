package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/Annalisa11/monkey/internal/domain/journey"
	"github.com/Annalisa11/monkey/internal/kiosk_gateway/middleware"
	"github.com/Annalisa11/monkey/internal/kiosk_gateway/service"
	"github.com/gin-gonic/gin"
)

// JourneyHandler handles HTTP requests from the kiosks
type JourneyHandler struct {
	journeyService service.JourneyService
	logger         *slog.Logger
}

// NewJourneyHandler creates a new journey handler
func NewJourneyHandler(logger *slog.Logger, journeyService service.JourneyService) *JourneyHandler {
	return &JourneyHandler{
		journeyService: journeyService,
		logger:         logger,
	}
}

// PressButton opens a journey at the kiosk's station
func (h *JourneyHandler) PressButton(c *gin.Context) {
	kioskID, ok := h.pathID(c, middleware.KioskIDParam, "Invalid kiosk ID")
	if !ok {
		return
	}

	journeyID, err := h.journeyService.PressButton(h.requestContext(c), kioskID)
	if err != nil {
		h.respondError(c, "Failed to open journey", err)
		return
	}

	RespondCreated(c, ButtonPressResponse{JourneyID: journeyID})
}

// Navigate issues a navigation token toward the requested destination
func (h *JourneyHandler) Navigate(c *gin.Context) {
	kioskID, ok := h.pathID(c, middleware.KioskIDParam, "Invalid kiosk ID")
	if !ok {
		return
	}

	var req NavigationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid navigation request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	ticket, err := h.journeyService.IssueNavigationToken(h.requestContext(c), kioskID, req.DestinationLocationID, req.JourneyID)
	if err != nil {
		h.respondError(c, "Failed to issue navigation token", err)
		return
	}

	qrCode, err := ticket.Payload.Encode()
	if err != nil {
		h.respondError(c, "Failed to encode navigation payload", err)
		return
	}

	RespondOK(c, NavigationResponse{
		QRCode:           qrCode,
		RouteDescription: ticket.RouteDescription,
	})
}

// CheckQR verifies a token scanned at the kiosk and completes its journey
func (h *JourneyHandler) CheckQR(c *gin.Context) {
	kioskID, ok := h.pathID(c, middleware.KioskIDParam, "Invalid kiosk ID")
	if !ok {
		return
	}

	var req QRCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid qr-check request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if !journey.IsWellFormedToken(req.Token) {
		RespondBadRequest(c, "Invalid token format")
		return
	}

	err := h.journeyService.VerifyArrival(h.requestContext(c), service.ArrivalScan{
		Token:             req.Token,
		ScannedLocationID: req.DestinationID,
		ExpectedJourneyID: req.JourneyID,
		MonkeyID:          kioskID,
	})
	if err != nil {
		h.respondError(c, "Arrival verification failed", err)
		return
	}

	RespondOK(c, MessageResponse{Message: "verified"})
}

// ReturnBanana records that a visitor handed the guide banana back. The body is optional.
func (h *JourneyHandler) ReturnBanana(c *gin.Context) {
	kioskID, ok := h.pathID(c, middleware.KioskIDParam, "Invalid kiosk ID")
	if !ok {
		return
	}

	var req BananaReturnRequest
	if c.Request.Body != nil && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			h.logger.Warn("Invalid banana-return request body", "error", err)
			RespondBadRequest(c, "Invalid request body: "+err.Error())
			return
		}
	}

	if err := h.journeyService.RecordBananaReturn(h.requestContext(c), kioskID, req.JourneyID); err != nil {
		h.respondError(c, "Failed to record banana return", err)
		return
	}

	RespondCreated(c, MessageResponse{Message: "recorded"})
}

// GetJourney returns a journey's current state, 404 if not found
func (h *JourneyHandler) GetJourney(c *gin.Context) {
	journeyID, ok := h.pathID(c, "journeyId", "Invalid journey ID")
	if !ok {
		return
	}

	j, err := h.journeyService.GetJourney(h.requestContext(c), journeyID)
	if err != nil {
		h.respondError(c, "Failed to get journey", err)
		return
	}

	RespondOK(c, mapJourneyToResponse(j))
}

func (h *JourneyHandler) pathID(c *gin.Context, param, message string) (int64, bool) {
	raw := c.Param(param)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		h.logger.Warn(message, param, raw)
		RespondBadRequest(c, message)
		return 0, false
	}
	return id, true
}

func (h *JourneyHandler) requestContext(c *gin.Context) context.Context {
	return service.WithCorrelationID(c.Request.Context(), middleware.GetCorrelationID(c))
}

func (h *JourneyHandler) respondError(c *gin.Context, msg string, err error) {
	if isDomainError(err) {
		h.logger.Warn(msg, "error", err, "correlation_id", middleware.GetCorrelationID(c))
	} else {
		h.logger.Error(msg, "error", err, "correlation_id", middleware.GetCorrelationID(c))
	}
	RespondDomainError(c, err)
}

// mapJourneyToResponse maps a journey to its response DTO
func mapJourneyToResponse(j *journey.Journey) JourneyResponse {
	response := JourneyResponse{
		ID:                     j.ID,
		Status:                 string(j.Status),
		StartLocationID:        j.StartLocationID,
		RequestedDestinationID: j.RequestedDestinationID,
		RouteID:                j.RouteID,
		StartTime:              j.StartTime.Format(time.RFC3339),
	}

	if j.EndTime != nil {
		response.EndTime = j.EndTime.Format(time.RFC3339)
	}
	if j.QRGeneratedAt != nil {
		response.QRGeneratedAt = j.QRGeneratedAt.Format(time.RFC3339)
	}
	if j.QRScannedAt != nil {
		response.QRScannedAt = j.QRScannedAt.Format(time.RFC3339)
	}

	return response
}
