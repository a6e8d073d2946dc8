package handler

import (
	"errors"
	"net/http"

	"github.com/Annalisa11/monkey/internal/domain/shared"
	"github.com/Annalisa11/monkey/internal/kiosk_gateway/middleware"
	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error         *ErrorInfo `json:"error"`
	CorrelationID string     `json:"correlation_id,omitempty"`
}

// ErrorInfo represents error information in a response
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewErrorResponse creates a new error response
func NewErrorResponse(code, message string) *ErrorResponse {
	return &ErrorResponse{
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	}
}

// RespondOK sends a 200 OK response. Success bodies are not enveloped.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// RespondCreated sends a 201 Created response
func RespondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// RespondWithError sends a JSON response with an error
func RespondWithError(c *gin.Context, statusCode int, code, message string) {
	response := NewErrorResponse(code, message)
	response.CorrelationID = middleware.GetCorrelationID(c)
	c.JSON(statusCode, response)
}

// RespondBadRequest sends a 400 Bad Request response with an error
func RespondBadRequest(c *gin.Context, message string) {
	RespondWithError(c, http.StatusBadRequest, "BAD_REQUEST", message)
}

// RespondNotFound sends a 404 Not Found response with an error
func RespondNotFound(c *gin.Context, message string) {
	if message == "" {
		message = "Resource not found"
	}
	RespondWithError(c, http.StatusNotFound, "NOT_FOUND", message)
}

// RespondConflict sends a 409 Conflict response with an error
func RespondConflict(c *gin.Context, message string) {
	RespondWithError(c, http.StatusConflict, "CONFLICT", message)
}

// RespondUnprocessable sends a 422 Unprocessable Entity response with an error
func RespondUnprocessable(c *gin.Context, message string) {
	RespondWithError(c, http.StatusUnprocessableEntity, "UNPROCESSABLE_ENTITY", message)
}

// RespondInternalError sends a 500 Internal Server Error response with an error
func RespondInternalError(c *gin.Context) {
	RespondWithError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "An internal server error occurred")
}

// RespondDomainError maps err's kind to its status code. Storage and other
// unclassified errors never leak their message.
func RespondDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		RespondNotFound(c, err.Error())
	case errors.Is(err, shared.ErrConflict):
		RespondConflict(c, err.Error())
	case errors.Is(err, shared.ErrSemantic):
		RespondUnprocessable(c, err.Error())
	default:
		RespondInternalError(c)
	}
}

// isDomainError reports whether err carries one of the client-facing kinds
func isDomainError(err error) bool {
	return errors.Is(err, shared.ErrNotFound) || errors.Is(err, shared.ErrConflict) || errors.Is(err, shared.ErrSemantic)
}
