package api

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"
)

// ErrorResponse defines the structure of an error response
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Error represents an API error
type Error struct {
	Message    string
	StatusCode int
	Code       string
}

// Error implements the error interface
func (e *Error) Error() string {
	return e.Message
}

// The error taxonomy of this API. Validation failures carry a per-case
// message through NewValidationError; everything else maps onto one of
// these.
var (
	ErrInvalidRequest        = &Error{Message: "Invalid request", StatusCode: http.StatusBadRequest, Code: "INVALID_REQUEST"}
	ErrNotFound              = &Error{Message: "Resource not found", StatusCode: http.StatusNotFound, Code: "NOT_FOUND"}
	ErrDuplicateRegistration = &Error{Message: "A vehicle with this registration already exists", StatusCode: http.StatusConflict, Code: "DUPLICATE_REGISTRATION"}
	ErrInternalServer        = &Error{Message: "Internal server error", StatusCode: http.StatusInternalServerError, Code: "INTERNAL_ERROR"}
	ErrServiceUnavailable    = &Error{Message: "Service unavailable", StatusCode: http.StatusServiceUnavailable, Code: "SERVICE_UNAVAILABLE"}
)

// WriteError writes an error response
func WriteError(w http.ResponseWriter, err error) {
	var apiError *Error
	if errors.As(err, &apiError) {
		writeJSONResponse(w, apiError.StatusCode, ErrorResponse{
			Message: apiError.Message,
			Code:    apiError.Code,
		})
		return
	}

	// Log unknown errors
	logrus.WithError(err).Error("Unhandled error")
	writeJSONResponse(w, http.StatusInternalServerError, ErrorResponse{
		Message: "Internal server error",
		Code:    "INTERNAL_ERROR",
	})
}

// NewValidationError creates a new validation error with a custom message
func NewValidationError(message string) *Error {
	return &Error{
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Code:       "VALIDATION_ERROR",
	}
}
