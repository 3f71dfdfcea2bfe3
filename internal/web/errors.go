package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/raphcvrt/Anti-Virus/internal/client"
	"github.com/raphcvrt/Anti-Virus/internal/dashboard"
)

// APIError represents an API error
type APIError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError creates a new API error
func NewAPIError(message string, status int) *APIError {
	return &APIError{
		Status:  status,
		Message: message,
	}
}

// FromError maps a dashboard or client error to an HTTP status. The message
// is the one shown to the user.
func FromError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	msg := client.MessageOf(err)
	switch {
	case errors.Is(err, dashboard.ErrUnknownAction):
		return NewAPIError(err.Error(), http.StatusNotFound)
	case errors.Is(err, dashboard.ErrUploadInFlight):
		return NewAPIError(err.Error(), http.StatusConflict)
	case errors.Is(err, dashboard.ErrCancelled):
		return NewAPIError(err.Error(), http.StatusConflict)
	}

	switch client.KindOf(err) {
	case client.ValidationFailure:
		return NewAPIError(msg, http.StatusBadRequest)
	case client.BackendFailure:
		return NewAPIError(msg, http.StatusBadGateway)
	case client.NetworkFailure:
		return NewAPIError(msg, http.StatusServiceUnavailable)
	}
	return NewAPIError(msg, http.StatusInternalServerError)
}

// SendErrorResponse sends an error response
func SendErrorResponse(w http.ResponseWriter, err *APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Status)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   "error",
		"message": err.Message,
	})
}

// SendSuccessResponse sends a success response
func SendSuccessResponse(w http.ResponseWriter, data any) {
	SendSuccessResponseWithMessage(w, "", data)
}

// SendSuccessResponseWithMessage sends a success response with a message
func SendSuccessResponseWithMessage(w http.ResponseWriter, message string, data any) {
	body := map[string]any{
		"status": "success",
		"data":   data,
	}
	if message != "" {
		body["message"] = message
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(body)
}
