// Package api provides HTTP response utilities for the Baseer gateway.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/baseer-ai/baseer/internal/models"
)

// Pre-marshaled fallback responses to avoid runtime JSON encoding failures
var (
	fallbackErrorResponse []byte
)

// init validates that our fallback responses can be marshaled
func init() {
	var err error
	fallbackErrorResponse, err = json.Marshal(models.Error("Internal server error"))
	if err != nil {
		panic(fmt.Sprintf("Failed to marshal fallback error response at startup: %v", err))
	}
}

// writeJSONResponse writes a JSON response to the http.ResponseWriter with the given status code.
func writeJSONResponse(w http.ResponseWriter, statusCode int, response interface{}) {
	// Marshal the response to JSON first to catch encoding errors before writing headers
	jsonData, err := json.Marshal(response)
	if err != nil {
		slog.Error("Server.writeJSONResponse: failed to marshal JSON response", "error", err)
		// Use pre-marshaled fallback response - if this fails, we have bigger problems
		jsonData = fallbackErrorResponse
		statusCode = http.StatusInternalServerError
	}

	// Write headers and response only after successful JSON marshaling
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, writeErr := w.Write(jsonData); writeErr != nil {
		slog.Error("Server.writeJSONResponse: failed to write JSON response", "error", writeErr)
	}
}

// statusForError maps domain errors to HTTP status codes. Anything
// unrecognized is an internal error.
func statusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidInput), errors.Is(err, models.ErrNoRecipient):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrDuplicateUser):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeErrorResponse maps a domain error onto the JSON envelope. Internal
// errors get a generic message so backend details never leak to clients.
func writeErrorResponse(w http.ResponseWriter, err error) {
	status := statusForError(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "Internal server error"
	}
	writeJSONResponse(w, status, models.Error(msg))
}
