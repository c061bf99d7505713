package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Meta holds metadata for every API response.
type Meta struct {
	RequestID string `json:"requestId"`
	Timestamp string `json:"timestamp"`
}

// ListMeta extends Meta with list size information.
type ListMeta struct {
	Meta
	Count int `json:"count"`
	Limit int `json:"limit,omitempty"`
}

// Envelope is the success response wrapper. Data is always present, and is
// null for message-only responses.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
	Meta    any    `json:"meta"`
}

// ErrorEnvelope is the error response wrapper.
type ErrorEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
	Meta    Meta   `json:"meta"`
}

// NewMeta creates a Meta with a new UUID and current timestamp.
// If requestID is provided, it uses that instead of generating a new one.
func NewMeta(requestID string) Meta {
	if requestID == "" {
		requestID = uuid.New().String()
	}
	return Meta{
		RequestID: requestID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// JSON writes v as a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// Success writes a successful JSON response.
func Success(w http.ResponseWriter, status int, data any, requestID string) {
	JSON(w, status, Envelope{
		Success: true,
		Data:    data,
		Meta:    NewMeta(requestID),
	})
}

// SuccessList writes a successful list response with its size in meta.
func SuccessList(w http.ResponseWriter, status int, data any, count, limit int, requestID string) {
	JSON(w, status, Envelope{
		Success: true,
		Data:    data,
		Meta: ListMeta{
			Meta:  NewMeta(requestID),
			Count: count,
			Limit: limit,
		},
	})
}

// Message writes a successful response that carries only a message.
func Message(w http.ResponseWriter, status int, message string, requestID string) {
	JSON(w, status, Envelope{
		Success: true,
		Message: message,
		Meta:    NewMeta(requestID),
	})
}

// NoContent writes a 204 No Content response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Err writes an error JSON response.
func Err(w http.ResponseWriter, status int, code string, message string, requestID string) {
	JSON(w, status, ErrorEnvelope{
		Error: message,
		Code:  code,
		Meta:  NewMeta(requestID),
	})
}

// ErrWithDetails writes an error JSON response with additional details.
func ErrWithDetails(w http.ResponseWriter, status int, code string, message string, details any, requestID string) {
	JSON(w, status, ErrorEnvelope{
		Error:   message,
		Code:    code,
		Details: details,
		Meta:    NewMeta(requestID),
	})
}
