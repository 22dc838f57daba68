// Package response writes the tagged JSON envelope every endpoint answers with.
package response

import (
	"MapHub-Backend/internal/domain"
	"net/http"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

// ErrorBody carries a stable kind clients can branch on.
type ErrorBody struct {
	Kind    domain.Kind `json:"kind"`
	Field   string      `json:"field,omitempty"`
	Message string      `json:"message"`
}

// StatusOf maps an error kind to its HTTP status.
func StatusOf(kind domain.Kind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindModerationRejected:
		return http.StatusUnprocessableEntity
	case domain.KindLockedOut:
		return http.StatusTooManyRequests
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindForbidden, domain.KindNeedsVerification:
		return http.StatusForbidden
	case domain.KindDependency:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// JSON writes data wrapped in a success envelope.
func JSON(w http.ResponseWriter, log *zap.Logger, status int, data interface{}) {
	write(w, log, status, Envelope{Success: true, Data: data})
}

// Error writes err as a failure envelope. Uncategorized errors are logged and
// their message is hidden from the client.
func Error(w http.ResponseWriter, log *zap.Logger, err error) {
	kind := domain.KindOf(err)
	body := &ErrorBody{Kind: kind, Field: domain.FieldOf(err), Message: err.Error()}

	switch kind {
	case domain.KindInternal:
		log.Error("request failed", zap.Error(err))
		body.Message = "internal server error"
	case domain.KindDependency:
		log.Error("dependency failed", zap.Error(err))
		body.Message = "a dependent service is unavailable"
	}

	write(w, log, StatusOf(kind), Envelope{Error: body})
}

func write(w http.ResponseWriter, log *zap.Logger, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		log.Error("failed to encode response", zap.Error(err))
	}
}
