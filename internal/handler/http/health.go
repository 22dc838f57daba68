package http

import (
	"MapHub-Backend/internal/handler/response"
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Pinger checks that a backing service answers.
type Pinger func(ctx context.Context) error

// HealthHandler обработчик health checks
type HealthHandler struct {
	ping    Pinger
	version string
	started time.Time
	log     *zap.Logger
}

// NewHealthHandler создает новый health handler. A nil ping reports the
// database as healthy.
func NewHealthHandler(ping Pinger, version string, log *zap.Logger) *HealthHandler {
	return &HealthHandler{
		ping:    ping,
		version: version,
		started: time.Now(),
		log:     log,
	}
}

// HealthResponse структура ответа health check
type HealthResponse struct {
	Status         string    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
	Version        string    `json:"version"`
	DatabaseStatus string    `json:"database_status"`
	Uptime         string    `json:"uptime,omitempty"`
}

// Health основной health check endpoint
//
//	@Summary	Health check
//	@Tags		System
//	@Produce	json
//	@Success	200	{object}	response.Envelope{data=HealthResponse}	"Service is healthy"
//	@Failure	503	{object}	response.Envelope{data=HealthResponse}	"Database is unreachable"
//	@Router		/health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if h.ping != nil {
		if err := h.ping(ctx); err != nil {
			dbStatus = "unhealthy"
			h.log.Error("database health check failed", zap.Error(err))
		}
	}

	status := "healthy"
	statusCode := http.StatusOK
	if dbStatus == "unhealthy" {
		status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	response.JSON(w, h.log, statusCode, HealthResponse{
		Status:         status,
		Timestamp:      time.Now(),
		Version:        h.version,
		DatabaseStatus: dbStatus,
		Uptime:         time.Since(h.started).String(),
	})
}

// Ready readiness probe endpoint
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, h.log, http.StatusOK, map[string]interface{}{
		"status":    "ready",
		"timestamp": time.Now(),
	})
}
