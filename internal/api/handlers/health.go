package handlers

import (
	"context"
	"net/http"

	"github.com/wonny/mfrank/pkg/database"
	"github.com/wonny/mfrank/pkg/logger"
)

// HealthChecker reports backing store health
type HealthChecker interface {
	HealthCheck(ctx context.Context) (*database.HealthStatus, error)
}

// HealthHandler serves liveness and store health
type HealthHandler struct {
	db     HealthChecker // nil for embedded stores
	store  string
	logger *logger.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db HealthChecker, storeDriver string, log *logger.Logger) *HealthHandler {
	return &HealthHandler{db: db, store: storeDriver, logger: log}
}

// Health returns service status
// GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"status":  "ok",
		"service": "mfrank-api",
		"store":   h.store,
	}

	if h.db == nil {
		respondJSON(w, http.StatusOK, body)
		return
	}

	status, err := h.db.HealthCheck(r.Context())
	body["database"] = status
	if err != nil {
		h.logger.WithError(err).Warn("Database health check failed")
		body["status"] = "degraded"
		respondJSON(w, http.StatusServiceUnavailable, body)
		return
	}
	respondJSON(w, http.StatusOK, body)
}
