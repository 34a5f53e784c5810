package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/wonny/mfrank/internal/refresh"
	"github.com/wonny/mfrank/pkg/logger"
)

// RefreshTrigger starts background refresh runs
type RefreshTrigger interface {
	Trigger(limit int) (string, error)
	Running() (string, bool)
	Runs() []refresh.RunReport
}

// RefreshHandler handles refresh endpoints
// ⭐ SSOT: 갱신 API 핸들러는 이 구조체에서만
type RefreshHandler struct {
	refresher    RefreshTrigger
	defaultLimit int
	logger       *logger.Logger
}

// NewRefreshHandler creates a new refresh handler
func NewRefreshHandler(refresher RefreshTrigger, defaultLimit int, log *logger.Logger) *RefreshHandler {
	return &RefreshHandler{
		refresher:    refresher,
		defaultLimit: defaultLimit,
		logger:       log,
	}
}

// RefreshResponse is returned when a run is accepted
type RefreshResponse struct {
	Message string `json:"message"`
	RunID   string `json:"run_id"`
	Limit   int    `json:"limit"`
}

// Trigger starts a refresh in the background and returns immediately
// GET /refresh?limit=N
func (h *RefreshHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit", h.defaultLimit)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid 'limit' (expected integer)")
		return
	}
	if limit <= 0 {
		limit = h.defaultLimit
	}

	id, err := h.refresher.Trigger(limit)
	if errors.Is(err, refresh.ErrRefreshInProgress) {
		current, _ := h.refresher.Running()
		respondJSON(w, http.StatusConflict, map[string]string{
			"error":  "Refresh already in progress",
			"run_id": current,
		})
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to start refresh")
		respondError(w, http.StatusServiceUnavailable, "Refresh unavailable")
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"run_id": id,
		"limit":  limit,
	}).Info("Refresh triggered")

	respondJSON(w, http.StatusAccepted, RefreshResponse{
		Message: fmt.Sprintf("Refresh started in background for %d funds", limit),
		RunID:   id,
		Limit:   limit,
	})
}

// Runs returns recent run reports, newest first
// GET /refresh/runs
func (h *RefreshHandler) Runs(w http.ResponseWriter, r *http.Request) {
	current, running := h.refresher.Running()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"running": running,
		"current": current,
		"runs":    h.refresher.Runs(),
	})
}
