package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/wonny/mfrank/internal/classify"
	"github.com/wonny/mfrank/internal/contracts"
	"github.com/wonny/mfrank/internal/recommend"
	"github.com/wonny/mfrank/pkg/logger"
)

// Recommender answers ranking queries
type Recommender interface {
	Recommend(ctx context.Context, metric string, limit int, category string) ([]contracts.Recommendation, error)
}

// RecommendHandler handles recommendation and category endpoints
type RecommendHandler struct {
	service Recommender
	logger  *logger.Logger
}

// NewRecommendHandler creates a new recommendation handler
func NewRecommendHandler(service Recommender, log *logger.Logger) *RecommendHandler {
	return &RecommendHandler{service: service, logger: log}
}

// RecommendationsResponse echoes the query alongside the ranked funds
type RecommendationsResponse struct {
	Metric   string                     `json:"metric"`
	Limit    int                        `json:"limit"`
	Category *string                    `json:"category"`
	TopFunds []contracts.Recommendation `json:"top_funds"`
}

// Recommendations returns the top funds by metric
// GET /recommendations?metric=6M&limit=10&category=Equity
func (h *RecommendHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	metric := q.Get("metric")
	if metric == "" {
		metric = recommend.DefaultMetric
	}

	limit, ok := queryInt(r, "limit", recommend.DefaultLimit)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid 'limit' (expected integer)")
		return
	}
	limit = recommend.NormalizeLimit(limit)

	var category *string
	if c := strings.TrimSpace(q.Get("category")); c != "" {
		category = &c
	}

	funds, err := h.service.Recommend(r.Context(), metric, limit, q.Get("category"))
	if errors.Is(err, recommend.ErrInvalidMetric) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to query recommendations")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve recommendations")
		return
	}

	respondJSON(w, http.StatusOK, RecommendationsResponse{
		Metric:   metric,
		Limit:    limit,
		Category: category,
		TopFunds: funds,
	})
}

// Categories returns the fixed category names
// GET /categories
func (h *RecommendHandler) Categories(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string][]string{
		"categories": classify.Categories(),
	})
}
