package handlers

import (
	"context"
	"net/http"

	"github.com/flashpair/backend/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// StatsService is the interface that wraps methods for study statistics
type StatsService interface {
	UserStats(ctx context.Context, userID int) (*models.UserStats, error)
	// DeckStats returns statistics of the user for a deck the user may view
	DeckStats(ctx context.Context, userID, deckID int) (*models.DeckStats, error)
}

// StatsHandler handles statistics related HTTP requests
type StatsHandler struct {
	BaseHandler
	service StatsService
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(service StatsService, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{
		BaseHandler: newBaseHandler(logger),
		service:     service,
	}
}

// RegisterRoutes registers all stats handler routes
func (h *StatsHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/stats", h.GetUserStats)
		r.Get("/decks/{id}/stats", h.GetDeckStats)
	})
}

// GetUserStats handles GET /api/v1/stats
// @Summary Get user statistics
// @Tags stats
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} Response{data=models.UserStats}
// @Failure 401 {object} Response "Unauthorized"
// @Router /api/v1/stats [get]
func (h *StatsHandler) GetUserStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	stats, err := h.service.UserStats(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, err, "get user stats")
		return
	}

	h.respondJSON(w, http.StatusOK, stats)
}

// GetDeckStats handles GET /api/v1/decks/{id}/stats
// @Summary Get deck statistics
// @Tags stats
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Deck ID"
// @Success 200 {object} Response{data=models.DeckStats}
// @Failure 404 {object} Response "Deck not found"
// @Router /api/v1/decks/{id}/stats [get]
func (h *StatsHandler) GetDeckStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	deckID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	stats, err := h.service.DeckStats(r.Context(), userID, deckID)
	if err != nil {
		h.handleServiceError(w, err, "get deck stats")
		return
	}

	h.respondJSON(w, http.StatusOK, stats)
}
