package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/flashpair/backend/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// StudyService is the interface that wraps methods for study session business logic
type StudyService interface {
	// Start freezes the due cards of a deck into a new session
	//
	// If nothing is due, no session is created and the result has NoCardsDue set.
	Start(ctx context.Context, userID, deckID int, policy models.DirectionPolicy) (*models.SessionStart, error)
	// SubmitReview records the review of one session card
	//
	// Returns models.ErrNotInSession or models.ErrAlreadyReviewed when the card can not be reviewed.
	SubmitReview(ctx context.Context, userID int, sessionID string, cardID, quality, timeSpent int) (*models.ReviewResult, error)
	Get(ctx context.Context, userID int, sessionID string) (*models.StudySession, error)
	// Summary returns the result of a completed session
	Summary(ctx context.Context, userID int, sessionID string) (*models.SessionSummary, error)
	// DueCards returns IDs of the deck cards due today in one direction
	DueCards(ctx context.Context, userID, deckID int, direction models.Direction) ([]int, error)
}

// StudyHandler handles study session related HTTP requests
type StudyHandler struct {
	BaseHandler
	service StudyService
}

// NewStudyHandler creates a new study handler
func NewStudyHandler(service StudyService, logger *zap.Logger) *StudyHandler {
	return &StudyHandler{
		BaseHandler: newBaseHandler(logger),
		service:     service,
	}
}

// RegisterRoutes registers all study handler routes
func (h *StudyHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/decks/{id}/due", h.GetDueCards)
		r.Post("/decks/{id}/sessions", h.StartSession)
		r.Get("/sessions/{id}", h.GetSession)
		r.Post("/sessions/{id}/reviews", h.SubmitReview)
		r.Get("/sessions/{id}/summary", h.GetSummary)
	})
}

// GetDueCards handles GET /api/v1/decks/{id}/due
// @Summary Get due cards
// @Description Get IDs of the deck cards due today for the authenticated user in one direction
// @Tags study
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Deck ID"
// @Param direction query string false "A_TO_B or B_TO_A, default: A_TO_B"
// @Success 200 {object} Response{data=models.DueCardsResponse}
// @Failure 400 {object} Response "Invalid direction"
// @Failure 404 {object} Response "Deck not found"
// @Router /api/v1/decks/{id}/due [get]
func (h *StudyHandler) GetDueCards(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	deckID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	direction := models.Direction(r.URL.Query().Get("direction"))
	if direction == "" {
		direction = models.DirectionAToB
	}

	ids, err := h.service.DueCards(r.Context(), userID, deckID, direction)
	if err != nil {
		h.handleServiceError(w, err, "get due cards")
		return
	}
	if ids == nil {
		ids = []int{}
	}

	h.respondJSON(w, http.StatusOK, models.DueCardsResponse{DeckID: deckID, Direction: direction, CardIDs: ids})
}

// StartSession handles POST /api/v1/decks/{id}/sessions
// @Summary Start study session
// @Description Freeze the cards due today into a new session. Returns noCardsDue=true without a session if nothing is due.
// @Tags study
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Deck ID"
// @Param request body models.StartSessionRequest true "Direction policy"
// @Success 201 {object} Response{data=models.SessionStart} "Session started"
// @Success 200 {object} Response{data=models.SessionStart} "No cards due"
// @Failure 400 {object} Response "Invalid policy"
// @Failure 404 {object} Response "Deck not found"
// @Router /api/v1/decks/{id}/sessions [post]
func (h *StudyHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	deckID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var req models.StartSessionRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.handleServiceError(w, err, "start session")
		return
	}

	start, err := h.service.Start(r.Context(), userID, deckID, req.Policy)
	if err != nil {
		h.handleServiceError(w, err, "start session")
		return
	}

	status := http.StatusCreated
	if start.NoCardsDue {
		status = http.StatusOK
	}
	h.respondJSON(w, status, start)
}

// GetSession handles GET /api/v1/sessions/{id}
// @Summary Get study session
// @Tags study
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Session ID"
// @Success 200 {object} Response{data=models.StudySession}
// @Failure 404 {object} Response "Session not found"
// @Router /api/v1/sessions/{id} [get]
func (h *StudyHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	session, err := h.service.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, err, "get session")
		return
	}

	h.respondJSON(w, http.StatusOK, session)
}

// SubmitReview handles POST /api/v1/sessions/{id}/reviews
// @Summary Submit review
// @Description Submit the recall quality (0-5) of one session card
// @Tags study
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Session ID"
// @Param request body models.ReviewRequest true "Review"
// @Success 200 {object} Response{data=models.ReviewResult}
// @Failure 400 {object} Response "Invalid quality or card not in session"
// @Failure 404 {object} Response "Session not found"
// @Failure 409 {object} Response "Card already reviewed"
// @Router /api/v1/sessions/{id}/reviews [post]
func (h *StudyHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req models.ReviewRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.handleServiceError(w, err, "submit review")
		return
	}

	result, err := h.service.SubmitReview(r.Context(), userID, chi.URLParam(r, "id"), req.CardID, *req.Quality, req.TimeSpent)
	if err != nil {
		h.handleServiceError(w, err, fmt.Sprintf("submit review of card %d", req.CardID))
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// GetSummary handles GET /api/v1/sessions/{id}/summary
// @Summary Get session summary
// @Tags study
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Session ID"
// @Success 200 {object} Response{data=models.SessionSummary}
// @Failure 404 {object} Response "Session not found"
// @Failure 409 {object} Response "Session not completed"
// @Router /api/v1/sessions/{id}/summary [get]
func (h *StudyHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	summary, err := h.service.Summary(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, err, "get session summary")
		return
	}

	h.respondJSON(w, http.StatusOK, summary)
}
