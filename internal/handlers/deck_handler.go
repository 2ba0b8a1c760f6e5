package handlers

import (
	"context"
	"net/http"

	"github.com/flashpair/backend/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// DeckService is the interface that wraps methods for deck and card business logic
type DeckService interface {
	// Create creates a private deck owned by the user
	Create(ctx context.Context, userID int, req *models.CreateDeckRequest) (*models.Deck, error)
	// List retrieves the user's decks and the decks shared by the current partner
	List(ctx context.Context, userID int) ([]models.DeckListItem, error)
	// Get retrieves a deck the user may view
	//
	// Returns models.ErrNotFound both for missing decks and for decks the user may not view.
	Get(ctx context.Context, userID, deckID int) (*models.Deck, error)
	// SetShared changes the sharing flag of a deck owned by the user
	//
	// Sharing requires an active partnership.
	SetShared(ctx context.Context, userID, deckID int, shared bool) (*models.Deck, error)
	AddCard(ctx context.Context, userID, deckID int, req *models.CardRequest) (*models.Card, error)
	UpdateCard(ctx context.Context, userID, cardID int, req *models.CardRequest) (*models.Card, error)
	ListCards(ctx context.Context, userID, deckID int) ([]models.Card, error)
}

// DeckHandler handles deck and card related HTTP requests
type DeckHandler struct {
	BaseHandler
	service DeckService
}

// NewDeckHandler creates a new deck handler
func NewDeckHandler(service DeckService, logger *zap.Logger) *DeckHandler {
	return &DeckHandler{
		BaseHandler: newBaseHandler(logger),
		service:     service,
	}
}

// RegisterRoutes registers all deck handler routes
func (h *DeckHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/decks", h.CreateDeck)
		r.Get("/decks", h.ListDecks)
		r.Get("/decks/{id}", h.GetDeck)
		r.Put("/decks/{id}/sharing", h.SetSharing)
		r.Get("/decks/{id}/cards", h.ListCards)
		r.Post("/decks/{id}/cards", h.AddCard)
		r.Put("/cards/{id}", h.UpdateCard)
	})
}

// CreateDeck handles POST /api/v1/decks
// @Summary Create deck
// @Description Create a new private deck owned by the authenticated user
// @Tags decks
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body models.CreateDeckRequest true "Deck data"
// @Success 201 {object} Response{data=models.Deck}
// @Failure 400 {object} Response "Invalid input"
// @Failure 401 {object} Response "Unauthorized"
// @Failure 500 {object} Response "Internal server error"
// @Router /api/v1/decks [post]
func (h *DeckHandler) CreateDeck(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req models.CreateDeckRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.handleServiceError(w, err, "create deck")
		return
	}

	deck, err := h.service.Create(r.Context(), userID, &req)
	if err != nil {
		h.handleServiceError(w, err, "create deck")
		return
	}

	h.respondJSON(w, http.StatusCreated, deck)
}

// ListDecks handles GET /api/v1/decks
// @Summary List decks
// @Description List own decks and decks shared by the current partner
// @Tags decks
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} Response{data=[]models.DeckListItem}
// @Failure 401 {object} Response "Unauthorized"
// @Failure 500 {object} Response "Internal server error"
// @Router /api/v1/decks [get]
func (h *DeckHandler) ListDecks(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	decks, err := h.service.List(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, err, "list decks")
		return
	}
	if decks == nil {
		decks = []models.DeckListItem{}
	}

	h.respondJSON(w, http.StatusOK, decks)
}

// GetDeck handles GET /api/v1/decks/{id}
// @Summary Get deck
// @Tags decks
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Deck ID"
// @Success 200 {object} Response{data=models.Deck}
// @Failure 400 {object} Response "Invalid deck ID"
// @Failure 401 {object} Response "Unauthorized"
// @Failure 404 {object} Response "Deck not found"
// @Router /api/v1/decks/{id} [get]
func (h *DeckHandler) GetDeck(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	deckID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	deck, err := h.service.Get(r.Context(), userID, deckID)
	if err != nil {
		h.handleServiceError(w, err, "get deck")
		return
	}

	h.respondJSON(w, http.StatusOK, deck)
}

// SetSharing handles PUT /api/v1/decks/{id}/sharing
// @Summary Share or unshare deck
// @Description Share a deck with the current partner or make it private again. Only the owner may change it.
// @Tags decks
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Deck ID"
// @Param request body models.SetSharingRequest true "Sharing flag"
// @Success 200 {object} Response{data=models.Deck}
// @Failure 400 {object} Response "Invalid input"
// @Failure 404 {object} Response "Deck not found"
// @Failure 409 {object} Response "No active partnership"
// @Router /api/v1/decks/{id}/sharing [put]
func (h *DeckHandler) SetSharing(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	deckID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var req models.SetSharingRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.handleServiceError(w, err, "set deck sharing")
		return
	}

	deck, err := h.service.SetShared(r.Context(), userID, deckID, *req.Shared)
	if err != nil {
		h.handleServiceError(w, err, "set deck sharing")
		return
	}

	h.respondJSON(w, http.StatusOK, deck)
}

// ListCards handles GET /api/v1/decks/{id}/cards
// @Summary List deck cards
// @Tags cards
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Deck ID"
// @Success 200 {object} Response{data=[]models.Card}
// @Failure 404 {object} Response "Deck not found"
// @Router /api/v1/decks/{id}/cards [get]
func (h *DeckHandler) ListCards(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	deckID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	cards, err := h.service.ListCards(r.Context(), userID, deckID)
	if err != nil {
		h.handleServiceError(w, err, "list cards")
		return
	}
	if cards == nil {
		cards = []models.Card{}
	}

	h.respondJSON(w, http.StatusOK, cards)
}

// AddCard handles POST /api/v1/decks/{id}/cards
// @Summary Add card
// @Description Add a card to a deck. Both the owner and the partner of a shared deck may add cards.
// @Tags cards
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Deck ID"
// @Param request body models.CardRequest true "Card data"
// @Success 201 {object} Response{data=models.Card}
// @Failure 400 {object} Response "Invalid input"
// @Failure 404 {object} Response "Deck not found"
// @Router /api/v1/decks/{id}/cards [post]
func (h *DeckHandler) AddCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	deckID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var req models.CardRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.handleServiceError(w, err, "add card")
		return
	}

	card, err := h.service.AddCard(r.Context(), userID, deckID, &req)
	if err != nil {
		h.handleServiceError(w, err, "add card")
		return
	}

	h.respondJSON(w, http.StatusCreated, card)
}

// UpdateCard handles PUT /api/v1/cards/{id}
// @Summary Edit card
// @Tags cards
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Card ID"
// @Param request body models.CardRequest true "Card data"
// @Success 200 {object} Response{data=models.Card}
// @Failure 400 {object} Response "Invalid input"
// @Failure 404 {object} Response "Card not found"
// @Router /api/v1/cards/{id} [put]
func (h *DeckHandler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	cardID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var req models.CardRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.handleServiceError(w, err, "update card")
		return
	}

	card, err := h.service.UpdateCard(r.Context(), userID, cardID, &req)
	if err != nil {
		h.handleServiceError(w, err, "update card")
		return
	}

	h.respondJSON(w, http.StatusOK, card)
}
