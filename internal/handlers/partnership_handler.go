package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/flashpair/backend/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// PartnershipService is the interface that wraps methods for partnership business logic
type PartnershipService interface {
	// Invite creates a single-use invitation code for a user without an active partnership
	Invite(ctx context.Context, userID int) (*models.PartnershipInvitation, error)
	// Accept redeems an invitation code and links both users
	Accept(ctx context.Context, userID int, code string) (*models.Partnership, error)
	// Dissolve ends the active partnership of the user and unshares the decks of both members
	Dissolve(ctx context.Context, userID int) error
	// Get returns the active partnership of the user, or models.ErrNotPartnered
	Get(ctx context.Context, userID int) (*models.PartnershipView, error)
}

// PartnershipHandler handles partnership related HTTP requests
type PartnershipHandler struct {
	BaseHandler
	service PartnershipService
}

// NewPartnershipHandler creates a new partnership handler
func NewPartnershipHandler(service PartnershipService, logger *zap.Logger) *PartnershipHandler {
	return &PartnershipHandler{
		BaseHandler: newBaseHandler(logger),
		service:     service,
	}
}

// RegisterRoutes registers all partnership handler routes
func (h *PartnershipHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/partnership", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.GetPartnership)
		r.Delete("/", h.DissolvePartnership)
		r.Post("/invitations", h.CreateInvitation)
		r.Post("/accept", h.AcceptInvitation)
	})
}

// CreateInvitation handles POST /api/v1/partnership/invitations
// @Summary Create invitation code
// @Description Create a single-use six character code the partner can accept
// @Tags partnership
// @Produce json
// @Security ApiKeyAuth
// @Success 201 {object} Response{data=models.PartnershipInvitation}
// @Failure 409 {object} Response "Already partnered"
// @Router /api/v1/partnership/invitations [post]
func (h *PartnershipHandler) CreateInvitation(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	invitation, err := h.service.Invite(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, err, "create invitation")
		return
	}

	h.respondJSON(w, http.StatusCreated, invitation)
}

// AcceptInvitation handles POST /api/v1/partnership/accept
// @Summary Accept invitation
// @Tags partnership
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body models.AcceptInvitationRequest true "Invitation code"
// @Success 201 {object} Response{data=models.Partnership}
// @Failure 400 {object} Response "Invalid code or own invitation"
// @Failure 409 {object} Response "Already partnered"
// @Failure 410 {object} Response "Invitation expired"
// @Router /api/v1/partnership/accept [post]
func (h *PartnershipHandler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req models.AcceptInvitationRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.handleServiceError(w, models.ErrInvalidCode, "accept invitation")
		return
	}

	partnership, err := h.service.Accept(r.Context(), userID, req.Code)
	if err != nil {
		h.handleServiceError(w, err, "accept invitation")
		return
	}

	h.respondJSON(w, http.StatusCreated, partnership)
}

// GetPartnership handles GET /api/v1/partnership
// @Summary Get partnership
// @Description Get the active partnership of the authenticated user; partnered=false if there is none
// @Tags partnership
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} Response{data=models.PartnershipStatus}
// @Router /api/v1/partnership [get]
func (h *PartnershipHandler) GetPartnership(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	view, err := h.service.Get(r.Context(), userID)
	if errors.Is(err, models.ErrNotPartnered) {
		h.respondJSON(w, http.StatusOK, models.PartnershipStatus{})
		return
	}
	if err != nil {
		h.handleServiceError(w, err, "get partnership")
		return
	}

	h.respondJSON(w, http.StatusOK, models.PartnershipStatus{Partnered: true, Partnership: view})
}

// DissolvePartnership handles DELETE /api/v1/partnership
// @Summary Dissolve partnership
// @Description End the active partnership. Decks of both members become private.
// @Tags partnership
// @Security ApiKeyAuth
// @Success 204 "Partnership dissolved"
// @Failure 409 {object} Response "No active partnership"
// @Router /api/v1/partnership [delete]
func (h *PartnershipHandler) DissolvePartnership(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	if err := h.service.Dissolve(r.Context(), userID); err != nil {
		h.handleServiceError(w, err, "dissolve partnership")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
