package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/flashpair/backend/internal/middleware"
	"github.com/flashpair/backend/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Response is the envelope of every API response
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

// ErrorBody describes a failed request with a stable code and a user-facing message
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// BaseHandler provides common handler functionality
type BaseHandler struct {
	logger   *zap.Logger
	validate *validator.Validate
}

func newBaseHandler(logger *zap.Logger) BaseHandler {
	return BaseHandler{
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// respondJSON sends a successful JSON response
func (h *BaseHandler) respondJSON(w http.ResponseWriter, status int, data any) {
	h.write(w, status, Response{Success: true, Data: data})
}

// respondError sends an error JSON response
func (h *BaseHandler) respondError(w http.ResponseWriter, status int, code, message string) {
	h.write(w, status, Response{Success: false, Error: &ErrorBody{Code: code, Message: message}})
}

func (h *BaseHandler) write(w http.ResponseWriter, status int, body Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// serviceErrors maps error kinds to HTTP statuses and error codes
//
// Forbidden is reported as NOT_FOUND so responses never reveal that a deck exists.
var serviceErrors = []struct {
	err     error
	status  int
	code    string
	message string
}{
	{models.ErrInvalidQuality, http.StatusBadRequest, "INVALID_QUALITY", "quality must be between 0 and 5"},
	{models.ErrInvalidDirection, http.StatusBadRequest, "INVALID_DIRECTION", ""},
	{models.ErrInvalidInput, http.StatusBadRequest, "INVALID_INPUT", ""},
	{models.ErrNotFound, http.StatusNotFound, "NOT_FOUND", "resource not found"},
	{models.ErrForbidden, http.StatusNotFound, "NOT_FOUND", "resource not found"},
	{models.ErrNotInSession, http.StatusBadRequest, "NOT_IN_SESSION", "card is not part of this session"},
	{models.ErrAlreadyReviewed, http.StatusConflict, "ALREADY_REVIEWED", "card was already reviewed in this session"},
	{models.ErrSessionNotCompleted, http.StatusConflict, "SESSION_NOT_COMPLETED", "session is not completed yet"},
	{models.ErrAlreadyPartnered, http.StatusConflict, "ALREADY_PARTNERED", "you or your partner already have an active partnership"},
	{models.ErrNotPartnered, http.StatusConflict, "NOT_PARTNERED", "you have no active partnership"},
	{models.ErrInvalidCode, http.StatusBadRequest, "INVALID_CODE", "invitation code is invalid"},
	{models.ErrExpired, http.StatusGone, "EXPIRED", "invitation expired, request a new code"},
	{models.ErrSelfInvitation, http.StatusBadRequest, "SELF_INVITATION", "you cannot accept your own invitation"},
}

// handleServiceError translates a service error into an error response
//
// Unknown errors are logged and reported as internal errors without details.
func (h *BaseHandler) handleServiceError(w http.ResponseWriter, err error, action string) {
	for _, e := range serviceErrors {
		if errors.Is(err, e.err) {
			message := e.message
			if message == "" {
				message = err.Error()
			}
			h.respondError(w, e.status, e.code, message)
			return
		}
	}

	h.logger.Error("failed to "+action, zap.Error(err))
	h.respondError(w, http.StatusInternalServerError, "INTERNAL", "internal server error")
}

// decodeJSON decodes the request body into dst and validates it
func (h *BaseHandler) decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request body", models.ErrInvalidInput)
	}
	if err := h.validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			fe := validationErrors[0]
			return fmt.Errorf("%w: field %s failed on %s", models.ErrInvalidInput, fe.Field(), fe.Tag())
		}
		return fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	return nil
}

// requireUser extracts the authenticated user ID or responds with 401
func (h *BaseHandler) requireUser(w http.ResponseWriter, r *http.Request) (int, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Error("user ID not found in context")
		h.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		return 0, false
	}
	return userID, true
}

// pathID parses a positive integer URL parameter or responds with 400
func (h *BaseHandler) pathID(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id <= 0 {
		h.respondError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid "+name)
		return 0, false
	}
	return id, true
}
