package models

import "errors"

// Error kinds returned by services.
// Handlers translate them into HTTP statuses and stable error codes; use errors.Is to check.
var (
	ErrInvalidQuality      = errors.New("quality must be between 0 and 5")
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrNotInSession        = errors.New("card is not part of this session")
	ErrAlreadyReviewed     = errors.New("card was already reviewed in this session")
	ErrSessionNotCompleted = errors.New("session is not completed yet")
	ErrAlreadyPartnered    = errors.New("user already has an active partnership")
	ErrNotPartnered        = errors.New("user has no active partnership")
	ErrInvalidCode         = errors.New("invitation code is invalid")
	ErrExpired             = errors.New("invitation expired, request a new code")
	ErrSelfInvitation      = errors.New("cannot accept your own invitation")
	ErrInvalidDirection    = errors.New("invalid direction")
	ErrInvalidInput        = errors.New("invalid input")
)
