package services

import (
	"context"
	"errors"

	"github.com/flashpair/backend/internal/models"
)

// DeckReader is the interface that wraps deck lookup by ID
type DeckReader interface {
	// Method GetByID returns models.ErrNotFound if the deck does not exist.
	GetByID(ctx context.Context, id int) (*models.Deck, error)
}

// PartnerLookup is the interface that wraps the current partner lookup
type PartnerLookup interface {
	// Method PartnerOf returns the partner of the user; the second value is false if the user has no active partnership.
	PartnerOf(ctx context.Context, userID int) (int, bool, error)
}

type accessService struct {
	decks    DeckReader
	partners PartnerLookup
}

// NewAccessService creates a new deck access control
//
// The partnership is looked up on every call, so a dissolved partnership takes effect on the next check.
func NewAccessService(decks DeckReader, partners PartnerLookup) *accessService {
	return &accessService{
		decks:    decks,
		partners: partners,
	}
}

// CanView reports whether the user may view the deck
func (s *accessService) CanView(ctx context.Context, userID, deckID int) (bool, error) {
	return allowed(s.ViewableDeck(ctx, userID, deckID))
}

// CanEdit reports whether the user may edit the deck and its cards
func (s *accessService) CanEdit(ctx context.Context, userID, deckID int) (bool, error) {
	return allowed(s.EditableDeck(ctx, userID, deckID))
}

// ViewableDeck returns the deck if the user may view it
//
// Returns models.ErrNotFound both for missing decks and for decks the user may not see.
func (s *accessService) ViewableDeck(ctx context.Context, userID, deckID int) (*models.Deck, error) {
	return s.accessibleDeck(ctx, userID, deckID)
}

// EditableDeck returns the deck if the user may edit it
//
// Partners share edit rights on shared decks, so the rule is the same as for viewing.
func (s *accessService) EditableDeck(ctx context.Context, userID, deckID int) (*models.Deck, error) {
	return s.accessibleDeck(ctx, userID, deckID)
}

func (s *accessService) accessibleDeck(ctx context.Context, userID, deckID int) (*models.Deck, error) {
	deck, err := s.decks.GetByID(ctx, deckID)
	if err != nil {
		return nil, err
	}

	if deck.OwnerID == userID {
		return deck, nil
	}
	if !deck.Shared {
		return nil, models.ErrNotFound
	}

	partnerID, ok, err := s.partners.PartnerOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ok || partnerID != deck.OwnerID {
		return nil, models.ErrNotFound
	}

	return deck, nil
}

func allowed(deck *models.Deck, err error) (bool, error) {
	if errors.Is(err, models.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return deck != nil, nil
}
