package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/flashpair/backend/internal/models"
	"go.uber.org/zap"
)

// DeckRepository is the interface that wraps methods for decks data access
type DeckRepository interface {
	Create(ctx context.Context, deck *models.Deck) error
	// Method GetByID returns models.ErrNotFound if the deck does not exist.
	GetByID(ctx context.Context, id int) (*models.Deck, error)
	// Method ListVisible returns the decks owned by the user together with the shared decks of "partnerID".
	//
	// "partnerID" is 0 when the user has no partner.
	ListVisible(ctx context.Context, userID, partnerID int) ([]models.DeckListItem, error)
	SetShared(ctx context.Context, id int, shared bool, now time.Time) error
}

// CardRepository is the interface that wraps methods for cards data access
type CardRepository interface {
	Create(ctx context.Context, card *models.Card) error
	// Method GetByID returns models.ErrNotFound if the card does not exist.
	GetByID(ctx context.Context, id int) (*models.Card, error)
	Update(ctx context.Context, card *models.Card) error
	ListByDeck(ctx context.Context, deckID int) ([]models.Card, error)
}

// DeckAccess is the interface that wraps access-checked deck lookups
type DeckAccess interface {
	ViewableDeck(ctx context.Context, userID, deckID int) (*models.Deck, error)
	EditableDeck(ctx context.Context, userID, deckID int) (*models.Deck, error)
}

type deckService struct {
	decks    DeckRepository
	cards    CardRepository
	access   DeckAccess
	partners PartnerLookup
	clock    Clock
	logger   *zap.Logger
}

// NewDeckService creates a new deck service
func NewDeckService(decks DeckRepository, cards CardRepository, access DeckAccess, partners PartnerLookup, clock Clock, logger *zap.Logger) *deckService {
	return &deckService{
		decks:    decks,
		cards:    cards,
		access:   access,
		partners: partners,
		clock:    clock,
		logger:   logger,
	}
}

// Create creates a personal deck owned by the user
func (s *deckService) Create(ctx context.Context, userID int, req *models.CreateDeckRequest) (*models.Deck, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", models.ErrInvalidInput)
	}

	now := s.clock.Now().UTC()
	deck := &models.Deck{
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		OwnerID:     userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.decks.Create(ctx, deck); err != nil {
		return nil, err
	}

	return deck, nil
}

// List returns the user's own decks and the decks their current partner shares
func (s *deckService) List(ctx context.Context, userID int) ([]models.DeckListItem, error) {
	partnerID, _, err := s.partners.PartnerOf(ctx, userID)
	if err != nil {
		return nil, err
	}

	return s.decks.ListVisible(ctx, userID, partnerID)
}

// Get returns a deck the user may view
func (s *deckService) Get(ctx context.Context, userID, deckID int) (*models.Deck, error) {
	return s.access.ViewableDeck(ctx, userID, deckID)
}

// SetShared changes the sharing flag of a deck
//
// Only the owner may change it, and sharing requires an active partnership (models.ErrNotPartnered otherwise).
func (s *deckService) SetShared(ctx context.Context, userID, deckID int, shared bool) (*models.Deck, error) {
	deck, err := s.access.EditableDeck(ctx, userID, deckID)
	if err != nil {
		return nil, err
	}
	if deck.OwnerID != userID {
		return nil, models.ErrForbidden
	}

	if shared {
		_, ok, err := s.partners.PartnerOf(ctx, userID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, models.ErrNotPartnered
		}
	}

	now := s.clock.Now().UTC()
	if err := s.decks.SetShared(ctx, deckID, shared, now); err != nil {
		return nil, err
	}

	deck.Shared = shared
	deck.UpdatedAt = now
	s.logger.Info("deck sharing changed", zap.Int("deckId", deckID), zap.Bool("shared", shared))
	return deck, nil
}

// AddCard adds a card to a deck the user may edit
func (s *deckService) AddCard(ctx context.Context, userID, deckID int, req *models.CardRequest) (*models.Card, error) {
	if _, err := s.access.EditableDeck(ctx, userID, deckID); err != nil {
		return nil, err
	}

	card := &models.Card{
		DeckID:    deckID,
		LanguageA: strings.TrimSpace(req.LanguageA),
		LanguageB: strings.TrimSpace(req.LanguageB),
		Context:   strings.TrimSpace(req.Context),
		CreatedAt: s.clock.Now().UTC(),
	}
	if card.LanguageA == "" || card.LanguageB == "" {
		return nil, fmt.Errorf("%w: both sides of a card are required", models.ErrInvalidInput)
	}

	if err := s.cards.Create(ctx, card); err != nil {
		return nil, err
	}

	return card, nil
}

// UpdateCard changes the text of a card in a deck the user may edit
func (s *deckService) UpdateCard(ctx context.Context, userID, cardID int, req *models.CardRequest) (*models.Card, error) {
	card, err := s.cards.GetByID(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if _, err := s.access.EditableDeck(ctx, userID, card.DeckID); err != nil {
		return nil, err
	}

	card.LanguageA = strings.TrimSpace(req.LanguageA)
	card.LanguageB = strings.TrimSpace(req.LanguageB)
	card.Context = strings.TrimSpace(req.Context)
	if card.LanguageA == "" || card.LanguageB == "" {
		return nil, fmt.Errorf("%w: both sides of a card are required", models.ErrInvalidInput)
	}

	if err := s.cards.Update(ctx, card); err != nil {
		return nil, err
	}

	return card, nil
}

// ListCards returns the cards of a deck the user may view
func (s *deckService) ListCards(ctx context.Context, userID, deckID int) ([]models.Card, error) {
	if _, err := s.access.ViewableDeck(ctx, userID, deckID); err != nil {
		return nil, err
	}

	return s.cards.ListByDeck(ctx, deckID)
}
