package models

import "time"

// Deck represents a collection of cards owned by its creator
//
// Shared decks are visible to the owner's current partner.
type Deck struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	OwnerID     int       `json:"ownerId"`
	Shared      bool      `json:"shared"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// DeckListItem represents a deck in the user's deck list
type DeckListItem struct {
	Deck
	Owned      bool `json:"owned"`
	TotalCards int  `json:"totalCards"`
}

// CreateDeckRequest represents a deck creation request
type CreateDeckRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

// SetSharingRequest represents a deck sharing flag change
type SetSharingRequest struct {
	Shared *bool `json:"shared" validate:"required"`
}
