package models

import "time"

// Card represents a single flashcard of a deck
type Card struct {
	ID        int       `json:"id"`
	DeckID    int       `json:"deckId"`
	LanguageA string    `json:"languageA"`
	LanguageB string    `json:"languageB"`
	Context   string    `json:"context,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Prompt returns the question and answer text of the card for the given direction
func (c *Card) Prompt(direction Direction) (question, answer string) {
	if direction == DirectionBToA {
		return c.LanguageB, c.LanguageA
	}
	return c.LanguageA, c.LanguageB
}

// CardRequest represents a card creation or edit request
type CardRequest struct {
	LanguageA string `json:"languageA" validate:"required,max=500"`
	LanguageB string `json:"languageB" validate:"required,max=500"`
	Context   string `json:"context" validate:"max=1000"`
}
