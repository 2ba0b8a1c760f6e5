package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/flashpair/backend/internal/models"
	"go.uber.org/zap"
)

type cardRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCardRepository creates a new card repository
func NewCardRepository(db *sql.DB, logger *zap.Logger) *cardRepository {
	return &cardRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new card and sets its ID
func (r *cardRepository) Create(ctx context.Context, card *models.Card) error {
	query := `
		INSERT INTO cards (deck_id, language_a, language_b, context, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query, card.DeckID, card.LanguageA, card.LanguageB, card.Context, card.CreatedAt)
	if err != nil {
		r.logger.Error("failed to insert card", zap.Int("deckId", card.DeckID), zap.Error(err))
		return fmt.Errorf("failed to insert card: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get card id: %w", err)
	}
	card.ID = int(id)

	return nil
}

// GetByID retrieves a card by its ID
//
// Returns models.ErrNotFound if the card does not exist.
func (r *cardRepository) GetByID(ctx context.Context, id int) (*models.Card, error) {
	query := `
		SELECT id, deck_id, language_a, language_b, context, created_at
		FROM cards
		WHERE id = ?
	`

	var card models.Card
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&card.ID, &card.DeckID, &card.LanguageA, &card.LanguageB, &card.Context, &card.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to get card", zap.Int("cardId", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get card: %w", err)
	}

	return &card, nil
}

// Update changes the text fields of a card
func (r *cardRepository) Update(ctx context.Context, card *models.Card) error {
	query := `
		UPDATE cards
		SET language_a = ?, language_b = ?, context = ?
		WHERE id = ?
	`

	if _, err := r.db.ExecContext(ctx, query, card.LanguageA, card.LanguageB, card.Context, card.ID); err != nil {
		r.logger.Error("failed to update card", zap.Int("cardId", card.ID), zap.Error(err))
		return fmt.Errorf("failed to update card: %w", err)
	}

	return nil
}

// ListByDeck retrieves all cards of a deck ordered by ID
func (r *cardRepository) ListByDeck(ctx context.Context, deckID int) ([]models.Card, error) {
	query := `
		SELECT id, deck_id, language_a, language_b, context, created_at
		FROM cards
		WHERE deck_id = ?
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, deckID)
	if err != nil {
		r.logger.Error("failed to query cards", zap.Int("deckId", deckID), zap.Error(err))
		return nil, fmt.Errorf("failed to query cards: %w", err)
	}
	defer rows.Close()

	cards := []models.Card{}
	for rows.Next() {
		var card models.Card
		if err := rows.Scan(&card.ID, &card.DeckID, &card.LanguageA, &card.LanguageB, &card.Context, &card.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		cards = append(cards, card)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return cards, nil
}
