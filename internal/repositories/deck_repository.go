package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/flashpair/backend/internal/models"
	"go.uber.org/zap"
)

type deckRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDeckRepository creates a new deck repository
func NewDeckRepository(db *sql.DB, logger *zap.Logger) *deckRepository {
	return &deckRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new deck and sets its ID
func (r *deckRepository) Create(ctx context.Context, deck *models.Deck) error {
	query := `
		INSERT INTO decks (title, description, owner_id, shared, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query, deck.Title, deck.Description, deck.OwnerID, deck.Shared, deck.CreatedAt, deck.UpdatedAt)
	if err != nil {
		r.logger.Error("failed to insert deck", zap.Error(err))
		return fmt.Errorf("failed to insert deck: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get deck id: %w", err)
	}
	deck.ID = int(id)

	return nil
}

// GetByID retrieves a deck by its ID
//
// Returns models.ErrNotFound if the deck does not exist.
func (r *deckRepository) GetByID(ctx context.Context, id int) (*models.Deck, error) {
	query := `
		SELECT id, title, description, owner_id, shared, created_at, updated_at
		FROM decks
		WHERE id = ?
	`

	var deck models.Deck
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&deck.ID, &deck.Title, &deck.Description, &deck.OwnerID, &deck.Shared, &deck.CreatedAt, &deck.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to get deck", zap.Int("deckId", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get deck: %w", err)
	}

	return &deck, nil
}

// ListVisible retrieves the decks owned by the user and the shared decks owned by partnerID
//
// "partnerID" is 0 when the user has no active partnership.
// Decks are ordered from the newest to the oldest.
func (r *deckRepository) ListVisible(ctx context.Context, userID, partnerID int) ([]models.DeckListItem, error) {
	query := `
		SELECT d.id, d.title, d.description, d.owner_id, d.shared, d.created_at, d.updated_at,
			(SELECT COUNT(*) FROM cards c WHERE c.deck_id = d.id) AS total_cards
		FROM decks d
		WHERE d.owner_id = ? OR (d.owner_id = ? AND d.shared = TRUE)
		ORDER BY d.created_at DESC, d.id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID, partnerID)
	if err != nil {
		r.logger.Error("failed to query decks", zap.Error(err))
		return nil, fmt.Errorf("failed to query decks: %w", err)
	}
	defer rows.Close()

	decks := []models.DeckListItem{}
	for rows.Next() {
		var item models.DeckListItem
		if err := rows.Scan(
			&item.ID, &item.Title, &item.Description, &item.OwnerID, &item.Shared, &item.CreatedAt, &item.UpdatedAt, &item.TotalCards,
		); err != nil {
			return nil, fmt.Errorf("failed to scan deck: %w", err)
		}
		item.Owned = item.OwnerID == userID
		decks = append(decks, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return decks, nil
}

// SetShared updates the sharing flag of a deck
func (r *deckRepository) SetShared(ctx context.Context, id int, shared bool, now time.Time) error {
	query := `UPDATE decks SET shared = ?, updated_at = ? WHERE id = ?`

	if _, err := r.db.ExecContext(ctx, query, shared, now, id); err != nil {
		r.logger.Error("failed to update deck sharing", zap.Int("deckId", id), zap.Error(err))
		return fmt.Errorf("failed to update deck sharing: %w", err)
	}

	return nil
}
