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

type progressRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewProgressRepository creates a new scheduling state repository
func NewProgressRepository(db *sql.DB, logger *zap.Logger) *progressRepository {
	return &progressRepository{
		db:     db,
		logger: logger,
	}
}

// Get retrieves the scheduling state of a card for a user in one direction
//
// Returns nil and no error if the user never reviewed the card in that direction.
func (r *progressRepository) Get(ctx context.Context, userID, cardID int, direction models.Direction) (*models.SchedulingState, error) {
	query := `
		SELECT ease_factor, interval_days, repetitions, next_due, last_reviewed
		FROM scheduling_states
		WHERE user_id = ? AND card_id = ? AND direction = ?
	`

	state := models.SchedulingState{UserID: userID, CardID: cardID, Direction: direction}
	var lastReviewed sql.NullTime
	err := r.db.QueryRowContext(ctx, query, userID, cardID, direction).Scan(
		&state.EaseFactor, &state.Interval, &state.Repetitions, &state.NextDue, &lastReviewed,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("failed to get scheduling state", zap.Int("cardId", cardID), zap.Error(err))
		return nil, fmt.Errorf("failed to get scheduling state: %w", err)
	}
	if lastReviewed.Valid {
		state.LastReviewed = &lastReviewed.Time
	}

	return &state, nil
}

// RecordReview applies a review to the stored scheduling state in a single transaction
//
// "entry" describes the review; its scheduling fields are filled from the new state.
// "today" is used for the default state of a never reviewed card.
// "apply" computes the new state from the locked current one; its error aborts the transaction.
func (r *progressRepository) RecordReview(
	ctx context.Context,
	entry models.ReviewHistory,
	today time.Time,
	apply func(models.SchedulingState) (models.SchedulingState, error),
) (models.SchedulingState, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return models.SchedulingState{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	state, err := applyReviewTx(ctx, tx, &entry, today, apply)
	if err != nil {
		return models.SchedulingState{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.SchedulingState{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return state, nil
}

// DueCardIDs retrieves IDs of the deck cards due on "today" for the user in one direction
//
// Cards without a scheduling state are due. The most overdue cards come first, ties are ordered by card ID.
func (r *progressRepository) DueCardIDs(ctx context.Context, userID, deckID int, direction models.Direction, today time.Time) ([]int, error) {
	query := `
		SELECT c.id
		FROM cards c
		LEFT JOIN scheduling_states s
			ON s.card_id = c.id AND s.user_id = ? AND s.direction = ?
		WHERE c.deck_id = ? AND (s.next_due IS NULL OR s.next_due <= ?)
		ORDER BY COALESCE(s.next_due, ?) ASC, c.id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID, direction, deckID, today, today)
	if err != nil {
		r.logger.Error("failed to query due cards", zap.Int("deckId", deckID), zap.Error(err))
		return nil, fmt.Errorf("failed to query due cards: %w", err)
	}
	defer rows.Close()

	cardIDs := []int{}
	for rows.Next() {
		var cardID int
		if err := rows.Scan(&cardID); err != nil {
			return nil, fmt.Errorf("failed to scan card ID: %w", err)
		}
		cardIDs = append(cardIDs, cardID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return cardIDs, nil
}

// applyReviewTx performs the locked read-modify-write of a scheduling state and appends the history row
//
// The default row is inserted first so that two concurrent first reviews serialize on the same row lock.
func applyReviewTx(
	ctx context.Context,
	tx *sql.Tx,
	entry *models.ReviewHistory,
	today time.Time,
	apply func(models.SchedulingState) (models.SchedulingState, error),
) (models.SchedulingState, error) {
	def := models.DefaultSchedulingState(entry.UserID, entry.CardID, entry.Direction, today)
	if _, err := tx.ExecContext(ctx, `
		INSERT IGNORE INTO scheduling_states (user_id, card_id, direction, ease_factor, interval_days, repetitions, next_due)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, def.UserID, def.CardID, def.Direction, def.EaseFactor, def.Interval, def.Repetitions, def.NextDue); err != nil {
		return models.SchedulingState{}, fmt.Errorf("failed to insert default scheduling state: %w", err)
	}

	current := models.SchedulingState{UserID: entry.UserID, CardID: entry.CardID, Direction: entry.Direction}
	var lastReviewed sql.NullTime
	if err := tx.QueryRowContext(ctx, `
		SELECT ease_factor, interval_days, repetitions, next_due, last_reviewed
		FROM scheduling_states
		WHERE user_id = ? AND card_id = ? AND direction = ?
		FOR UPDATE
	`, entry.UserID, entry.CardID, entry.Direction).Scan(
		&current.EaseFactor, &current.Interval, &current.Repetitions, &current.NextDue, &lastReviewed,
	); err != nil {
		return models.SchedulingState{}, fmt.Errorf("failed to lock scheduling state: %w", err)
	}
	if lastReviewed.Valid {
		current.LastReviewed = &lastReviewed.Time
	}

	next, err := apply(current)
	if err != nil {
		return models.SchedulingState{}, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE scheduling_states
		SET ease_factor = ?, interval_days = ?, repetitions = ?, next_due = ?, last_reviewed = ?
		WHERE user_id = ? AND card_id = ? AND direction = ?
	`, next.EaseFactor, next.Interval, next.Repetitions, next.NextDue, next.LastReviewed,
		entry.UserID, entry.CardID, entry.Direction); err != nil {
		return models.SchedulingState{}, fmt.Errorf("failed to update scheduling state: %w", err)
	}

	entry.EaseFactor = next.EaseFactor
	entry.Interval = next.Interval
	entry.Repetitions = next.Repetitions

	var sessionID sql.NullString
	if entry.SessionID != "" {
		sessionID = sql.NullString{String: entry.SessionID, Valid: true}
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO review_history
			(user_id, card_id, direction, session_id, quality, time_spent, ease_factor, interval_days, repetitions, reviewed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.UserID, entry.CardID, entry.Direction, sessionID, entry.Quality, entry.TimeSpent,
		entry.EaseFactor, entry.Interval, entry.Repetitions, entry.ReviewedAt); err != nil {
		return models.SchedulingState{}, fmt.Errorf("failed to insert review history: %w", err)
	}

	return next, nil
}
