package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/flashpair/backend/internal/models"
	"go.uber.org/zap"
)

type statsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStatsRepository creates a new statistics repository
func NewStatsRepository(db *sql.DB, logger *zap.Logger) *statsRepository {
	return &statsRepository{
		db:     db,
		logger: logger,
	}
}

// ReviewAggregate aggregates the review history of a user
//
// "deckID" limits the aggregate to one deck; 0 means all decks.
func (r *statsRepository) ReviewAggregate(ctx context.Context, userID, deckID int) (*models.ReviewAggregate, error) {
	query := `
		SELECT COUNT(*), COUNT(DISTINCT rh.card_id), COALESCE(AVG(rh.quality), 0)
		FROM review_history rh
		WHERE rh.user_id = ?
	`
	args := []any{userID}
	if deckID != 0 {
		query = `
			SELECT COUNT(*), COUNT(DISTINCT rh.card_id), COALESCE(AVG(rh.quality), 0)
			FROM review_history rh
			JOIN cards c ON c.id = rh.card_id
			WHERE rh.user_id = ? AND c.deck_id = ?
		`
		args = append(args, deckID)
	}

	var aggregate models.ReviewAggregate
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&aggregate.TotalReviews, &aggregate.CardsStudied, &aggregate.AverageQuality,
	); err != nil {
		r.logger.Error("failed to aggregate reviews", zap.Int("userId", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to aggregate reviews: %w", err)
	}

	return &aggregate, nil
}

// ReviewTimes retrieves the moments of the user's reviews since the given time, newest first
func (r *statsRepository) ReviewTimes(ctx context.Context, userID int, since time.Time) ([]time.Time, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT reviewed_at
		FROM review_history
		WHERE user_id = ? AND reviewed_at >= ?
		ORDER BY reviewed_at DESC
	`, userID, since)
	if err != nil {
		r.logger.Error("failed to query review times", zap.Int("userId", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to query review times: %w", err)
	}
	defer rows.Close()

	var times []time.Time
	for rows.Next() {
		var reviewedAt time.Time
		if err := rows.Scan(&reviewedAt); err != nil {
			return nil, fmt.Errorf("failed to scan review time: %w", err)
		}
		times = append(times, reviewedAt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return times, nil
}

// CountDue counts (card, direction) pairs due on "today" per direction
//
// Only decks viewable by the user are counted: their own decks and the shared decks of partnerID
// (0 when the user has no partner). "deckID" limits the count to one deck; 0 means all viewable decks.
func (r *statsRepository) CountDue(ctx context.Context, userID, partnerID, deckID int, today time.Time) (map[models.Direction]int, error) {
	query := `
		SELECT dir.direction, COUNT(*)
		FROM cards c
		JOIN decks d ON d.id = c.deck_id
		CROSS JOIN (SELECT 'A_TO_B' AS direction UNION ALL SELECT 'B_TO_A') dir
		LEFT JOIN scheduling_states s
			ON s.card_id = c.id AND s.user_id = ? AND s.direction = dir.direction
		WHERE (d.owner_id = ? OR (d.owner_id = ? AND d.shared = TRUE))
			AND (s.next_due IS NULL OR s.next_due <= ?)
	`
	args := []any{userID, userID, partnerID, today}
	if deckID != 0 {
		query += " AND d.id = ?"
		args = append(args, deckID)
	}
	query += " GROUP BY dir.direction"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to count due cards", zap.Int("userId", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to count due cards: %w", err)
	}
	defer rows.Close()

	due := map[models.Direction]int{
		models.DirectionAToB: 0,
		models.DirectionBToA: 0,
	}
	for rows.Next() {
		var direction models.Direction
		var count int
		if err := rows.Scan(&direction, &count); err != nil {
			return nil, fmt.Errorf("failed to scan due count: %w", err)
		}
		due[direction] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return due, nil
}

// CountCards counts the cards of a deck
func (r *statsRepository) CountCards(ctx context.Context, deckID int) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cards WHERE deck_id = ?`, deckID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count cards: %w", err)
	}

	return count, nil
}
