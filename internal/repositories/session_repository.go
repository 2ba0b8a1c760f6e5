package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/flashpair/backend/internal/models"
	"go.uber.org/zap"
)

type sessionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSessionRepository creates a new study session repository
func NewSessionRepository(db *sql.DB, logger *zap.Logger) *sessionRepository {
	return &sessionRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores a session together with its frozen card list
func (r *sessionRepository) Create(ctx context.Context, session *models.StudySession) error {
	if len(session.Cards) == 0 {
		return fmt.Errorf("session has no cards")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO study_sessions (id, user_id, deck_id, policy, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, session.ID, session.UserID, session.DeckID, session.Policy, session.Status, session.StartedAt); err != nil {
		r.logger.Error("failed to insert study session", zap.String("sessionId", session.ID), zap.Error(err))
		return fmt.Errorf("failed to insert study session: %w", err)
	}

	// Build placeholders and args for batch insert
	placeholders := make([]string, len(session.Cards))
	args := []any{}
	for i, card := range session.Cards {
		placeholders[i] = "(?, ?, ?, ?)"
		args = append(args, session.ID, card.Position, card.CardID, card.Direction)
	}

	query := fmt.Sprintf(`
		INSERT INTO study_session_cards (session_id, position, card_id, direction)
		VALUES %s
	`, strings.Join(placeholders, ","))

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("failed to insert study session cards", zap.String("sessionId", session.ID), zap.Error(err))
		return fmt.Errorf("failed to insert study session cards: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a session with its card list and submitted outcomes
//
// Returns models.ErrNotFound if the session does not exist.
func (r *sessionRepository) GetByID(ctx context.Context, id string) (*models.StudySession, error) {
	var session models.StudySession
	var endedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, deck_id, policy, status, started_at, ended_at
		FROM study_sessions
		WHERE id = ?
	`, id).Scan(&session.ID, &session.UserID, &session.DeckID, &session.Policy, &session.Status, &session.StartedAt, &endedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to get study session", zap.String("sessionId", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get study session: %w", err)
	}
	if endedAt.Valid {
		session.EndedAt = &endedAt.Time
	}

	if session.Cards, err = r.getCards(ctx, id); err != nil {
		return nil, err
	}
	if session.Outcomes, err = r.getOutcomes(ctx, id); err != nil {
		return nil, err
	}

	return &session, nil
}

func (r *sessionRepository) getCards(ctx context.Context, sessionID string) ([]models.SessionCard, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT position, card_id, direction
		FROM study_session_cards
		WHERE session_id = ?
		ORDER BY position
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query study session cards: %w", err)
	}
	defer rows.Close()

	cards := []models.SessionCard{}
	for rows.Next() {
		var card models.SessionCard
		if err := rows.Scan(&card.Position, &card.CardID, &card.Direction); err != nil {
			return nil, fmt.Errorf("failed to scan study session card: %w", err)
		}
		cards = append(cards, card)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return cards, nil
}

func (r *sessionRepository) getOutcomes(ctx context.Context, sessionID string) ([]models.SessionOutcome, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT card_id, direction, quality, time_spent, reviewed_at
		FROM study_session_results
		WHERE session_id = ?
		ORDER BY reviewed_at, card_id
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query study session results: %w", err)
	}
	defer rows.Close()

	outcomes := []models.SessionOutcome{}
	for rows.Next() {
		var outcome models.SessionOutcome
		if err := rows.Scan(&outcome.CardID, &outcome.Direction, &outcome.Quality, &outcome.TimeSpent, &outcome.ReviewedAt); err != nil {
			return nil, fmt.Errorf("failed to scan study session result: %w", err)
		}
		outcomes = append(outcomes, outcome)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return outcomes, nil
}

// SubmitReview records the outcome of one session card and updates its scheduling state
//
// The session row stays locked for the whole transaction, so a card can be submitted at most once.
// "entry" must carry SessionID, UserID, CardID, Quality, TimeSpent and ReviewedAt; the direction
// is taken from the session card list.
// Returns models.ErrNotFound if the session does not exist or belongs to another user,
// models.ErrNotInSession if the card is not in the session list and
// models.ErrAlreadyReviewed if the card already has an outcome.
func (r *sessionRepository) SubmitReview(
	ctx context.Context,
	entry models.ReviewHistory,
	today time.Time,
	apply func(models.SchedulingState) (models.SchedulingState, error),
) (*models.ReviewResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var ownerID int
	err = tx.QueryRowContext(ctx, `SELECT user_id FROM study_sessions WHERE id = ? FOR UPDATE`, entry.SessionID).Scan(&ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock study session: %w", err)
	}
	if ownerID != entry.UserID {
		return nil, models.ErrNotFound
	}

	err = tx.QueryRowContext(ctx, `
		SELECT direction FROM study_session_cards WHERE session_id = ? AND card_id = ?
	`, entry.SessionID, entry.CardID).Scan(&entry.Direction)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotInSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get study session card: %w", err)
	}

	var reviewed int
	if err := tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM study_session_results WHERE session_id = ? AND card_id = ?
	`, entry.SessionID, entry.CardID).Scan(&reviewed); err != nil {
		return nil, fmt.Errorf("failed to check study session result: %w", err)
	}
	if reviewed > 0 {
		return nil, models.ErrAlreadyReviewed
	}

	state, err := applyReviewTx(ctx, tx, &entry, today, apply)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO study_session_results (session_id, card_id, direction, quality, time_spent, reviewed_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, entry.SessionID, entry.CardID, entry.Direction, entry.Quality, entry.TimeSpent, entry.ReviewedAt); err != nil {
		return nil, fmt.Errorf("failed to insert study session result: %w", err)
	}

	var total, done int
	if err := tx.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM study_session_cards WHERE session_id = ?),
			(SELECT COUNT(*) FROM study_session_results WHERE session_id = ?)
	`, entry.SessionID, entry.SessionID).Scan(&total, &done); err != nil {
		return nil, fmt.Errorf("failed to count study session progress: %w", err)
	}

	result := &models.ReviewResult{State: state, Remaining: total - done}
	if result.Remaining <= 0 {
		if _, err := tx.ExecContext(ctx, `
			UPDATE study_sessions SET status = ?, ended_at = ? WHERE id = ?
		`, models.SessionStatusCompleted, entry.ReviewedAt, entry.SessionID); err != nil {
			return nil, fmt.Errorf("failed to complete study session: %w", err)
		}
		result.SessionCompleted = true
		result.Remaining = 0
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return result, nil
}

// DeleteStale removes sessions still in progress that started before "before"
//
// Returns the number of deleted sessions.
func (r *sessionRepository) DeleteStale(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM study_sessions WHERE status = ? AND started_at < ?
	`, models.SessionStatusInProgress, before)
	if err != nil {
		r.logger.Error("failed to delete stale study sessions", zap.Error(err))
		return 0, fmt.Errorf("failed to delete stale study sessions: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}
