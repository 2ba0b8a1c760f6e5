package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/flashpair/backend/internal/models"
	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

// mysqlDuplicateEntry is the MySQL error number of a unique key violation
const mysqlDuplicateEntry = 1062

type partnershipRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPartnershipRepository creates a new partnership repository
func NewPartnershipRepository(db *sql.DB, logger *zap.Logger) *partnershipRepository {
	return &partnershipRepository{
		db:     db,
		logger: logger,
	}
}

// GetActiveByUser retrieves the active partnership of a user
//
// Returns nil and no error if the user has no active partnership.
func (r *partnershipRepository) GetActiveByUser(ctx context.Context, userID int) (*models.Partnership, error) {
	query := `
		SELECT p.id, p.user_a, p.user_b, p.is_active, p.created_at
		FROM partnership_members m
		JOIN partnerships p ON p.id = m.partnership_id
		WHERE m.user_id = ? AND p.is_active = TRUE
	`

	var partnership models.Partnership
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&partnership.ID, &partnership.UserA, &partnership.UserB, &partnership.Active, &partnership.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("failed to get active partnership", zap.Int("userId", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to get active partnership: %w", err)
	}

	return &partnership, nil
}

// AcceptInvitation turns the latest pending invitation with the given code into a partnership
//
// The invitation row is locked, so a code can be accepted only once.
// Errors are checked in this order: models.ErrInvalidCode, models.ErrExpired,
// models.ErrSelfInvitation and models.ErrAlreadyPartnered (either party already has a partner).
func (r *partnershipRepository) AcceptInvitation(ctx context.Context, code string, userID int, now time.Time) (*models.Partnership, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var invitation models.PartnershipInvitation
	err = tx.QueryRowContext(ctx, `
		SELECT id, code, inviter_id, created_at, expires_at
		FROM partnership_invitations
		WHERE code = ? AND accepted_by IS NULL
		ORDER BY created_at DESC, id DESC
		LIMIT 1
		FOR UPDATE
	`, code).Scan(&invitation.ID, &invitation.Code, &invitation.InviterID, &invitation.CreatedAt, &invitation.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrInvalidCode
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock invitation: %w", err)
	}

	if invitation.IsExpired(now) {
		return nil, models.ErrExpired
	}
	if invitation.InviterID == userID {
		return nil, models.ErrSelfInvitation
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO partnerships (user_a, user_b, is_active, created_at)
		VALUES (?, ?, TRUE, ?)
	`, invitation.InviterID, userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert partnership: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get partnership id: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO partnership_members (user_id, partnership_id)
		VALUES (?, ?), (?, ?)
	`, invitation.InviterID, id, userID, id); err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
			return nil, models.ErrAlreadyPartnered
		}
		return nil, fmt.Errorf("failed to insert partnership members: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE partnership_invitations SET accepted_by = ?, accepted_at = ? WHERE id = ?
	`, userID, now, invitation.ID); err != nil {
		return nil, fmt.Errorf("failed to mark invitation accepted: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.Partnership{
		ID:        int(id),
		UserA:     invitation.InviterID,
		UserB:     userID,
		Active:    true,
		CreatedAt: now,
	}, nil
}

// Dissolve deactivates a partnership and reverts the shared decks of both members to personal
//
// Returns models.ErrNotPartnered if the partnership is no longer active.
func (r *partnershipRepository) Dissolve(ctx context.Context, partnership *models.Partnership, now time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE partnerships SET is_active = FALSE, dissolved_at = ? WHERE id = ? AND is_active = TRUE
	`, now, partnership.ID)
	if err != nil {
		return fmt.Errorf("failed to deactivate partnership: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return models.ErrNotPartnered
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM partnership_members WHERE partnership_id = ?
	`, partnership.ID); err != nil {
		return fmt.Errorf("failed to delete partnership members: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE decks SET shared = FALSE, updated_at = ? WHERE owner_id IN (?, ?) AND shared = TRUE
	`, now, partnership.UserA, partnership.UserB); err != nil {
		return fmt.Errorf("failed to unshare decks: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Info("partnership dissolved", zap.Int("partnershipId", partnership.ID))
	return nil
}
