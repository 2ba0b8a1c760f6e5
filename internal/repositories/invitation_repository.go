package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/flashpair/backend/internal/models"
	"go.uber.org/zap"
)

type invitationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewInvitationRepository creates a new partnership invitation repository
func NewInvitationRepository(db *sql.DB, logger *zap.Logger) *invitationRepository {
	return &invitationRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new invitation and sets its ID
func (r *invitationRepository) Create(ctx context.Context, invitation *models.PartnershipInvitation) error {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO partnership_invitations (code, inviter_id, created_at, expires_at)
		VALUES (?, ?, ?, ?)
	`, invitation.Code, invitation.InviterID, invitation.CreatedAt, invitation.ExpiresAt)
	if err != nil {
		r.logger.Error("failed to insert invitation", zap.Int("inviterId", invitation.InviterID), zap.Error(err))
		return fmt.Errorf("failed to insert invitation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get invitation id: %w", err)
	}
	invitation.ID = int(id)

	return nil
}

// ActiveCodeExists reports whether a pending, unexpired invitation already uses the code
func (r *invitationRepository) ActiveCodeExists(ctx context.Context, code string, now time.Time) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM partnership_invitations
		WHERE code = ? AND accepted_by IS NULL AND expires_at > ?
	`, code, now).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check invitation code: %w", err)
	}

	return count > 0, nil
}

// DeleteExpired removes never accepted invitations that expired before "before"
//
// Returns the number of deleted invitations.
func (r *invitationRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM partnership_invitations WHERE accepted_by IS NULL AND expires_at < ?
	`, before)
	if err != nil {
		r.logger.Error("failed to delete expired invitations", zap.Error(err))
		return 0, fmt.Errorf("failed to delete expired invitations: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}
