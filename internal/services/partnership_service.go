package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/flashpair/backend/internal/models"
	"go.uber.org/zap"
)

const (
	invitationAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	maxCodeAttempts    = 10
)

// PartnershipRepository is the interface that wraps methods for partnerships data access
type PartnershipRepository interface {
	// Method GetActiveByUser returns "nil" without error if the user has no active partnership.
	GetActiveByUser(ctx context.Context, userID int) (*models.Partnership, error)
	// Method AcceptInvitation creates a partnership from the latest pending invitation with the code.
	//
	// Returns models.ErrInvalidCode, models.ErrExpired, models.ErrSelfInvitation or models.ErrAlreadyPartnered
	// when the invitation cannot be accepted.
	AcceptInvitation(ctx context.Context, code string, userID int, now time.Time) (*models.Partnership, error)
	// Method Dissolve deactivates the partnership and reverts the shared decks of both members to personal.
	Dissolve(ctx context.Context, partnership *models.Partnership, now time.Time) error
}

// InvitationRepository is the interface that wraps methods for partnership_invitations data access
type InvitationRepository interface {
	Create(ctx context.Context, invitation *models.PartnershipInvitation) error
	ActiveCodeExists(ctx context.Context, code string, now time.Time) (bool, error)
}

type partnershipService struct {
	partnerships  PartnershipRepository
	invitations   InvitationRepository
	clock         Clock
	invitationTTL time.Duration
	generateCode  func() (string, error)
	logger        *zap.Logger
}

// NewPartnershipService creates a new partnership registry
//
// "invitationTTL" is the lifetime of an invitation code.
func NewPartnershipService(partnerships PartnershipRepository, invitations InvitationRepository, clock Clock, invitationTTL time.Duration, logger *zap.Logger) *partnershipService {
	return &partnershipService{
		partnerships:  partnerships,
		invitations:   invitations,
		clock:         clock,
		invitationTTL: invitationTTL,
		generateCode:  generateInvitationCode,
		logger:        logger,
	}
}

// Invite issues a new invitation code for the user
//
// Returns models.ErrAlreadyPartnered if the user already has an active partnership.
func (s *partnershipService) Invite(ctx context.Context, userID int) (*models.PartnershipInvitation, error) {
	partnership, err := s.partnerships.GetActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if partnership != nil {
		return nil, models.ErrAlreadyPartnered
	}

	now := s.clock.Now().UTC()
	code, err := s.uniqueCode(ctx, now)
	if err != nil {
		return nil, err
	}

	invitation := &models.PartnershipInvitation{
		Code:      code,
		InviterID: userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.invitationTTL),
	}
	if err := s.invitations.Create(ctx, invitation); err != nil {
		return nil, err
	}

	s.logger.Info("partnership invitation created", zap.Int("userId", userID), zap.Int("invitationId", invitation.ID))
	return invitation, nil
}

// uniqueCode generates a code not used by any other active invitation
func (s *partnershipService) uniqueCode(ctx context.Context, now time.Time) (string, error) {
	for range maxCodeAttempts {
		code, err := s.generateCode()
		if err != nil {
			return "", fmt.Errorf("failed to generate invitation code: %w", err)
		}
		exists, err := s.invitations.ActiveCodeExists(ctx, code, now)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("failed to generate a unique invitation code after %d attempts", maxCodeAttempts)
}

// Accept turns an invitation code into a partnership between its creator and the user
//
// The code is case-insensitive. Deck sharing flags are not changed.
func (s *partnershipService) Accept(ctx context.Context, userID int, code string) (*models.Partnership, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != models.InvitationCodeLength {
		return nil, models.ErrInvalidCode
	}

	partnership, err := s.partnerships.AcceptInvitation(ctx, code, userID, s.clock.Now().UTC())
	if err != nil {
		return nil, err
	}

	s.logger.Info("partnership created",
		zap.Int("partnershipId", partnership.ID),
		zap.Int("userA", partnership.UserA),
		zap.Int("userB", partnership.UserB),
	)
	return partnership, nil
}

// Dissolve ends the active partnership of the user
//
// Every shared deck of both members reverts to personal. Returns models.ErrNotPartnered if there is nothing to dissolve.
func (s *partnershipService) Dissolve(ctx context.Context, userID int) error {
	partnership, err := s.partnerships.GetActiveByUser(ctx, userID)
	if err != nil {
		return err
	}
	if partnership == nil {
		return models.ErrNotPartnered
	}

	return s.partnerships.Dissolve(ctx, partnership, s.clock.Now().UTC())
}

// Get returns the active partnership of the user as seen by them
func (s *partnershipService) Get(ctx context.Context, userID int) (*models.PartnershipView, error) {
	partnership, err := s.partnerships.GetActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if partnership == nil {
		return nil, models.ErrNotPartnered
	}

	partnerID, _ := partnership.PartnerOf(userID)
	return &models.PartnershipView{
		ID:        partnership.ID,
		PartnerID: partnerID,
		CreatedAt: partnership.CreatedAt,
	}, nil
}

// PartnerOf returns the current partner of the user
func (s *partnershipService) PartnerOf(ctx context.Context, userID int) (int, bool, error) {
	partnership, err := s.partnerships.GetActiveByUser(ctx, userID)
	if err != nil {
		return 0, false, err
	}
	if partnership == nil {
		return 0, false, nil
	}

	partnerID, ok := partnership.PartnerOf(userID)
	return partnerID, ok, nil
}

// generateInvitationCode returns a random code of uppercase letters and digits
func generateInvitationCode() (string, error) {
	limit := big.NewInt(int64(len(invitationAlphabet)))
	var b strings.Builder
	for range models.InvitationCodeLength {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b.WriteByte(invitationAlphabet[n.Int64()])
	}
	return b.String(), nil
}
