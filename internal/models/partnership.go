package models

import "time"

// InvitationCodeLength is the number of characters of an invitation code
const InvitationCodeLength = 6

// Partnership links exactly two users
type Partnership struct {
	ID          int        `json:"id"`
	UserA       int        `json:"userA"`
	UserB       int        `json:"userB"`
	Active      bool       `json:"active"`
	CreatedAt   time.Time  `json:"createdAt"`
	DissolvedAt *time.Time `json:"dissolvedAt,omitempty"`
}

// PartnerOf returns the other member of the partnership.
// The second value is false if userID is not a member.
func (p *Partnership) PartnerOf(userID int) (int, bool) {
	switch userID {
	case p.UserA:
		return p.UserB, true
	case p.UserB:
		return p.UserA, true
	default:
		return 0, false
	}
}

// PartnershipView represents the active partnership as seen by one of its members
type PartnershipView struct {
	ID        int       `json:"id"`
	PartnerID int       `json:"partnerId"`
	CreatedAt time.Time `json:"createdAt"`
}

// PartnershipInvitation represents a single-use invitation code
type PartnershipInvitation struct {
	ID         int        `json:"id"`
	Code       string     `json:"code"`
	InviterID  int        `json:"inviterId"`
	CreatedAt  time.Time  `json:"createdAt"`
	ExpiresAt  time.Time  `json:"expiresAt"`
	AcceptedBy *int       `json:"acceptedBy,omitempty"`
	AcceptedAt *time.Time `json:"acceptedAt,omitempty"`
}

// IsExpired reports whether the invitation expired at the given moment
func (i *PartnershipInvitation) IsExpired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}

// AcceptInvitationRequest represents an invitation acceptance request
type AcceptInvitationRequest struct {
	Code string `json:"code" validate:"required"`
}

// PartnershipStatus represents the partnership state of the current user
type PartnershipStatus struct {
	Partnered   bool             `json:"partnered"`
	Partnership *PartnershipView `json:"partnership,omitempty"`
}
