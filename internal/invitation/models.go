package invitation

import "time"

// Invitation status lifecycle. pending is the only non-terminal state;
// pending->expired is observed lazily at access time rather than by a sweep.
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusDeclined = "declined"
	StatusRevoked  = "revoked"
	StatusExpired  = "expired"
)

// Invitation represents a token-backed invite from a coach or runner to a
// counterpart identified by email. Only the token hash is stored.
type Invitation struct {
	ID            string     `json:"id"`
	InviterUserID string     `json:"inviter_user_id"`
	InviteeEmail  string     `json:"invitee_email"`
	TokenHash     string     `json:"-"`
	Status        string     `json:"status"`
	ExpiresAt     time.Time  `json:"expires_at"`
	DeclinedAt    *time.Time `json:"declined_at,omitempty"`
	DeclineReason string     `json:"decline_reason,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// IsExpired reports whether the invitation's deadline has passed at t.
func (i *Invitation) IsExpired(t time.Time) bool {
	return t.After(i.ExpiresAt)
}

// CreateInvitationInput holds the caller-facing fields for issuing an invite.
type CreateInvitationInput struct {
	InviteeEmail string `json:"invitee_email"`
}

// DeclineInput carries the optional free-text reason for a decline.
type DeclineInput struct {
	Reason string `json:"reason"`
}

// ValidStatus returns true if s is a recognized invitation status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusAccepted, StatusDeclined, StatusRevoked, StatusExpired:
		return true
	}
	return false
}
