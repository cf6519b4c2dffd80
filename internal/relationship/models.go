package relationship

import "time"

// Relationship status lifecycle.
const (
	StatusPending  = "pending"
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// How the relationship came to exist.
const (
	TypeStandard = "standard"
	TypeInvited  = "invited"
)

// Which side initiated the pairing.
const (
	InvitedByCoach  = "coach"
	InvitedByRunner = "runner"
)

// Relationship represents a coach/runner pairing. At most one row exists per
// (coach_id, runner_id) pair, enforced by a unique index.
type Relationship struct {
	ID               string    `json:"id"`
	CoachID          string    `json:"coach_id"`
	RunnerID         string    `json:"runner_id"`
	Status           string    `json:"status"`
	RelationshipType string    `json:"relationship_type"`
	InvitedBy        string    `json:"invited_by"`
	Notes            string    `json:"notes"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// OtherParty is the public projection of a paired (or pairable) user. It is
// embedded in list results as the counterpart's profile and returned as-is
// from the availability queries.
type OtherParty struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// ListItem is a relationship annotated with the caller's perspective.
type ListItem struct {
	Relationship
	IsCoach    bool       `json:"is_coach"`
	IsRunner   bool       `json:"is_runner"`
	OtherParty OtherParty `json:"other_party"`
}

// CreateRelationshipInput is the caller-facing input for creating a pairing.
// The counterpart ids are resolved from the caller's session role.
type CreateRelationshipInput struct {
	TargetUserID     string `json:"target_user_id"`
	RelationshipType string `json:"relationship_type"`
	Notes            string `json:"notes"`
}

// UpdateRelationshipInput holds optional fields for a partial update.
type UpdateRelationshipInput struct {
	Status *string `json:"status,omitempty"`
	Notes  *string `json:"notes,omitempty"`
}

// CreateParams is the resolved, store-level insert input.
type CreateParams struct {
	CoachID          string
	RunnerID         string
	RelationshipType string
	InvitedBy        string
	Notes            string
}

// ValidStatus returns true if s is a recognized relationship status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusActive, StatusInactive:
		return true
	}
	return false
}

// ValidType returns true if s is a recognized relationship type.
func ValidType(s string) bool {
	switch s {
	case TypeStandard, TypeInvited:
		return true
	}
	return false
}
