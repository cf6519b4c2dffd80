package activity

import "time"

// Actions recorded by the HTTP handlers. The action string is stored verbatim.
const (
	ActionRelationshipCreated = "relationship.created"
	ActionRelationshipUpdated = "relationship.updated"
	ActionRelationshipDeleted = "relationship.deleted"
	ActionInvitationCreated   = "invitation.created"
	ActionInvitationAccepted  = "invitation.accepted"
	ActionInvitationDeclined  = "invitation.declined"
	ActionInvitationRevoked   = "invitation.revoked"
	ActionInvitationExpired   = "invitation.expired"
	ActionUserUpdated         = "user.updated"
)

// Object types referenced by events.
const (
	ObjectRelationship = "relationship"
	ObjectInvitation   = "invitation"
	ObjectUser         = "user"
)

// Event is a single entry in a user's activity feed. ActorID names the user
// whose feed the event belongs to, which is not always the user who performed
// the action: a declined invitation lands on the inviter's feed.
type Event struct {
	ID         int64     `json:"id"`
	ActorID    string    `json:"actor_id"`
	Action     string    `json:"action"`
	ObjectType string    `json:"object_type"`
	ObjectID   string    `json:"object_id"`
	Detail     string    `json:"detail,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Query defines filters and pagination for listing events.
type Query struct {
	From   time.Time `json:"from"`
	To     time.Time `json:"to"`
	Cursor string    `json:"cursor,omitempty"`
	Limit  int       `json:"limit"`
}
