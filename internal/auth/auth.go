package auth

import "context"

// Platform role values. A user has exactly one role.
const (
	RoleCoach  = "coach"
	RoleRunner = "runner"
)

// User represents an authenticated platform user resolved from a session.
// Handlers must derive the caller's identity and role from this value, never
// from ids supplied in a request body.
type User struct {
	ID    string
	Email string
	Name  string
	Role  string // "coach" or "runner"
}

// IsCoach returns true if the user holds the coach role.
func (u *User) IsCoach() bool {
	return u.Role == RoleCoach
}

// IsRunner returns true if the user holds the runner role.
func (u *User) IsRunner() bool {
	return u.Role == RoleRunner
}

// ValidRole returns true if s is a recognized role value.
func ValidRole(s string) bool {
	return s == RoleCoach || s == RoleRunner
}

// OppositeRole returns the counterpart role: runner for coach, coach for
// runner. Empty string for anything else.
func OppositeRole(role string) string {
	switch role {
	case RoleCoach:
		return RoleRunner
	case RoleRunner:
		return RoleCoach
	default:
		return ""
	}
}

// SessionLookup is the interface for resolving session tokens to users.
type SessionLookup interface {
	LookupSession(ctx context.Context, token string) (*User, error)
}
