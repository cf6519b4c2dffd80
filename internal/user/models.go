package user

import "time"

// User represents a platform account. Every account is either a coach or a
// runner; the role lives in UserType and may change after signup.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	FullName     string    `json:"full_name"`
	UserType     string    `json:"user_type"` // "coach" or "runner"
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateUserInput holds the fields required to create a new user.
type CreateUserInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	UserType string `json:"user_type"`
}

// UpdateUserInput holds optional fields for a partial user update.
type UpdateUserInput struct {
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
	Name     *string `json:"name,omitempty"`
	FullName *string `json:"full_name,omitempty"`
	UserType *string `json:"user_type,omitempty"`
}

// Session represents an active user session. Only the SHA-256 hash of the
// opaque token is stored; the plaintext is returned once at creation.
type Session struct {
	TokenHash string    `json:"-"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
