package user

import (
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func TestCheckPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse battery staple"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	u := &User{PasswordHash: string(hash)}

	if !CheckPassword(u, "correct horse battery staple") {
		t.Error("expected matching password to verify")
	}
	if CheckPassword(u, "wrong password") {
		t.Error("expected non-matching password to fail")
	}
	if CheckPassword(u, "") {
		t.Error("expected empty password to fail")
	}
}

func TestHashToken(t *testing.T) {
	h1 := hashToken("some-session-token")
	h2 := hashToken("some-session-token")
	if h1 != h2 {
		t.Error("expected identical tokens to hash identically")
	}
	if h1 == hashToken("other-token") {
		t.Error("expected different tokens to hash differently")
	}
	// SHA-256 hex digest.
	if len(h1) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(h1))
	}
	if h1 == "some-session-token" {
		t.Error("hash must differ from the plaintext token")
	}
}

func TestNewStoreSessionDuration(t *testing.T) {
	s := NewStore(nil, 0)
	if s.sessionDuration != defaultSessionDuration {
		t.Errorf("expected default session duration, got %v", s.sessionDuration)
	}

	s = NewStore(nil, time.Hour)
	if s.sessionDuration != time.Hour {
		t.Errorf("expected 1h session duration, got %v", s.sessionDuration)
	}
}
