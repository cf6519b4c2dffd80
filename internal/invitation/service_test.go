package invitation

import (
	"errors"
	"testing"
	"time"

	"github.com/ultracrew/ultracrew/internal/auth"
)

func TestValidateInvite(t *testing.T) {
	inviter := &auth.User{ID: "u1", Email: "coach@example.com", Role: auth.RoleCoach}

	tests := []struct {
		name    string
		input   CreateInvitationInput
		wantErr error
	}{
		{
			name:    "valid email",
			input:   CreateInvitationInput{InviteeEmail: "runner@example.com"},
			wantErr: nil,
		},
		{
			name:    "empty email",
			input:   CreateInvitationInput{InviteeEmail: ""},
			wantErr: ErrEmailRequired,
		},
		{
			name:    "malformed email",
			input:   CreateInvitationInput{InviteeEmail: "not-an-email"},
			wantErr: ErrEmailInvalid,
		},
		{
			name:    "missing domain",
			input:   CreateInvitationInput{InviteeEmail: "runner@"},
			wantErr: ErrEmailInvalid,
		},
		{
			name:    "self invite",
			input:   CreateInvitationInput{InviteeEmail: "coach@example.com"},
			wantErr: ErrSelfInvite,
		},
		{
			name:    "self invite different case",
			input:   CreateInvitationInput{InviteeEmail: "Coach@Example.com"},
			wantErr: ErrSelfInvite,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateInvite(inviter, tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("validateInvite() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status  string
		wantErr error
	}{
		{StatusAccepted, ErrAlreadyAccepted},
		{StatusDeclined, ErrAlreadyDeclined},
		{StatusExpired, ErrTokenExpired},
		{StatusRevoked, ErrInvalidStatus},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			if err := classifyStatus(tt.status); !errors.Is(err, tt.wantErr) {
				t.Errorf("classifyStatus(%q) = %v, want %v", tt.status, err, tt.wantErr)
			}
		})
	}
}

func TestIsExpired(t *testing.T) {
	deadline := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	inv := &Invitation{ExpiresAt: deadline}

	if inv.IsExpired(deadline.Add(-time.Minute)) {
		t.Error("invitation should not be expired before its deadline")
	}
	if inv.IsExpired(deadline) {
		t.Error("invitation should not be expired at the exact deadline")
	}
	if !inv.IsExpired(deadline.Add(time.Second)) {
		t.Error("invitation should be expired past its deadline")
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []string{StatusPending, StatusAccepted, StatusDeclined, StatusRevoked, StatusExpired} {
		if !ValidStatus(s) {
			t.Errorf("ValidStatus(%q) = false, want true", s)
		}
	}
	for _, s := range []string{"", "active", "Pending", "cancelled"} {
		if ValidStatus(s) {
			t.Errorf("ValidStatus(%q) = true, want false", s)
		}
	}
}

func TestNewService_LinkTemplate(t *testing.T) {
	tests := []struct {
		name    string
		tmpl    string
		wantErr bool
	}{
		{"empty template", "", false},
		{"token placeholder", "https://example.com/invites/{token}", false},
		{"unknown placeholder", "https://example.com/{token}/{team}", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewService(nil, nil, nil, time.Hour, tt.tmpl)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewService() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
