package relationship

import (
	"errors"
	"testing"

	"github.com/ultracrew/ultracrew/internal/auth"
)

func TestResolvePair(t *testing.T) {
	tests := []struct {
		name       string
		callerRole string
		callerID   string
		targetID   string
		wantCoach  string
		wantRunner string
	}{
		{
			name:       "coach caller takes coach side",
			callerRole: auth.RoleCoach,
			callerID:   "coach-1",
			targetID:   "runner-1",
			wantCoach:  "coach-1",
			wantRunner: "runner-1",
		},
		{
			name:       "runner caller takes runner side",
			callerRole: auth.RoleRunner,
			callerID:   "runner-1",
			targetID:   "coach-1",
			wantCoach:  "coach-1",
			wantRunner: "runner-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coachID, runnerID := ResolvePair(tt.callerRole, tt.callerID, tt.targetID)
			if coachID != tt.wantCoach {
				t.Errorf("coachID = %q, want %q", coachID, tt.wantCoach)
			}
			if runnerID != tt.wantRunner {
				t.Errorf("runnerID = %q, want %q", runnerID, tt.wantRunner)
			}
		})
	}
}

func TestResolvePair_SamePairBothDirections(t *testing.T) {
	// A coach initiating toward a runner and that runner initiating toward
	// the same coach must resolve to the identical (coach_id, runner_id)
	// pair, so the unique index catches the duplicate either way.
	c1, r1 := ResolvePair(auth.RoleCoach, "c", "r")
	c2, r2 := ResolvePair(auth.RoleRunner, "r", "c")
	if c1 != c2 || r1 != r2 {
		t.Errorf("pair differs by direction: (%s,%s) vs (%s,%s)", c1, r1, c2, r2)
	}
}

func TestValidateCreate(t *testing.T) {
	coach := &auth.User{ID: "u1", Role: auth.RoleCoach}

	tests := []struct {
		name    string
		caller  *auth.User
		input   CreateRelationshipInput
		wantErr error
	}{
		{
			name:    "valid standard",
			caller:  coach,
			input:   CreateRelationshipInput{TargetUserID: "u2", RelationshipType: TypeStandard},
			wantErr: nil,
		},
		{
			name:    "valid invited",
			caller:  coach,
			input:   CreateRelationshipInput{TargetUserID: "u2", RelationshipType: TypeInvited},
			wantErr: nil,
		},
		{
			name:    "missing target",
			caller:  coach,
			input:   CreateRelationshipInput{TargetUserID: "  ", RelationshipType: TypeStandard},
			wantErr: ErrTargetRequired,
		},
		{
			name:    "self pairing",
			caller:  coach,
			input:   CreateRelationshipInput{TargetUserID: "u1", RelationshipType: TypeStandard},
			wantErr: ErrSelfPairing,
		},
		{
			name:    "bad relationship type",
			caller:  coach,
			input:   CreateRelationshipInput{TargetUserID: "u2", RelationshipType: "mentor"},
			wantErr: ErrInvalidType,
		},
		{
			name:    "unknown caller role",
			caller:  &auth.User{ID: "u1", Role: "admin"},
			input:   CreateRelationshipInput{TargetUserID: "u2", RelationshipType: TypeStandard},
			wantErr: ErrCallerRoleUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateCreate(tt.caller, tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("validateCreate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateUpdate(t *testing.T) {
	active := StatusActive
	bogus := "archived"
	notes := "long run on Saturdays"

	tests := []struct {
		name    string
		input   UpdateRelationshipInput
		wantErr error
	}{
		{"empty update", UpdateRelationshipInput{}, nil},
		{"valid status", UpdateRelationshipInput{Status: &active}, nil},
		{"notes only", UpdateRelationshipInput{Notes: &notes}, nil},
		{"invalid status", UpdateRelationshipInput{Status: &bogus}, ErrInvalidStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateUpdate(tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("validateUpdate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidStatus(t *testing.T) {
	valid := []string{StatusPending, StatusActive, StatusInactive}
	for _, s := range valid {
		if !ValidStatus(s) {
			t.Errorf("ValidStatus(%q) = false, want true", s)
		}
	}
	for _, s := range []string{"", "accepted", "Pending", "deleted"} {
		if ValidStatus(s) {
			t.Errorf("ValidStatus(%q) = true, want false", s)
		}
	}
}

func TestValidType(t *testing.T) {
	for _, s := range []string{TypeStandard, TypeInvited} {
		if !ValidType(s) {
			t.Errorf("ValidType(%q) = false, want true", s)
		}
	}
	for _, s := range []string{"", "mentor", "Standard"} {
		if ValidType(s) {
			t.Errorf("ValidType(%q) = true, want false", s)
		}
	}
}
