package relationship

import (
	"context"
	"errors"
	"strings"

	"github.com/ultracrew/ultracrew/internal/auth"
	"github.com/ultracrew/ultracrew/internal/user"
)

// Validation errors returned by the Service layer.
var (
	ErrTargetRequired     = errors.New("target_user_id is required")
	ErrSelfPairing        = errors.New("cannot pair with yourself")
	ErrInvalidStatus      = errors.New("status must be one of: pending, active, inactive")
	ErrInvalidType        = errors.New("relationship_type must be one of: standard, invited")
	ErrTargetRoleMismatch = errors.New("target user must hold the opposite role")
	ErrCallerRoleUnknown  = errors.New("caller role is not recognized")
)

// Service provides validated business logic over the relationship Store.
// Every operation takes the authenticated caller; ids in request bodies are
// never trusted for identity.
type Service struct {
	store *Store
	users *user.Store
}

// NewService creates a new Service wrapping the given stores.
func NewService(store *Store, users *user.Store) *Service {
	return &Service{store: store, users: users}
}

// ResolvePair maps (caller, target) onto the directional (coach_id,
// runner_id) pair: a coach caller is always the coach side, a runner caller
// always the runner side.
func ResolvePair(callerRole, callerID, targetID string) (coachID, runnerID string) {
	if callerRole == auth.RoleCoach {
		return callerID, targetID
	}
	return targetID, callerID
}

// List returns the caller's relationships, optionally filtered by status.
func (s *Service) List(ctx context.Context, caller *auth.User, status string) ([]*ListItem, error) {
	if status != "" && !ValidStatus(status) {
		return nil, ErrInvalidStatus
	}
	return s.store.ListByUser(ctx, caller.ID, status)
}

// Create resolves the (coach_id, runner_id) pair from the caller's session
// role, verifies the target exists and holds the opposite role, and inserts
// a pending row with invited_by set to the caller's role.
func (s *Service) Create(ctx context.Context, caller *auth.User, in CreateRelationshipInput) (*Relationship, error) {
	if in.RelationshipType == "" {
		in.RelationshipType = TypeStandard
	}
	if err := validateCreate(caller, in); err != nil {
		return nil, err
	}

	target, err := s.users.GetByID(ctx, in.TargetUserID)
	if err != nil {
		return nil, err
	}
	if target.UserType != auth.OppositeRole(caller.Role) {
		return nil, ErrTargetRoleMismatch
	}

	coachID, runnerID := ResolvePair(caller.Role, caller.ID, target.ID)
	return s.store.Create(ctx, CreateParams{
		CoachID:          coachID,
		RunnerID:         runnerID,
		RelationshipType: in.RelationshipType,
		InvitedBy:        caller.Role,
		Notes:            in.Notes,
	})
}

// Get retrieves a relationship the caller participates in. Non-participants
// observe the same error as for a missing row.
func (s *Service) Get(ctx context.Context, caller *auth.User, id string) (*Relationship, error) {
	return s.store.GetByParticipant(ctx, id, caller.ID)
}

// Update applies a partial update to a relationship the caller participates
// in. Non-participants observe the same error as for a missing row.
func (s *Service) Update(ctx context.Context, caller *auth.User, id string, in UpdateRelationshipInput) (*Relationship, error) {
	if err := validateUpdate(in); err != nil {
		return nil, err
	}
	return s.store.UpdateByParticipant(ctx, id, caller.ID, in)
}

// Delete hard-deletes a relationship the caller participates in.
func (s *Service) Delete(ctx context.Context, caller *auth.User, id string) error {
	return s.store.DeleteByParticipant(ctx, id, caller.ID)
}

// AvailableCoaches lists coaches not yet paired, in any status, with the
// calling runner.
func (s *Service) AvailableCoaches(ctx context.Context, runnerID string) ([]*OtherParty, error) {
	return s.store.AvailableCoaches(ctx, runnerID)
}

// AvailableRunners lists runners not yet paired, in any status, with the
// calling coach.
func (s *Service) AvailableRunners(ctx context.Context, coachID string) ([]*OtherParty, error) {
	return s.store.AvailableRunners(ctx, coachID)
}

// validateCreate checks the caller-controlled fields before any store access.
func validateCreate(caller *auth.User, in CreateRelationshipInput) error {
	if !auth.ValidRole(caller.Role) {
		return ErrCallerRoleUnknown
	}
	if strings.TrimSpace(in.TargetUserID) == "" {
		return ErrTargetRequired
	}
	if in.TargetUserID == caller.ID {
		return ErrSelfPairing
	}
	if !ValidType(in.RelationshipType) {
		return ErrInvalidType
	}
	return nil
}

// validateUpdate checks that any provided fields are valid.
func validateUpdate(in UpdateRelationshipInput) error {
	if in.Status != nil && !ValidStatus(*in.Status) {
		return ErrInvalidStatus
	}
	return nil
}
