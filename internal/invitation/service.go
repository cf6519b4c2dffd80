package invitation

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ultracrew/ultracrew/internal/auth"
	"github.com/ultracrew/ultracrew/internal/relationship"
	"github.com/ultracrew/ultracrew/internal/user"
)

// Validation and state-machine errors returned by the Service layer.
var (
	ErrEmailRequired       = errors.New("invitee_email is required")
	ErrEmailInvalid        = errors.New("invitee_email is not a valid email address")
	ErrSelfInvite          = errors.New("cannot invite yourself")
	ErrInvalidStatusFilter = errors.New("status must be one of: pending, accepted, declined, revoked, expired")
	ErrTokenInvalid        = errors.New("invitation token is not valid")
	ErrTokenExpired        = errors.New("invitation has expired")
	ErrAlreadyAccepted     = errors.New("invitation was already accepted")
	ErrAlreadyDeclined     = errors.New("invitation was already declined")
	ErrInvalidStatus       = errors.New("invitation is not pending")
	ErrNotInviter          = errors.New("only the inviter may revoke an invitation")
	ErrInviteeNotFound     = errors.New("no account exists for the invited email")
	ErrRoleMismatch        = errors.New("invited user holds the same role as the inviter")
)

// Service drives the invitation state machine. Possession of a raw token
// substitutes for authentication on the accept and decline paths; revoke
// requires the session-authenticated inviter.
type Service struct {
	store         *Store
	relationships *relationship.Store
	users         *user.Store
	expiry        time.Duration
	linkTemplate  string
	now           func() time.Time
}

// NewService creates the invitation engine. linkTemplate may be empty, in
// which case no invite link is produced; when set, {token} is its only
// permitted placeholder.
func NewService(store *Store, relationships *relationship.Store, users *user.Store, expiry time.Duration, linkTemplate string) (*Service, error) {
	if expiry <= 0 {
		expiry = 7 * 24 * time.Hour
	}
	for _, v := range LinkVars(linkTemplate) {
		if v != "token" {
			return nil, fmt.Errorf("link template has unsupported placeholder %q", v)
		}
	}
	return &Service{
		store:         store,
		relationships: relationships,
		users:         users,
		expiry:        expiry,
		linkTemplate:  linkTemplate,
		now:           time.Now,
	}, nil
}

// Invite issues a new invitation from the caller. It returns the stored
// invitation, the raw token, and the resolved invite link. The raw token is
// not recoverable after this call; only its hash is persisted.
func (s *Service) Invite(ctx context.Context, inviter *auth.User, in CreateInvitationInput) (*Invitation, string, string, error) {
	in.InviteeEmail = strings.TrimSpace(in.InviteeEmail)
	if err := validateInvite(inviter, in); err != nil {
		return nil, "", "", err
	}

	raw, err := generateToken()
	if err != nil {
		return nil, "", "", err
	}

	inv, err := s.store.Create(ctx, inviter.ID, in.InviteeEmail, hashToken(raw), s.now().Add(s.expiry))
	if err != nil {
		return nil, "", "", err
	}

	link := ""
	if s.linkTemplate != "" {
		link, err = ResolveLink(s.linkTemplate, map[string]string{"token": raw})
		if err != nil {
			return nil, "", "", err
		}
	}
	return inv, raw, link, nil
}

// Accept redeems a raw token: it verifies the token, applies lazy expiry,
// and atomically marks the invitation accepted while creating (or
// re-marking) the coach/runner relationship with relationship_type invited.
// The invitee is resolved by the invited email and must hold the opposite
// role of the inviter.
func (s *Service) Accept(ctx context.Context, rawToken string) (*Invitation, *relationship.Relationship, error) {
	inv, err := s.lookupByToken(ctx, rawToken)
	if err != nil {
		return nil, nil, err
	}

	if inv.Status == StatusPending && inv.IsExpired(s.now()) {
		if _, err := s.store.MarkExpired(ctx, inv.ID); err != nil && !errors.Is(err, ErrNotPending) {
			return nil, nil, err
		}
		return nil, nil, ErrTokenExpired
	}
	if inv.Status != StatusPending {
		return nil, nil, classifyStatus(inv.Status)
	}

	inviter, err := s.users.GetByID(ctx, inv.InviterUserID)
	if err != nil {
		return nil, nil, err
	}
	invitee, err := s.users.GetByEmail(ctx, inv.InviteeEmail)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrInviteeNotFound
		}
		return nil, nil, err
	}
	if invitee.UserType == inviter.UserType {
		return nil, nil, ErrRoleMismatch
	}

	coachID, runnerID := relationship.ResolvePair(inviter.UserType, inviter.ID, invitee.ID)

	var rel *relationship.Relationship
	accepted, err := s.store.AcceptTx(ctx, inv.ID, func(tx pgx.Tx) error {
		var txErr error
		rel, txErr = s.relationships.UpsertInvitedTx(ctx, tx, coachID, runnerID, inviter.UserType)
		return txErr
	})
	if err != nil {
		if errors.Is(err, ErrNotPending) {
			// Lost a token-replay race; the winning call accepted it.
			return nil, nil, ErrAlreadyAccepted
		}
		return nil, nil, err
	}
	return accepted, rel, nil
}

// Decline records a decline, optionally with a reason. Token possession is
// the only authorization. Declining a pending-but-overdue invitation flips
// it to expired and reports success, so stale links can be cleaned up
// idempotently.
func (s *Service) Decline(ctx context.Context, rawToken, reason string) (*Invitation, error) {
	inv, err := s.lookupByToken(ctx, rawToken)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if inv.Status == StatusPending && inv.IsExpired(now) {
		expired, err := s.store.MarkExpired(ctx, inv.ID)
		if errors.Is(err, ErrNotPending) {
			return s.afterLostRace(ctx, inv.ID)
		}
		if err != nil {
			return nil, err
		}
		return expired, nil
	}
	if inv.Status == StatusExpired {
		return inv, nil
	}
	if inv.Status != StatusPending {
		return nil, classifyStatus(inv.Status)
	}

	declined, err := s.store.MarkDeclined(ctx, inv.ID, reason, now)
	if errors.Is(err, ErrNotPending) {
		return s.afterLostRace(ctx, inv.ID)
	}
	if err != nil {
		return nil, err
	}
	return declined, nil
}

// Revoke withdraws a pending invitation. Only the inviter may revoke; any
// non-pending state is rejected with ErrInvalidStatus.
func (s *Service) Revoke(ctx context.Context, caller *auth.User, id string) (*Invitation, error) {
	inv, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.InviterUserID != caller.ID {
		return nil, ErrNotInviter
	}

	if inv.Status == StatusPending && inv.IsExpired(s.now()) {
		if _, err := s.store.MarkExpired(ctx, inv.ID); err != nil && !errors.Is(err, ErrNotPending) {
			return nil, err
		}
		return nil, ErrInvalidStatus
	}
	if inv.Status != StatusPending {
		return nil, ErrInvalidStatus
	}

	revoked, err := s.store.MarkRevoked(ctx, inv.ID)
	if errors.Is(err, ErrNotPending) {
		return nil, ErrInvalidStatus
	}
	if err != nil {
		return nil, err
	}
	return revoked, nil
}

// ListMine returns the caller's issued invitations, flipping overdue pending
// rows to expired first so the listing never shows a stale state.
func (s *Service) ListMine(ctx context.Context, caller *auth.User, status string) ([]*Invitation, error) {
	if status != "" && !ValidStatus(status) {
		return nil, ErrInvalidStatusFilter
	}
	if _, err := s.store.ExpirePending(ctx, caller.ID, s.now()); err != nil {
		return nil, err
	}
	return s.store.ListByInviter(ctx, caller.ID, status)
}

// lookupByToken hashes the raw token, fetches the matching row, and
// re-verifies the hash in constant time.
func (s *Service) lookupByToken(ctx context.Context, rawToken string) (*Invitation, error) {
	if rawToken == "" {
		return nil, ErrTokenInvalid
	}
	hash := hashToken(rawToken)
	inv, err := s.store.GetByTokenHash(ctx, hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTokenInvalid
		}
		return nil, err
	}
	if !tokensEqual(hash, inv.TokenHash) {
		return nil, ErrTokenInvalid
	}
	return inv, nil
}

// afterLostRace re-reads an invitation after a guarded transition matched no
// row and maps the winner's final state onto this call's outcome. A decline
// that raced with lazy expiry still succeeds.
func (s *Service) afterLostRace(ctx context.Context, id string) (*Invitation, error) {
	latest, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if latest.Status == StatusExpired {
		return latest, nil
	}
	return nil, classifyStatus(latest.Status)
}

// classifyStatus maps a terminal invitation status onto its rejection error.
func classifyStatus(status string) error {
	switch status {
	case StatusAccepted:
		return ErrAlreadyAccepted
	case StatusDeclined:
		return ErrAlreadyDeclined
	case StatusExpired:
		return ErrTokenExpired
	default:
		return ErrInvalidStatus
	}
}

// validateInvite checks the caller-controlled fields before any store access.
func validateInvite(inviter *auth.User, in CreateInvitationInput) error {
	if in.InviteeEmail == "" {
		return ErrEmailRequired
	}
	if _, err := mail.ParseAddress(in.InviteeEmail); err != nil {
		return ErrEmailInvalid
	}
	if strings.EqualFold(in.InviteeEmail, inviter.Email) {
		return ErrSelfInvite
	}
	return nil
}
