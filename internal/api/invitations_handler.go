package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"github.com/ultracrew/ultracrew/internal/activity"
	"github.com/ultracrew/ultracrew/internal/auth"
	"github.com/ultracrew/ultracrew/internal/invitation"
	"github.com/ultracrew/ultracrew/internal/metrics"
)

// invitationsHandler groups invitation HTTP handlers. Create, List and Revoke
// require a session; Accept and Decline are authorized by token possession.
type invitationsHandler struct {
	service  *invitation.Service
	recorder *activity.Recorder
	metrics  *metrics.Metrics
}

func newInvitationsHandler(svc *invitation.Service, recorder *activity.Recorder, m *metrics.Metrics) *invitationsHandler {
	return &invitationsHandler{service: svc, recorder: recorder, metrics: m}
}

// Create handles POST /api/v1/invitations.
func (h *invitationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller := auth.UserFromContext(r.Context())
	if caller == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated")
		return
	}

	var input invitation.CreateInvitationInput
	if err := readJSON(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}

	inv, rawToken, inviteURL, err := h.service.Invite(r.Context(), caller, input)
	if err != nil {
		if isInviteValidationError(err) {
			writeError(w, http.StatusUnprocessableEntity, "validation_error", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to create invitation")
		return
	}

	auditLog(r, "create", "invitation", inv.ID, "invitee_email", inv.InviteeEmail)
	h.recorder.Record(activity.Event{
		ActorID:    caller.ID,
		Action:     activity.ActionInvitationCreated,
		ObjectType: activity.ObjectInvitation,
		ObjectID:   inv.ID,
		Detail:     "invited " + inv.InviteeEmail,
	})
	h.metrics.IncInvitationEvent("created")

	// The raw token appears exactly once, in this response.
	resp := map[string]interface{}{
		"invitation": inv,
		"token":      rawToken,
	}
	if inviteURL != "" {
		resp["invite_url"] = inviteURL
	}
	writeJSON(w, http.StatusCreated, resp)
}

// List handles GET /api/v1/invitations.
func (h *invitationsHandler) List(w http.ResponseWriter, r *http.Request) {
	caller := auth.UserFromContext(r.Context())
	if caller == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated")
		return
	}

	status := r.URL.Query().Get("status")
	invs, err := h.service.ListMine(r.Context(), caller, status)
	if err != nil {
		if errors.Is(err, invitation.ErrInvalidStatusFilter) {
			writeError(w, http.StatusBadRequest, "invalid_params", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list invitations")
		return
	}

	if invs == nil {
		invs = []*invitation.Invitation{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"invitations": invs,
	})
}

// Revoke handles POST /api/v1/invitations/{id}/revoke.
func (h *invitationsHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	caller := auth.UserFromContext(r.Context())
	if caller == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_id", "invitation id is required")
		return
	}

	inv, err := h.service.Revoke(r.Context(), caller, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "not_found", "invitation not found")
			return
		}
		if errors.Is(err, invitation.ErrNotInviter) {
			writeError(w, http.StatusForbidden, "forbidden", err.Error())
			return
		}
		if errors.Is(err, invitation.ErrInvalidStatus) {
			writeError(w, http.StatusBadRequest, "invalid_status", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to revoke invitation")
		return
	}

	auditLog(r, "revoke", "invitation", inv.ID)
	h.recorder.Record(activity.Event{
		ActorID:    caller.ID,
		Action:     activity.ActionInvitationRevoked,
		ObjectType: activity.ObjectInvitation,
		ObjectID:   inv.ID,
		Detail:     "withdrew invite to " + inv.InviteeEmail,
	})
	h.metrics.IncInvitationEvent("revoked")

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"invitation": inv,
	})
}

// Accept handles POST /api/v1/invitations/accept/{token}. Possession of the
// raw token is the authorization; no session is required.
func (h *invitationsHandler) Accept(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	inv, rel, err := h.service.Accept(r.Context(), token)
	if err != nil {
		h.writeTokenError(w, err, "accept")
		return
	}

	// The invitee is the relationship participant who is not the inviter.
	inviteeID := rel.RunnerID
	if inviteeID == inv.InviterUserID {
		inviteeID = rel.CoachID
	}

	auditLog(r, "accept", "invitation", inv.ID, "invitee_id", inviteeID)
	h.recorder.Record(activity.Event{
		ActorID:    inviteeID,
		Action:     activity.ActionInvitationAccepted,
		ObjectType: activity.ObjectInvitation,
		ObjectID:   inv.ID,
		Detail:     "accepted invite from " + inv.InviterUserID,
	})
	h.metrics.IncInvitationEvent("accepted")

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"invitation":   inv,
		"relationship": rel,
	})
}

// Decline handles POST /api/v1/invitations/decline/{token}. The body is
// optional and may carry a reason. Declining an overdue invitation succeeds
// and reports the expired state instead.
func (h *invitationsHandler) Decline(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	var input invitation.DeclineInput
	if err := readJSON(r, &input); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}

	inv, err := h.service.Decline(r.Context(), token, input.Reason)
	if err != nil {
		h.writeTokenError(w, err, "decline")
		return
	}

	if inv.Status == invitation.StatusExpired {
		auditLog(r, "expire", "invitation", inv.ID)
		h.recorder.Record(activity.Event{
			ActorID:    inv.InviterUserID,
			Action:     activity.ActionInvitationExpired,
			ObjectType: activity.ObjectInvitation,
			ObjectID:   inv.ID,
			Detail:     "invite to " + inv.InviteeEmail + " expired",
		})
		h.metrics.IncInvitationEvent("expired")
	} else {
		detail := "invite to " + inv.InviteeEmail + " declined"
		if inv.DeclineReason != "" {
			detail += ": " + inv.DeclineReason
		}
		auditLog(r, "decline", "invitation", inv.ID)
		h.recorder.Record(activity.Event{
			ActorID:    inv.InviterUserID,
			Action:     activity.ActionInvitationDeclined,
			ObjectType: activity.ObjectInvitation,
			ObjectID:   inv.ID,
			Detail:     detail,
		})
		h.metrics.IncInvitationEvent("declined")
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"invitation": inv,
	})
}

// writeTokenError maps invitation state-machine errors onto the wire.
func (h *invitationsHandler) writeTokenError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, invitation.ErrTokenInvalid):
		writeError(w, http.StatusBadRequest, "token_invalid", err.Error())
	case errors.Is(err, invitation.ErrTokenExpired):
		h.metrics.IncInvitationEvent("expired")
		writeError(w, http.StatusBadRequest, "token_expired", err.Error())
	case errors.Is(err, invitation.ErrAlreadyAccepted):
		writeError(w, http.StatusBadRequest, "already_accepted", err.Error())
	case errors.Is(err, invitation.ErrAlreadyDeclined):
		writeError(w, http.StatusBadRequest, "already_declined", err.Error())
	case errors.Is(err, invitation.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "invalid_status", err.Error())
	case errors.Is(err, invitation.ErrInviteeNotFound):
		writeError(w, http.StatusNotFound, "not_found", "no account exists for the invited email; sign up first, then accept again")
	case errors.Is(err, invitation.ErrRoleMismatch):
		writeError(w, http.StatusUnprocessableEntity, "validation_error", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to "+action+" invitation")
	}
}

// isInviteValidationError checks whether the error is a known validation
// error from the invitation service.
func isInviteValidationError(err error) bool {
	return errors.Is(err, invitation.ErrEmailRequired) ||
		errors.Is(err, invitation.ErrEmailInvalid) ||
		errors.Is(err, invitation.ErrSelfInvite)
}
