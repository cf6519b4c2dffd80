package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"github.com/ultracrew/ultracrew/internal/activity"
	"github.com/ultracrew/ultracrew/internal/auth"
	"github.com/ultracrew/ultracrew/internal/metrics"
	"github.com/ultracrew/ultracrew/internal/relationship"
)

// relationshipsHandler groups coach/runner pairing HTTP handlers.
type relationshipsHandler struct {
	service  *relationship.Service
	recorder *activity.Recorder
	metrics  *metrics.Metrics
}

func newRelationshipsHandler(svc *relationship.Service, recorder *activity.Recorder, m *metrics.Metrics) *relationshipsHandler {
	return &relationshipsHandler{service: svc, recorder: recorder, metrics: m}
}

// List handles GET /api/v1/relationships.
func (h *relationshipsHandler) List(w http.ResponseWriter, r *http.Request) {
	caller := auth.UserFromContext(r.Context())
	if caller == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated")
		return
	}

	status := r.URL.Query().Get("status")
	items, err := h.service.List(r.Context(), caller, status)
	if err != nil {
		if errors.Is(err, relationship.ErrInvalidStatus) {
			writeError(w, http.StatusBadRequest, "invalid_params", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list relationships")
		return
	}

	if items == nil {
		items = []*relationship.ListItem{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"relationships": items,
	})
}

// Create handles POST /api/v1/relationships.
func (h *relationshipsHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller := auth.UserFromContext(r.Context())
	if caller == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated")
		return
	}

	var input relationship.CreateRelationshipInput
	if err := readJSON(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}

	rel, err := h.service.Create(r.Context(), caller, input)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "not_found", "target user not found")
			return
		}
		if errors.Is(err, relationship.ErrDuplicatePair) {
			writeError(w, http.StatusConflict, "duplicate", err.Error())
			return
		}
		if isPairingValidationError(err) {
			writeError(w, http.StatusUnprocessableEntity, "validation_error", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to create relationship")
		return
	}

	auditLog(r, "create", "relationship", rel.ID, "coach_id", rel.CoachID, "runner_id", rel.RunnerID)

	other := rel.RunnerID
	if caller.ID == rel.RunnerID {
		other = rel.CoachID
	}
	h.recorder.Record(activity.Event{
		ActorID:    caller.ID,
		Action:     activity.ActionRelationshipCreated,
		ObjectType: activity.ObjectRelationship,
		ObjectID:   rel.ID,
		Detail:     "paired with " + other,
	})
	h.metrics.IncRelationshipEvent("created")

	writeJSON(w, http.StatusCreated, rel)
}

// Get handles GET /api/v1/relationships/{id}.
func (h *relationshipsHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller := auth.UserFromContext(r.Context())
	if caller == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_id", "relationship id is required")
		return
	}

	rel, err := h.service.Get(r.Context(), caller, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "not_found", "relationship not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to get relationship")
		return
	}

	writeJSON(w, http.StatusOK, rel)
}

// Update handles PUT /api/v1/relationships/{id}.
func (h *relationshipsHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller := auth.UserFromContext(r.Context())
	if caller == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_id", "relationship id is required")
		return
	}

	var input relationship.UpdateRelationshipInput
	if err := readJSON(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}

	rel, err := h.service.Update(r.Context(), caller, id, input)
	if err != nil {
		if errors.Is(err, relationship.ErrInvalidStatus) {
			writeError(w, http.StatusBadRequest, "invalid_status", err.Error())
			return
		}
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "not_found", "relationship not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to update relationship")
		return
	}

	auditLog(r, "update", "relationship", id)

	detail := ""
	if input.Status != nil {
		detail = "status changed to " + *input.Status
	}
	h.recorder.Record(activity.Event{
		ActorID:    caller.ID,
		Action:     activity.ActionRelationshipUpdated,
		ObjectType: activity.ObjectRelationship,
		ObjectID:   rel.ID,
		Detail:     detail,
	})
	h.metrics.IncRelationshipEvent("updated")

	writeJSON(w, http.StatusOK, rel)
}

// Delete handles DELETE /api/v1/relationships/{id}.
func (h *relationshipsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller := auth.UserFromContext(r.Context())
	if caller == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_id", "relationship id is required")
		return
	}

	err := h.service.Delete(r.Context(), caller, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "not_found", "relationship not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to delete relationship")
		return
	}

	auditLog(r, "delete", "relationship", id)

	h.recorder.Record(activity.Event{
		ActorID:    caller.ID,
		Action:     activity.ActionRelationshipDeleted,
		ObjectType: activity.ObjectRelationship,
		ObjectID:   id,
	})
	h.metrics.IncRelationshipEvent("deleted")

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"deleted": true,
	})
}

// isPairingValidationError checks whether the error is a known validation
// error from the relationship service.
func isPairingValidationError(err error) bool {
	return errors.Is(err, relationship.ErrTargetRequired) ||
		errors.Is(err, relationship.ErrSelfPairing) ||
		errors.Is(err, relationship.ErrInvalidType) ||
		errors.Is(err, relationship.ErrTargetRoleMismatch) ||
		errors.Is(err, relationship.ErrCallerRoleUnknown)
}
