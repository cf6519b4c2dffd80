package api

import (
	"net/http"

	"github.com/ultracrew/ultracrew/internal/activity"
	"github.com/ultracrew/ultracrew/internal/auth"
	"github.com/ultracrew/ultracrew/internal/user"
)

// usersHandler groups profile HTTP handlers.
type usersHandler struct {
	store    *user.Store
	recorder *activity.Recorder
}

func newUsersHandler(store *user.Store, recorder *activity.Recorder) *usersHandler {
	return &usersHandler{store: store, recorder: recorder}
}

// UpdateMe handles PUT /api/v1/users/me. Role is mutable here: a runner who
// starts coaching flips user_type without opening a new account. Email and
// password are fixed at signup.
func (h *usersHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	caller := auth.UserFromContext(r.Context())
	if caller == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated")
		return
	}

	var req struct {
		Name     *string `json:"name"`
		FullName *string `json:"full_name"`
		UserType *string `json:"user_type"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}

	if req.Name != nil && *req.Name == "" {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "name cannot be empty")
		return
	}
	if req.UserType != nil && !auth.ValidRole(*req.UserType) {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "user_type must be coach or runner")
		return
	}

	input := user.UpdateUserInput{
		Name:     req.Name,
		FullName: req.FullName,
		UserType: req.UserType,
	}

	u, err := h.store.Update(r.Context(), caller.ID, input)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to update user")
		return
	}

	auditLog(r, "update", "user", u.ID)

	detail := ""
	if req.UserType != nil && *req.UserType != caller.Role {
		detail = "role changed to " + *req.UserType
	}
	h.recorder.Record(activity.Event{
		ActorID:    u.ID,
		Action:     activity.ActionUserUpdated,
		ObjectType: activity.ObjectUser,
		ObjectID:   u.ID,
		Detail:     detail,
	})

	writeJSON(w, http.StatusOK, u)
}
