package api

import (
	"net/http"

	"github.com/ultracrew/ultracrew/internal/auth"
	"github.com/ultracrew/ultracrew/internal/relationship"
)

// availabilityHandler serves the pairing candidate lists. Role gating happens
// in the router: runners browse coaches, coaches browse runners.
type availabilityHandler struct {
	service *relationship.Service
}

func newAvailabilityHandler(svc *relationship.Service) *availabilityHandler {
	return &availabilityHandler{service: svc}
}

// AvailableCoaches handles GET /api/v1/coaches/available.
func (h *availabilityHandler) AvailableCoaches(w http.ResponseWriter, r *http.Request) {
	caller := auth.UserFromContext(r.Context())
	if caller == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated")
		return
	}

	coaches, err := h.service.AvailableCoaches(r.Context(), caller.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list available coaches")
		return
	}

	if coaches == nil {
		coaches = []*relationship.OtherParty{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"coaches": coaches,
	})
}

// AvailableRunners handles GET /api/v1/runners/available.
func (h *availabilityHandler) AvailableRunners(w http.ResponseWriter, r *http.Request) {
	caller := auth.UserFromContext(r.Context())
	if caller == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated")
		return
	}

	runners, err := h.service.AvailableRunners(r.Context(), caller.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list available runners")
		return
	}

	if runners == nil {
		runners = []*relationship.OtherParty{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"runners": runners,
	})
}
