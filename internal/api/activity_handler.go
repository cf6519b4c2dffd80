package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ultracrew/ultracrew/internal/activity"
	"github.com/ultracrew/ultracrew/internal/auth"
)

// activityHandler serves the per-user activity feed.
type activityHandler struct {
	store *activity.Store
}

func newActivityHandler(store *activity.Store) *activityHandler {
	return &activityHandler{store: store}
}

// parseTimeParam parses a date query param in YYYY-MM-DD or RFC3339 format.
func parseTimeParam(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	// Try RFC3339 first.
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	// Fall back to date-only.
	t, err = time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// List handles GET /api/v1/activity.
func (h *activityHandler) List(w http.ResponseWriter, r *http.Request) {
	caller := auth.UserFromContext(r.Context())
	if caller == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated")
		return
	}

	q := activity.Query{
		Cursor: r.URL.Query().Get("cursor"),
	}

	from, err := parseTimeParam(r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_params", "from must be YYYY-MM-DD or RFC3339")
		return
	}
	q.From = from

	to, err := parseTimeParam(r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_params", "to must be YYYY-MM-DD or RFC3339")
		return
	}
	q.To = to

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l < 1 {
			writeError(w, http.StatusBadRequest, "invalid_params", "limit must be a positive integer")
			return
		}
		q.Limit = l
	}

	events, nextCursor, err := h.store.ListByActor(r.Context(), caller.ID, q)
	if err != nil {
		if errors.Is(err, activity.ErrInvalidCursor) {
			writeError(w, http.StatusBadRequest, "invalid_params", "cursor is not valid")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list activity")
		return
	}

	if events == nil {
		events = []*activity.Event{}
	}

	resp := map[string]interface{}{
		"events": events,
	}
	if nextCursor != "" {
		resp["next_cursor"] = nextCursor
	}
	writeJSON(w, http.StatusOK, resp)
}
