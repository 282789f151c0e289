package httpapi

import (
	"net/http"

	"paddock.events/internal/auth"
)

type assignStaffRequest struct {
	Role auth.EventRole `json:"role"`
}

func (a *API) ListStaff(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondServiceError(w, auth.ErrNotAuthenticated)
		return
	}
	staff, err := a.auth.ListStaff(r.Context(), actor, r.PathValue("eventID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"staff": staff})
}

func (a *API) AssignStaff(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondServiceError(w, auth.ErrNotAuthenticated)
		return
	}
	var req assignStaffRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_input", "invalid request body")
		return
	}
	err := a.auth.AssignStaff(r.Context(), actor, r.PathValue("eventID"), r.PathValue("userID"), req.Role)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "assigned"})
}

func (a *API) RemoveStaff(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondServiceError(w, auth.ErrNotAuthenticated)
		return
	}
	err := a.auth.RemoveStaff(r.Context(), actor, r.PathValue("eventID"), r.PathValue("userID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "removed"})
}
