package httpapi

import (
	"net/http"
	"time"

	"paddock.events/internal/registration"
)

type submitRequest struct {
	OwnerName    string `json:"owner_name"`
	OwnerEmail   string `json:"owner_email"`
	OwnerPhone   string `json:"owner_phone"`
	VehicleMake  string `json:"vehicle_make"`
	VehicleModel string `json:"vehicle_model"`
	VehicleYear  int    `json:"vehicle_year"`
	PlateNumber  string `json:"plate_number"`
}

// SubmitRegistration is the public form endpoint; no session required.
func (a *API) SubmitRegistration(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_input", "invalid request body")
		return
	}
	reg := registration.Registration{
		EventID:      r.PathValue("eventID"),
		OwnerName:    req.OwnerName,
		OwnerEmail:   req.OwnerEmail,
		OwnerPhone:   req.OwnerPhone,
		VehicleMake:  req.VehicleMake,
		VehicleModel: req.VehicleModel,
		VehicleYear:  req.VehicleYear,
		PlateNumber:  req.PlateNumber,
	}
	if err := a.engine.Submit(r.Context(), &reg); err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"registration": reg})
}

func (a *API) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	filter := registration.ListFilter{
		Status: registration.Status(r.URL.Query().Get("status")),
	}
	regs, err := a.engine.List(r.Context(), r.PathValue("eventID"), filter)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"registrations": regs})
}

func (a *API) GetRegistration(w http.ResponseWriter, r *http.Request) {
	reg, err := a.engine.Get(r.Context(), r.PathValue("eventID"), r.PathValue("regID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"registration": reg})
}

func (a *API) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.engine.Stats(r.Context(), r.PathValue("eventID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stats": stats})
}

// Approve commits the transition and, when a pass issuer is configured,
// returns the signed gate pass for the participant's QR code.
func (a *API) Approve(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	res, err := a.engine.Approve(r.Context(), eventID, r.PathValue("regID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	body := transitionBody(res)
	if a.passes != nil {
		if pass, expiresAt, perr := a.passes.Issue(res.Registration.ID, eventID, res.Registration.RegistrationNumber); perr == nil {
			body["gate_pass"] = pass
			body["gate_pass_expires_at"] = expiresAt.UTC().Format(time.RFC3339)
		}
	}
	writeJSON(w, http.StatusOK, body)
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

func (a *API) Reject(w http.ResponseWriter, r *http.Request) {
	var req reasonRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_input", "invalid request body")
		return
	}
	res, err := a.engine.Reject(r.Context(), r.PathValue("eventID"), r.PathValue("regID"), req.Reason)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transitionBody(res))
}

func (a *API) CheckIn(w http.ResponseWriter, r *http.Request) {
	res, err := a.engine.GateCheckIn(r.Context(), r.PathValue("eventID"), r.PathValue("regID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transitionBody(res))
}

func (a *API) GateReject(w http.ResponseWriter, r *http.Request) {
	var req reasonRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_input", "invalid request body")
		return
	}
	if req.Reason == "" {
		respondError(w, http.StatusBadRequest, "invalid_input", "a reason is required when rejecting at the gate")
		return
	}
	res, err := a.engine.GateReject(r.Context(), r.PathValue("eventID"), r.PathValue("regID"), req.Reason)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transitionBody(res))
}

type scanRequest struct {
	Pass string `json:"pass"`
}

// GateScan verifies a scanned QR pass and checks the registration in.
func (a *API) GateScan(w http.ResponseWriter, r *http.Request) {
	if a.passes == nil {
		respondError(w, http.StatusServiceUnavailable, "scanning_disabled", "gate pass scanning is not configured")
		return
	}
	var req scanRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_input", "invalid request body")
		return
	}
	claims, err := a.passes.Verify(req.Pass)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_pass", "the scanned pass is not valid")
		return
	}
	eventID := r.PathValue("eventID")
	if claims.EventID != eventID {
		respondError(w, http.StatusBadRequest, "invalid_pass", "the pass belongs to a different event")
		return
	}
	res, err := a.engine.GateCheckIn(r.Context(), eventID, claims.Subject)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transitionBody(res))
}

// transitionBody always tells the caller definitively whether the status
// changed; a failed notification only adds a warning.
func transitionBody(res registration.Result) map[string]any {
	body := map[string]any{"registration": res.Registration}
	if res.NotifyErr != nil {
		body["notification"] = "failed"
		body["notification_error"] = res.NotifyErr.Error()
	}
	return body
}
