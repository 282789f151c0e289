package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"paddock.events/internal/auth"
	"paddock.events/internal/gatepass"
	"paddock.events/internal/obs"
	"paddock.events/internal/registration"
	"paddock.events/internal/stream"
)

// ReadyProbe reports whether downstream dependencies answer.
type ReadyProbe struct {
	Ping func(ctx context.Context) error
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.Ping == nil {
		return nil
	}
	return rp.Ping(ctx)
}

// API is the back-office HTTP layer.
type API struct {
	mux        *http.ServeMux
	auth       *auth.Service
	engine     *registration.Engine
	passes     *gatepass.Issuer
	feed       *stream.Feed
	readyProbe ReadyProbe
	version    string

	rateBurst  int
	ratePerSec int
}

// New wires routes for the organizer portal and gate station.
func New(rp ReadyProbe, version string, authSvc *auth.Service, engine *registration.Engine, passes *gatepass.Issuer, feed *stream.Feed) *API {
	a := &API{
		mux:        http.NewServeMux(),
		auth:       authSvc,
		engine:     engine,
		passes:     passes,
		feed:       feed,
		readyProbe: rp,
		version:    version,
		rateBurst:  20,
		ratePerSec: 10,
	}

	a.mux.HandleFunc("GET /healthz", a.Healthz)
	a.mux.HandleFunc("GET /readyz", a.Ready)
	a.mux.HandleFunc("GET /v1/info", a.Info)
	a.mux.Handle("GET /metrics", obs.Handler())

	a.mux.HandleFunc("POST /v1/auth/login", a.Login)
	a.mux.HandleFunc("POST /v1/auth/logout", a.Logout)
	a.mux.HandleFunc("GET /v1/auth/me", a.Me)

	// Public submission path used by the registration form.
	a.mux.HandleFunc("POST /v1/events/{eventID}/registrations", a.SubmitRegistration)

	a.mux.HandleFunc("GET /v1/events/{eventID}/registrations", a.ListRegistrations)
	a.mux.HandleFunc("GET /v1/events/{eventID}/registrations/{regID}", a.GetRegistration)
	a.mux.HandleFunc("GET /v1/events/{eventID}/stats", a.Stats)
	a.mux.HandleFunc("GET /v1/events/{eventID}/stream", a.Stream)

	a.mux.HandleFunc("POST /v1/events/{eventID}/registrations/{regID}/approve", a.Approve)
	a.mux.HandleFunc("POST /v1/events/{eventID}/registrations/{regID}/reject", a.Reject)
	a.mux.HandleFunc("POST /v1/events/{eventID}/registrations/{regID}/checkin", a.CheckIn)
	a.mux.HandleFunc("POST /v1/events/{eventID}/registrations/{regID}/gate-reject", a.GateReject)
	a.mux.HandleFunc("POST /v1/events/{eventID}/gate/scan", a.GateScan)

	a.mux.HandleFunc("GET /v1/events/{eventID}/staff", a.ListStaff)
	a.mux.HandleFunc("PUT /v1/events/{eventID}/staff/{userID}", a.AssignStaff)
	a.mux.HandleFunc("DELETE /v1/events/{eventID}/staff/{userID}", a.RemoveStaff)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the fully wrapped http.Handler.
func (a *API) Handler() http.Handler {
	h := a.withSession(a.mux)
	h = MaxBodyBytes(h, 1<<20)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = SecurityHeaders(h)
	h = Logging(h)
	return obs.Instrument(h)
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "paddock-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "paddock-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, code int, errCode, msg string) {
	writeJSON(w, code, map[string]any{"error": errCode, "message": msg})
}

// respondServiceError maps the error taxonomy to HTTP. no_event_access gets
// its own code so the UI can render "not assigned to this event" instead of a
// generic 403.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrNotAuthenticated):
		respondError(w, http.StatusUnauthorized, "not_authenticated", "sign in required")
	case errors.Is(err, auth.ErrNoEventAccess):
		respondError(w, http.StatusForbidden, "no_event_access", "you are not assigned to this event")
	case errors.Is(err, auth.ErrForbidden):
		respondError(w, http.StatusForbidden, "forbidden", "your role does not allow this action")
	case errors.Is(err, registration.ErrInvalidTransition):
		respondError(w, http.StatusConflict, "invalid_transition", "the registration is not in a state that allows this action")
	case errors.Is(err, registration.ErrNotFound), errors.Is(err, auth.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found", "resource not found")
	case errors.Is(err, registration.ErrInvalidInput), errors.Is(err, auth.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, "invalid_input", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
