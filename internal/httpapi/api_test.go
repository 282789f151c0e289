package httpapi

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"paddock.events/internal/audit"
	"paddock.events/internal/auth"
	"paddock.events/internal/gatepass"
	"paddock.events/internal/registration"
	"paddock.events/internal/stream"
)

type apiClient struct {
	baseURL string
	client  *http.Client
	t       *testing.T

	event registration.Event
}

func newTestAPI(t *testing.T) *apiClient {
	t.Helper()
	ctx := context.Background()

	authStore := auth.NewInMemory()
	authSvc, err := auth.NewService(authStore)
	if err != nil {
		t.Fatalf("auth service: %v", err)
	}
	if _, err := authSvc.ProvisionUser(ctx, "boss@example.com", "Boss", "boss-password-1", auth.GlobalAdmin); err != nil {
		t.Fatalf("provision admin: %v", err)
	}
	gateUser, err := authSvc.ProvisionUser(ctx, "gate@example.com", "Gate", "gate-password-1", auth.GlobalStaff)
	if err != nil {
		t.Fatalf("provision gate: %v", err)
	}

	regStore := registration.NewInMemory()
	event := registration.Event{Name: "Sunday Classics Meet", Code: "SCM", Active: true}
	if err := regStore.CreateEvent(ctx, &event); err != nil {
		t.Fatalf("create event: %v", err)
	}

	if err := authStore.Staff().Assign(ctx, auth.StaffAssignment{
		EventID: event.ID, AdminUserID: gateUser.ID, Role: auth.RoleGate,
	}); err != nil {
		t.Fatalf("assign gate: %v", err)
	}

	recorder := audit.NewRecorder(audit.NewMemStore())
	feed := stream.New()
	engine, err := registration.NewEngine(authSvc, regStore, recorder, registration.WithFeed(feed))
	if err != nil {
		t.Fatalf("engine: %v", err)
	}

	passes, err := gatepass.NewIssuer("test-gatepass-secret")
	if err != nil {
		t.Fatalf("gatepass: %v", err)
	}

	api := New(ReadyProbe{}, "test", authSvc, engine, passes, feed)
	api.rateBurst = 1000
	api.ratePerSec = 1000

	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	return &apiClient{
		baseURL: srv.URL,
		client:  srv.Client(),
		t:       t,
		event:   event,
	}
}

func (c *apiClient) do(method, path string, body any, token string) *http.Response {
	c.t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("do request: %v", err)
	}
	return resp
}

func (c *apiClient) decode(resp *http.Response, want int) map[string]any {
	c.t.Helper()
	defer resp.Body.Close()
	if resp.StatusCode != want {
		c.t.Fatalf("status = %d, want %d", resp.StatusCode, want)
	}
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		c.t.Fatalf("decode response: %v", err)
	}
	return out
}

func (c *apiClient) login(email, password string) string {
	c.t.Helper()
	body := c.decode(c.do(http.MethodPost, "/v1/auth/login", map[string]string{
		"email": email, "password": password,
	}, ""), http.StatusOK)
	token, _ := body["token"].(string)
	if token == "" {
		c.t.Fatal("login returned no token")
	}
	return token
}

func (c *apiClient) submit() string {
	c.t.Helper()
	body := c.decode(c.do(http.MethodPost, "/v1/events/"+c.event.ID+"/registrations", map[string]any{
		"owner_name":    "Dana Cruz",
		"owner_email":   "dana@example.com",
		"vehicle_make":  "Datsun",
		"vehicle_model": "240Z",
		"vehicle_year":  1972,
	}, ""), http.StatusCreated)
	reg, _ := body["registration"].(map[string]any)
	id, _ := reg["id"].(string)
	if id == "" {
		c.t.Fatal("submit returned no registration id")
	}
	return id
}

func TestHealthz(t *testing.T) {
	c := newTestAPI(t)
	body := c.decode(c.do(http.MethodGet, "/healthz", nil, ""), http.StatusOK)
	if body["service"] != "paddock-api" || body["version"] != "test" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestLoginFlow(t *testing.T) {
	c := newTestAPI(t)

	token := c.login("boss@example.com", "boss-password-1")
	me := c.decode(c.do(http.MethodGet, "/v1/auth/me", nil, token), http.StatusOK)
	user, _ := me["user"].(map[string]any)
	if user["email"] != "boss@example.com" {
		t.Fatalf("unexpected user: %v", me)
	}

	resp := c.do(http.MethodPost, "/v1/auth/login", map[string]string{
		"email": "boss@example.com", "password": "wrong",
	}, "")
	body := c.decode(resp, http.StatusUnauthorized)
	if body["error"] != "not_authenticated" {
		t.Fatalf("error code = %v", body["error"])
	}

	c.decode(c.do(http.MethodPost, "/v1/auth/logout", nil, token), http.StatusOK)
	c.decode(c.do(http.MethodGet, "/v1/auth/me", nil, token), http.StatusUnauthorized)
}

func TestSubmitApproveScanFlow(t *testing.T) {
	c := newTestAPI(t)
	regID := c.submit()
	admin := c.login("boss@example.com", "boss-password-1")

	// Reads need a session.
	c.decode(c.do(http.MethodGet, "/v1/events/"+c.event.ID+"/registrations", nil, ""), http.StatusUnauthorized)

	list := c.decode(c.do(http.MethodGet, "/v1/events/"+c.event.ID+"/registrations", nil, admin), http.StatusOK)
	regs, _ := list["registrations"].([]any)
	if len(regs) != 1 {
		t.Fatalf("expected 1 registration, got %v", list)
	}

	approved := c.decode(c.do(http.MethodPost, "/v1/events/"+c.event.ID+"/registrations/"+regID+"/approve", nil, admin), http.StatusOK)
	reg, _ := approved["registration"].(map[string]any)
	if reg["status"] != "approved" || reg["registration_number"] != "SCM-001" {
		t.Fatalf("unexpected approval: %v", approved)
	}
	pass, _ := approved["gate_pass"].(string)
	if pass == "" {
		t.Fatal("approval did not include a gate pass")
	}

	gate := c.login("gate@example.com", "gate-password-1")
	scanned := c.decode(c.do(http.MethodPost, "/v1/events/"+c.event.ID+"/gate/scan", map[string]string{
		"pass": pass,
	}, gate), http.StatusOK)
	reg, _ = scanned["registration"].(map[string]any)
	if reg["check_in_status"] != "checked_in" || reg["inspection_status"] != "passed" {
		t.Fatalf("unexpected scan result: %v", scanned)
	}

	// A pass signed for this event is useless at another event's gate.
	resp := c.do(http.MethodPost, "/v1/events/other-event/gate/scan", map[string]string{"pass": pass}, admin)
	body := c.decode(resp, http.StatusBadRequest)
	if body["error"] != "invalid_pass" {
		t.Fatalf("error code = %v", body["error"])
	}

	stats := c.decode(c.do(http.MethodGet, "/v1/events/"+c.event.ID+"/stats", nil, admin), http.StatusOK)
	st, _ := stats["stats"].(map[string]any)
	if st["approved"].(float64) != 1 || st["checked_in"].(float64) != 1 {
		t.Fatalf("unexpected stats: %v", stats)
	}
}

func TestRoleErrorMapping(t *testing.T) {
	c := newTestAPI(t)
	regID := c.submit()
	gate := c.login("gate@example.com", "gate-password-1")

	// Gate staff cannot approve.
	resp := c.do(http.MethodPost, "/v1/events/"+c.event.ID+"/registrations/"+regID+"/approve", nil, gate)
	body := c.decode(resp, http.StatusForbidden)
	if body["error"] != "forbidden" {
		t.Fatalf("error code = %v", body["error"])
	}

	// Gate staff is not assigned to other events at all.
	resp = c.do(http.MethodGet, "/v1/events/some-other-event/registrations", nil, gate)
	body = c.decode(resp, http.StatusForbidden)
	if body["error"] != "no_event_access" {
		t.Fatalf("error code = %v", body["error"])
	}

	// Check-in before approval is a state conflict.
	resp = c.do(http.MethodPost, "/v1/events/"+c.event.ID+"/registrations/"+regID+"/checkin", nil, gate)
	body = c.decode(resp, http.StatusConflict)
	if body["error"] != "invalid_transition" {
		t.Fatalf("error code = %v", body["error"])
	}
}

func TestStaffEndpoints(t *testing.T) {
	c := newTestAPI(t)
	admin := c.login("boss@example.com", "boss-password-1")
	gate := c.login("gate@example.com", "gate-password-1")

	list := c.decode(c.do(http.MethodGet, "/v1/events/"+c.event.ID+"/staff", nil, admin), http.StatusOK)
	staff, _ := list["staff"].([]any)
	if len(staff) != 1 {
		t.Fatalf("expected 1 assignment, got %v", list)
	}

	// Promote the gate user to approver; upsert replaces the old role.
	first, _ := staff[0].(map[string]any)
	userID, _ := first["admin_user_id"].(string)
	c.decode(c.do(http.MethodPut, "/v1/events/"+c.event.ID+"/staff/"+userID, map[string]string{
		"role": "approver",
	}, admin), http.StatusOK)

	regID := c.submit()
	c.decode(c.do(http.MethodPost, "/v1/events/"+c.event.ID+"/registrations/"+regID+"/approve", nil, gate), http.StatusOK)

	// Staff cannot manage staff.
	resp := c.do(http.MethodDelete, "/v1/events/"+c.event.ID+"/staff/"+userID, nil, gate)
	c.decode(resp, http.StatusForbidden)

	c.decode(c.do(http.MethodDelete, "/v1/events/"+c.event.ID+"/staff/"+userID, nil, admin), http.StatusOK)
	resp = c.do(http.MethodGet, "/v1/events/"+c.event.ID+"/registrations", nil, gate)
	c.decode(resp, http.StatusForbidden)
}

func TestSubmitValidationErrors(t *testing.T) {
	c := newTestAPI(t)

	resp := c.do(http.MethodPost, "/v1/events/"+c.event.ID+"/registrations", map[string]any{
		"owner_name": "No Email", "vehicle_make": "Ford", "vehicle_model": "GT",
	}, "")
	body := c.decode(resp, http.StatusBadRequest)
	if body["error"] != "invalid_input" {
		t.Fatalf("error code = %v", body["error"])
	}

	resp = c.do(http.MethodPost, "/v1/events/no-such-event/registrations", map[string]any{
		"owner_name": "Dana", "owner_email": "d@example.com",
		"vehicle_make": "Ford", "vehicle_model": "GT",
	}, "")
	c.decode(resp, http.StatusNotFound)
}

func TestStreamDeliversEventsThroughFullChain(t *testing.T) {
	c := newTestAPI(t)
	regID := c.submit()
	admin := c.login("boss@example.com", "boss-password-1")

	req, err := http.NewRequest(http.MethodGet, c.baseURL+"/v1/events/"+c.event.ID+"/stream", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+admin)
	resp, err := c.client.Do(req)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stream status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}

	lines := make(chan string, 16)
	go func() {
		reader := bufio.NewReader(resp.Body)
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				close(lines)
				return
			}
			lines <- line
		}
	}()
	waitLine := func(prefix string) string {
		deadline := time.After(2 * time.Second)
		for {
			select {
			case line, ok := <-lines:
				if !ok {
					t.Fatalf("stream closed before %q line arrived", prefix)
				}
				if strings.HasPrefix(line, prefix) {
					return line
				}
			case <-deadline:
				t.Fatalf("no %q line within deadline; events are not being flushed", prefix)
			}
		}
	}

	// The opening comment is flushed on connect.
	waitLine(":")

	c.decode(c.do(http.MethodPost, "/v1/events/"+c.event.ID+"/registrations/"+regID+"/approve", nil, admin), http.StatusOK)

	data := waitLine("data: ")
	var evt map[string]any
	if err := json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSpace(data), "data: ")), &evt); err != nil {
		t.Fatalf("stream payload not valid JSON: %v", err)
	}
	if evt["action"] != "approve" || evt["registration_number"] != "SCM-001" {
		t.Fatalf("unexpected stream event: %v", evt)
	}
}

func TestStreamDeniedWithoutEventAccess(t *testing.T) {
	c := newTestAPI(t)
	gate := c.login("gate@example.com", "gate-password-1")

	resp := c.do(http.MethodGet, "/v1/events/some-other-event/stream", nil, gate)
	body := c.decode(resp, http.StatusForbidden)
	if body["error"] != "no_event_access" {
		t.Fatalf("error code = %v", body["error"])
	}

	resp = c.do(http.MethodGet, "/v1/events/"+c.event.ID+"/stream", nil, "")
	c.decode(resp, http.StatusUnauthorized)
}
