package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"paddock.events/internal/registration"
)

func TestWebhookPostsPayload(t *testing.T) {
	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	hook := NewWebhook(srv.URL)
	err := hook.Notify(context.Background(), registration.NotifyApproved,
		registration.Registration{
			ID:                 "reg-1",
			OwnerName:          "Dana Cruz",
			OwnerEmail:         "dana@example.com",
			RegistrationNumber: "SCM-001",
		},
		registration.Event{ID: "evt-1", Name: "Sunday Classics Meet"},
	)
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if got.Kind != "approved" || got.RegistrationNumber != "SCM-001" || got.EventName != "Sunday Classics Meet" {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestWebhookRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	hook := NewWebhook(srv.URL)
	err := hook.Notify(context.Background(), registration.NotifyRejected,
		registration.Registration{ID: "reg-1"}, registration.Event{ID: "evt-1"})
	if err == nil {
		t.Fatal("expected error for 502 response")
	}
}
