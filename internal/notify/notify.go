package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"paddock.events/internal/obs"
	"paddock.events/internal/registration"
)

// LogNotifier writes notifications to the shared JSON logger. Used in dev and
// as the default when no delivery endpoint is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, kind registration.NotifyKind, reg registration.Registration, ev registration.Event) error {
	obs.LogRequest(map[string]any{
		"ts":                  time.Now().UTC().Format(time.RFC3339Nano),
		"type":                "notification",
		"kind":                string(kind),
		"event_id":            ev.ID,
		"registration_id":     reg.ID,
		"registration_number": reg.RegistrationNumber,
		"recipient":           reg.OwnerEmail,
	})
	return nil
}

// Webhook posts notifications to an external delivery service (the email /
// WhatsApp sender lives outside this repo).
type Webhook struct {
	URL    string
	Client *http.Client
}

// NewWebhook constructs a Webhook with a bounded client timeout.
func NewWebhook(url string) *Webhook {
	return &Webhook{
		URL:    url,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

type webhookPayload struct {
	Kind               string `json:"kind"`
	EventID            string `json:"event_id"`
	EventName          string `json:"event_name"`
	RegistrationID     string `json:"registration_id"`
	RegistrationNumber string `json:"registration_number,omitempty"`
	OwnerName          string `json:"owner_name"`
	OwnerEmail         string `json:"owner_email"`
	OwnerPhone         string `json:"owner_phone,omitempty"`
	RejectionReason    string `json:"rejection_reason,omitempty"`
}

func (w *Webhook) Notify(ctx context.Context, kind registration.NotifyKind, reg registration.Registration, ev registration.Event) error {
	payload, err := json.Marshal(webhookPayload{
		Kind:               string(kind),
		EventID:            ev.ID,
		EventName:          ev.Name,
		RegistrationID:     reg.ID,
		RegistrationNumber: reg.RegistrationNumber,
		OwnerName:          reg.OwnerName,
		OwnerEmail:         reg.OwnerEmail,
		OwnerPhone:         reg.OwnerPhone,
		RejectionReason:    reg.RejectionReason,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := w.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("notification endpoint returned %d", resp.StatusCode)
	}
	return nil
}
