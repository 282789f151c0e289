package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
)

// Stream pushes committed lifecycle transitions for one event over SSE so
// organizer dashboards update live.
func (a *API) Stream(w http.ResponseWriter, r *http.Request) {
	if a.feed == nil {
		respondError(w, http.StatusServiceUnavailable, "streaming_disabled", "live updates are not configured")
		return
	}
	eventID := r.PathValue("eventID")
	if _, err := a.engine.AuthorizeView(r.Context(), eventID); err != nil {
		respondServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "internal", "streaming unsupported")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	ch := a.feed.Subscribe(ctx, eventID)

	_, _ = w.Write([]byte(": stream started\n\n"))
	flusher.Flush()

	for event := range ch {
		payload, err := json.Marshal(event)
		if err != nil {
			continue
		}
		_, _ = w.Write([]byte("data: "))
		_, _ = w.Write(payload)
		_, _ = w.Write([]byte("\n\n"))
		flusher.Flush()
	}
}
