package obs

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":          "/",
		"/metrics":  "/metrics",
		"/healthz":  "/healthz",
		"/v1/info":  "/v1/info",
		"/v1/events/evt-123/registrations":               "/v1/events/:id/registrations",
		"/v1/events/evt-123/registrations/reg-9":         "/v1/events/:id/registrations/:id",
		"/v1/events/evt-123/registrations/reg-9/approve": "/v1/events/:id/registrations/:id/approve",
		"/v1/events/evt-123/staff/user-7":                "/v1/events/:id/staff/:id",
		"/v1/events/evt-123/stats":                       "/v1/events/:id/stats",
		"/v1/events/evt-123/gate/scan":                   "/v1/events/:id/gate/scan",
		"/v1/events/evt-123/stream?since=0":              "/v1/events/:id/stream",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}

func TestInstrumentForwardsFlush(t *testing.T) {
	handler := Instrument(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			t.Fatal("instrumented writer is not a flusher")
		}
		_, _ = w.Write([]byte("data: hello\n\n"))
		flusher.Flush()
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/events/evt-1/stream", nil))

	if !rec.Flushed {
		t.Fatal("flush did not reach the underlying writer")
	}
}
