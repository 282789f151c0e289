package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"paddock.events/internal/ids"
	"paddock.events/internal/obs"
)

// Outcome classifies what the attempted action ended up as.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
	OutcomeWarning Outcome = "warning"
)

// Entry is one immutable audit record. ActorID is empty for system actions.
type Entry struct {
	ID           string         `json:"id"`
	OccurredAt   time.Time      `json:"occurred_at"`
	ActorID      string         `json:"actor_id,omitempty"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resource_type"`
	ResourceID   string         `json:"resource_id"`
	Details      map[string]any `json:"details,omitempty"`
	Outcome      Outcome        `json:"outcome"`
}

// Store appends immutable entries. No update or delete path exists.
type Store interface {
	Append(ctx context.Context, entry *Entry) error
}

// Recorder writes audit entries best-effort: a store failure is diverted to
// the process diagnostics logger and never propagated, so audit logging can
// never roll back the business transition that triggered it.
type Recorder struct {
	store Store
	now   func() time.Time
}

// RecorderOption configures Recorder behavior.
type RecorderOption func(*Recorder)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) RecorderOption {
	return func(r *Recorder) {
		if fn != nil {
			r.now = fn
		}
	}
}

// NewRecorder constructs a Recorder.
func NewRecorder(store Store, opts ...RecorderOption) *Recorder {
	r := &Recorder{store: store, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record appends one entry, filling id and timestamp when unset.
func (r *Recorder) Record(ctx context.Context, entry Entry) {
	if entry.ID == "" {
		entry.ID = ids.New()
	}
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = r.now().UTC()
	}
	if r.store == nil {
		r.fallback(entry, "audit store not configured")
		return
	}
	if err := r.store.Append(ctx, &entry); err != nil {
		r.fallback(entry, err.Error())
	}
}

// fallback writes the entry to the shared JSON logger so it is not lost.
func (r *Recorder) fallback(entry Entry, reason string) {
	line := map[string]any{
		"ts":     r.now().UTC().Format(time.RFC3339Nano),
		"type":   "audit_fallback",
		"reason": reason,
		"entry":  entry,
	}
	data, err := json.Marshal(line)
	if err != nil {
		obs.Logger().Println(`{"type":"audit_fallback","reason":"marshal failed"}`)
		return
	}
	obs.Logger().Println(string(data))
}

// MemStore keeps entries in memory. Used by tests and the dev server.
type MemStore struct {
	mu      sync.Mutex
	entries []Entry
}

// NewMemStore creates an empty in-memory audit store.
func NewMemStore() *MemStore {
	return &MemStore{}
}

func (s *MemStore) Append(ctx context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, *entry)
	return nil
}

// Entries returns a copy of everything appended so far.
func (s *MemStore) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}
