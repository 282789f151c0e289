package registration

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"paddock.events/internal/ids"
)

// InMemory implements Store with in-process concurrency safety. Used by tests
// and by the dev server when no DSN is configured.
type InMemory struct {
	mu       sync.Mutex
	events   map[string]*Event
	regs     map[string]*Registration
	counters map[string]int // eventID -> last issued entry number
}

// NewInMemory creates an empty store.
func NewInMemory() *InMemory {
	return &InMemory{
		events:   make(map[string]*Event),
		regs:     make(map[string]*Registration),
		counters: make(map[string]int),
	}
}

func (s *InMemory) CreateEvent(ctx context.Context, ev *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ev.ID == "" {
		ev.ID = ids.New()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	cp := *ev
	s.events[ev.ID] = &cp
	return nil
}

func (s *InMemory) FindEvent(ctx context.Context, id string) (*Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *ev
	return &cp, nil
}

func (s *InMemory) Create(ctx context.Context, r *Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[r.EventID]; !ok {
		return ErrNotFound
	}
	if r.ID == "" {
		r.ID = ids.New()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if r.Status == "" {
		r.Status = StatusPending
	}
	if r.CheckInStatus == "" {
		r.CheckInStatus = NotCheckedIn
	}
	if r.InspectionStatus == "" {
		r.InspectionStatus = InspectionNone
	}
	cp := *r
	s.regs[r.ID] = &cp
	return nil
}

func (s *InMemory) Find(ctx context.Context, id string) (*Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.regs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *InMemory) ListByEvent(ctx context.Context, eventID string, f ListFilter) ([]Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Registration
	for _, r := range s.regs {
		if r.EventID != eventID {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *InMemory) CountByStatus(ctx context.Context, eventID string) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var st Stats
	for _, r := range s.regs {
		if r.EventID != eventID {
			continue
		}
		st.Total++
		switch r.Status {
		case StatusPending:
			st.Pending++
		case StatusApproved:
			st.Approved++
		case StatusRejected:
			st.Rejected++
		}
		if r.CheckInStatus == CheckedIn {
			st.CheckedIn++
		}
	}
	return st, nil
}

func (s *InMemory) Approve(ctx context.Context, id string) (*Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.regs[id]
	if !ok {
		return nil, ErrNotFound
	}
	now := time.Now().UTC()
	r.Status = StatusApproved
	if r.ApprovedAt == nil {
		r.ApprovedAt = &now
	}
	if r.RegistrationNumber == "" {
		ev := s.events[r.EventID]
		code := "REG"
		if ev != nil && ev.Code != "" {
			code = ev.Code
		}
		s.counters[r.EventID]++
		r.RegistrationNumber = fmt.Sprintf("%s-%03d", code, s.counters[r.EventID])
	}
	cp := *r
	return &cp, nil
}

func (s *InMemory) Reject(ctx context.Context, id, reason string) (*Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.regs[id]
	if !ok {
		return nil, ErrNotFound
	}
	if r.Status != StatusPending && r.Status != StatusApproved {
		return nil, ErrInvalidTransition
	}
	now := time.Now().UTC()
	r.Status = StatusRejected
	r.RejectionReason = reason
	r.RejectedAt = &now
	cp := *r
	return &cp, nil
}

func (s *InMemory) CheckIn(ctx context.Context, id string) (*Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.regs[id]
	if !ok {
		return nil, ErrNotFound
	}
	if r.Status != StatusApproved {
		return nil, ErrInvalidTransition
	}
	now := time.Now().UTC()
	r.CheckInStatus = CheckedIn
	r.InspectionStatus = InspectionPassed
	r.InspectionReason = ""
	if r.CheckedInAt == nil {
		r.CheckedInAt = &now
	}
	cp := *r
	return &cp, nil
}

func (s *InMemory) GateReject(ctx context.Context, id, reason string) (*Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.regs[id]
	if !ok {
		return nil, ErrNotFound
	}
	if r.Status != StatusApproved {
		return nil, ErrInvalidTransition
	}
	r.InspectionStatus = InspectionRejected
	r.InspectionReason = reason
	cp := *r
	return &cp, nil
}
