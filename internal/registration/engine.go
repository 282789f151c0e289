package registration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"paddock.events/internal/audit"
	"paddock.events/internal/auth"
	"paddock.events/internal/obs"
	"paddock.events/internal/stream"
)

// NotifyKind selects the outward notification template.
type NotifyKind string

const (
	NotifyApproved NotifyKind = "approved"
	NotifyRejected NotifyKind = "rejected"
)

// Notifier delivers participant notifications. Its return value is
// informational only; the engine never rolls back a committed transition
// because delivery failed.
type Notifier interface {
	Notify(ctx context.Context, kind NotifyKind, reg Registration, ev Event) error
}

const resourceRegistration = "registration"

// Engine is the registration lifecycle state machine. Every privileged
// operation resolves the actor from the context, derives the actor's event
// role, checks the capability matrix, applies the guarded transition and
// records exactly one audit entry — allowed or denied.
type Engine struct {
	auth     *auth.Service
	store    Store
	recorder *audit.Recorder
	notifier Notifier
	feed     *stream.Feed
}

// EngineOption configures optional collaborators.
type EngineOption func(*Engine)

// WithNotifier wires the outward notification collaborator.
func WithNotifier(n Notifier) EngineOption {
	return func(e *Engine) { e.notifier = n }
}

// WithFeed wires the live organizer feed.
func WithFeed(f *stream.Feed) EngineOption {
	return func(e *Engine) { e.feed = f }
}

// NewEngine constructs an Engine.
func NewEngine(authSvc *auth.Service, store Store, recorder *audit.Recorder, opts ...EngineOption) (*Engine, error) {
	if authSvc == nil {
		return nil, errors.New("auth service is required")
	}
	if store == nil {
		return nil, errors.New("registration store is required")
	}
	if recorder == nil {
		return nil, errors.New("audit recorder is required")
	}
	e := &Engine{auth: authSvc, store: store, recorder: recorder}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Result reports the committed state after a transition. NotifyErr wraps
// ErrNotifyFailed when the transition succeeded but the notification did not;
// the caller can surface it so the actor resends manually.
type Result struct {
	Registration Registration
	NotifyErr    error
}

// Submit records a new public registration. This is the unauthenticated
// entry path used by the public form; everything starts pending.
func (e *Engine) Submit(ctx context.Context, r *Registration) error {
	if r == nil {
		return fmt.Errorf("%w: registration is required", ErrInvalidInput)
	}
	r.EventID = strings.TrimSpace(r.EventID)
	if r.EventID == "" {
		return fmt.Errorf("%w: event_id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(r.OwnerName) == "" || strings.TrimSpace(r.OwnerEmail) == "" {
		return fmt.Errorf("%w: owner name and email are required", ErrInvalidInput)
	}
	if strings.TrimSpace(r.VehicleMake) == "" || strings.TrimSpace(r.VehicleModel) == "" {
		return fmt.Errorf("%w: vehicle make and model are required", ErrInvalidInput)
	}
	ev, err := e.store.FindEvent(ctx, r.EventID)
	if err != nil {
		return err
	}
	if !ev.Active {
		return fmt.Errorf("%w: event is closed for registration", ErrInvalidInput)
	}
	r.Status = StatusPending
	r.CheckInStatus = NotCheckedIn
	r.InspectionStatus = InspectionNone
	return e.store.Create(ctx, r)
}

// Approve moves a registration to approved, assigning its number on first
// approval. Re-approval after a rejection reuses the original number.
func (e *Engine) Approve(ctx context.Context, eventID, regID string) (Result, error) {
	return e.transition(ctx, eventID, regID, transitionSpec{
		action:     "approve",
		capability: auth.CapApprove,
		notify:     NotifyApproved,
		apply:      func(ctx context.Context) (*Registration, error) { return e.store.Approve(ctx, regID) },
	})
}

// Reject moves a pending or approved registration to rejected. The
// registration number, if already issued, is retained for audit continuity.
func (e *Engine) Reject(ctx context.Context, eventID, regID, reason string) (Result, error) {
	return e.transition(ctx, eventID, regID, transitionSpec{
		action:     "reject",
		capability: auth.CapApprove,
		notify:     NotifyRejected,
		apply:      func(ctx context.Context) (*Registration, error) { return e.store.Reject(ctx, regID, reason) },
	})
}

// GateCheckIn marks an approved registration as checked in with a passed
// inspection. Any other primary status is an invalid transition.
func (e *Engine) GateCheckIn(ctx context.Context, eventID, regID string) (Result, error) {
	return e.transition(ctx, eventID, regID, transitionSpec{
		action:     "gate_check_in",
		capability: auth.CapGateScan,
		apply:      func(ctx context.Context) (*Registration, error) { return e.store.CheckIn(ctx, regID) },
	})
}

// GateReject records a failed same-day inspection on an approved
// registration. Entry is barred by the inspection sub-state; the primary
// status stays approved.
func (e *Engine) GateReject(ctx context.Context, eventID, regID, reason string) (Result, error) {
	return e.transition(ctx, eventID, regID, transitionSpec{
		action:     "gate_reject",
		capability: auth.CapGateScan,
		apply:      func(ctx context.Context) (*Registration, error) { return e.store.GateReject(ctx, regID, reason) },
	})
}

// Get returns one registration for actors holding view on the event.
func (e *Engine) Get(ctx context.Context, eventID, regID string) (Registration, error) {
	if _, err := e.authorizeRead(ctx, eventID, "view"); err != nil {
		return Registration{}, err
	}
	reg, err := e.store.Find(ctx, regID)
	if err != nil {
		return Registration{}, err
	}
	if reg.EventID != eventID {
		return Registration{}, ErrNotFound
	}
	return *reg, nil
}

// List returns an event's registrations for actors holding view.
func (e *Engine) List(ctx context.Context, eventID string, f ListFilter) ([]Registration, error) {
	if _, err := e.authorizeRead(ctx, eventID, "list"); err != nil {
		return nil, err
	}
	return e.store.ListByEvent(ctx, eventID, f)
}

// AuthorizeView checks view access on an event for callers that hold a read
// channel open, such as the live feed. Denials are audited like any other
// registration read.
func (e *Engine) AuthorizeView(ctx context.Context, eventID string) (auth.EventRole, error) {
	return e.authorizeRead(ctx, eventID, "stream")
}

// Stats returns per-event counters. Reads are not locked against concurrent
// writes; slightly stale counts are acceptable.
func (e *Engine) Stats(ctx context.Context, eventID string) (Stats, error) {
	if _, err := e.authorizeRead(ctx, eventID, "stats"); err != nil {
		return Stats{}, err
	}
	return e.store.CountByStatus(ctx, eventID)
}

type transitionSpec struct {
	action     string
	capability auth.Capability
	notify     NotifyKind
	apply      func(ctx context.Context) (*Registration, error)
}

func (e *Engine) transition(ctx context.Context, eventID, regID string, spec transitionSpec) (Result, error) {
	actor, ok := auth.UserFromContext(ctx)
	if !ok {
		e.auditDenied(ctx, "", "", eventID, regID, spec.action, "not_authenticated")
		return Result{}, auth.ErrNotAuthenticated
	}

	role, err := e.auth.Authorize(ctx, actor, eventID, spec.capability)
	if err != nil {
		e.auditDenied(ctx, actor.ID, role, eventID, regID, spec.action, denialReason(err))
		return Result{}, err
	}

	before, err := e.store.Find(ctx, regID)
	if err != nil || before.EventID != eventID {
		e.auditFailed(ctx, actor.ID, role, eventID, regID, spec.action, nil, "not_found")
		return Result{}, ErrNotFound
	}

	after, err := spec.apply(ctx)
	if err != nil {
		reason := "store_error"
		if errors.Is(err, ErrInvalidTransition) {
			reason = "invalid_transition"
		}
		e.auditFailed(ctx, actor.ID, role, eventID, regID, spec.action, before, reason)
		return Result{}, err
	}

	// The transition is committed at this point. Notification failures only
	// qualify the outcome; they never undo the state change.
	var notifyErr error
	if spec.notify != "" && e.notifier != nil {
		if ev, evErr := e.store.FindEvent(ctx, eventID); evErr != nil {
			notifyErr = fmt.Errorf("%w: load event: %v", ErrNotifyFailed, evErr)
		} else if nerr := e.notifier.Notify(ctx, spec.notify, *after, *ev); nerr != nil {
			notifyErr = fmt.Errorf("%w: %v", ErrNotifyFailed, nerr)
		}
	}

	outcome := audit.OutcomeSuccess
	details := map[string]any{
		"event_id": eventID,
		"role":     string(role),
		"before":   snapshot(before),
		"after":    snapshot(after),
	}
	if notifyErr != nil {
		outcome = audit.OutcomeWarning
		details["notify_error"] = notifyErr.Error()
	}
	e.recorder.Record(ctx, audit.Entry{
		ActorID:      actor.ID,
		Action:       "registration." + spec.action,
		ResourceType: resourceRegistration,
		ResourceID:   regID,
		Details:      details,
		Outcome:      outcome,
	})
	obs.ObserveTransition(spec.action, string(outcome))

	if e.feed != nil {
		e.feed.Publish(stream.LifecycleEvent{
			EventID:            eventID,
			RegistrationID:     after.ID,
			Action:             spec.action,
			Status:             string(after.Status),
			RegistrationNumber: after.RegistrationNumber,
			Timestamp:          time.Now().UTC(),
		})
	}

	return Result{Registration: *after, NotifyErr: notifyErr}, nil
}

func (e *Engine) authorizeRead(ctx context.Context, eventID, action string) (auth.EventRole, error) {
	actor, ok := auth.UserFromContext(ctx)
	if !ok {
		e.auditDenied(ctx, "", "", eventID, "", action, "not_authenticated")
		return "", auth.ErrNotAuthenticated
	}
	role, err := e.auth.Authorize(ctx, actor, eventID, auth.CapView)
	if err != nil {
		e.auditDenied(ctx, actor.ID, role, eventID, "", action, denialReason(err))
		return "", err
	}
	return role, nil
}

func (e *Engine) auditDenied(ctx context.Context, actorID string, role auth.EventRole, eventID, regID, action, reason string) {
	details := map[string]any{"event_id": eventID, "reason": reason}
	if role != "" {
		details["role"] = string(role)
	}
	e.recorder.Record(ctx, audit.Entry{
		ActorID:      actorID,
		Action:       "registration." + action,
		ResourceType: resourceRegistration,
		ResourceID:   regID,
		Details:      details,
		Outcome:      audit.OutcomeFailed,
	})
	obs.ObserveTransition(action, "denied")
}

func (e *Engine) auditFailed(ctx context.Context, actorID string, role auth.EventRole, eventID, regID, action string, before *Registration, reason string) {
	details := map[string]any{"event_id": eventID, "role": string(role), "reason": reason}
	if before != nil {
		details["before"] = snapshot(before)
	}
	e.recorder.Record(ctx, audit.Entry{
		ActorID:      actorID,
		Action:       "registration." + action,
		ResourceType: resourceRegistration,
		ResourceID:   regID,
		Details:      details,
		Outcome:      audit.OutcomeFailed,
	})
	obs.ObserveTransition(action, "failed")
}

func denialReason(err error) string {
	switch {
	case errors.Is(err, auth.ErrNoEventAccess):
		return "no_event_access"
	case errors.Is(err, auth.ErrForbidden):
		return "forbidden"
	default:
		return "error"
	}
}

func snapshot(r *Registration) map[string]any {
	return map[string]any{
		"status":              string(r.Status),
		"check_in_status":     string(r.CheckInStatus),
		"inspection_status":   string(r.InspectionStatus),
		"registration_number": r.RegistrationNumber,
	}
}
