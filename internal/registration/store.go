package registration

import "context"

// ListFilter narrows ListByEvent results.
type ListFilter struct {
	Status Status // empty matches all
	Limit  int
}

// Store persists registrations and events. Transition methods apply their
// guard and the mutation atomically: a guard miss returns ErrInvalidTransition
// and leaves the row untouched, and Approve assigns the registration number
// with a conditional "set only if currently null" so concurrent approvals
// observe one number.
type Store interface {
	CreateEvent(ctx context.Context, ev *Event) error
	FindEvent(ctx context.Context, id string) (*Event, error)

	Create(ctx context.Context, r *Registration) error
	Find(ctx context.Context, id string) (*Registration, error)
	ListByEvent(ctx context.Context, eventID string, f ListFilter) ([]Registration, error)
	CountByStatus(ctx context.Context, eventID string) (Stats, error)

	// Approve moves the registration to approved from pending, rejected or
	// approved (re-approval and concurrent approval are idempotent).
	Approve(ctx context.Context, id string) (*Registration, error)
	// Reject moves pending or approved to rejected; the number is retained.
	Reject(ctx context.Context, id, reason string) (*Registration, error)
	// CheckIn marks an approved registration checked in with a passed
	// inspection. Any other primary status is an invalid transition.
	CheckIn(ctx context.Context, id string) (*Registration, error)
	// GateReject records a failed inspection on an approved registration.
	// The primary status and check-in state are unchanged.
	GateReject(ctx context.Context, id, reason string) (*Registration, error)
}
