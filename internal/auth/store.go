package auth

import "context"

// Store describes persistence required by the auth subsystem.
type Store interface {
	Users() UserStore
	Sessions() SessionStore
	Staff() StaffStore
}

// UserStore manages admin accounts.
type UserStore interface {
	Create(ctx context.Context, u *AdminUser) error
	Find(ctx context.Context, id string) (*AdminUser, error)
	FindByEmail(ctx context.Context, email string) (*AdminUser, error)
	// Deactivate soft-disables the account; audit history keeps referencing it.
	Deactivate(ctx context.Context, id string) error
}

// SessionStore manages server-side sessions.
type SessionStore interface {
	Create(ctx context.Context, s *Session) error
	Find(ctx context.Context, id string) (*Session, error)
	Revoke(ctx context.Context, id string) error
	RevokeByUser(ctx context.Context, adminUserID string) error
}

// StaffStore reads and writes per-event role assignments.
type StaffStore interface {
	Assign(ctx context.Context, a StaffAssignment) error
	Remove(ctx context.Context, eventID, adminUserID string) error
	Find(ctx context.Context, eventID, adminUserID string) (*StaffAssignment, error)
	ListByEvent(ctx context.Context, eventID string) ([]StaffAssignment, error)
}
