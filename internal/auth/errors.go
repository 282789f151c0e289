package auth

import "errors"

var (
	// ErrNotAuthenticated covers missing, expired and revoked sessions as well
	// as deactivated accounts. Callers must not distinguish these cases.
	ErrNotAuthenticated = errors.New("auth: not authenticated")

	// ErrNoEventAccess means the user is authenticated but holds neither a
	// full-access global role nor a staff assignment for the target event.
	ErrNoEventAccess = errors.New("auth: no access to this event")

	// ErrForbidden means the user is assigned to the event but the assigned
	// role lacks the requested capability.
	ErrForbidden = errors.New("auth: forbidden")

	ErrNotFound     = errors.New("auth: not found")
	ErrInvalidInput = errors.New("auth: invalid input")
)
