package auth

import "time"

// GlobalRole is an account-wide role carried by every back-office user.
// SuperAdmin and Admin hold full access to every event; Staff accounts only get
// whatever per-event assignments they were given.
type GlobalRole string

const (
	GlobalSuperAdmin GlobalRole = "super_admin"
	GlobalAdmin      GlobalRole = "admin"
	GlobalStaff      GlobalRole = "staff"
)

// FullAccess reports whether the role supersedes per-event assignments.
func (r GlobalRole) FullAccess() bool {
	return r == GlobalSuperAdmin || r == GlobalAdmin
}

// Valid reports whether the role is one of the known global roles.
func (r GlobalRole) Valid() bool {
	switch r {
	case GlobalSuperAdmin, GlobalAdmin, GlobalStaff:
		return true
	}
	return false
}

// EventRole is the role a user holds for one specific event.
type EventRole string

const (
	RoleEventAdmin EventRole = "event_admin"
	RoleApprover   EventRole = "approver"
	RoleDataEntry  EventRole = "data_entry"
	RoleGate       EventRole = "gate"
	RoleViewer     EventRole = "viewer"
)

// EventRoles lists all event roles in a stable order.
var EventRoles = []EventRole{RoleEventAdmin, RoleApprover, RoleDataEntry, RoleGate, RoleViewer}

// Valid reports whether the role is one of the known event roles.
func (r EventRole) Valid() bool {
	switch r {
	case RoleEventAdmin, RoleApprover, RoleDataEntry, RoleGate, RoleViewer:
		return true
	}
	return false
}

// AdminUser is a back-office account. Accounts referenced by audit history are
// deactivated, never deleted.
type AdminUser struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name,omitempty"`
	Role         GlobalRole `json:"role"`
	PasswordHash string     `json:"-"`
	Active       bool       `json:"active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// StaffAssignment links an admin user to one event with an event role.
// Unique per (event, user); a user may hold different roles on other events.
type StaffAssignment struct {
	EventID     string    `json:"event_id"`
	AdminUserID string    `json:"admin_user_id"`
	Role        EventRole `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

// Session binds an opaque bearer token to one admin user. The raw secret is
// never stored; only its SHA-256 hash.
type Session struct {
	ID          string    `json:"id"`
	AdminUserID string    `json:"admin_user_id"`
	TokenHash   string    `json:"-"`
	ExpiresAt   time.Time `json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
	Revoked     bool      `json:"revoked"`
}
