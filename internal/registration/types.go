package registration

import (
	"errors"
	"time"
)

// Status is the primary review status of a registration.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// CheckInStatus tracks whether the participant passed the gate on show day.
// It is deliberately separate from Status: a registration can be approved
// weeks in advance and still fail the same-day inspection.
type CheckInStatus string

const (
	NotCheckedIn CheckInStatus = "not_checked_in"
	CheckedIn    CheckInStatus = "checked_in"
)

// InspectionStatus is the gate inspection sub-state. A rejected inspection
// bars entry without touching the primary status.
type InspectionStatus string

const (
	InspectionNone     InspectionStatus = "none"
	InspectionPassed   InspectionStatus = "passed"
	InspectionRejected InspectionStatus = "rejected"
)

// Event is a single car show. Code prefixes issued registration numbers.
type Event struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	StartsAt  time.Time `json:"starts_at"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// Registration is one participant/vehicle entry tied to exactly one event.
// Rows are never deleted; all state is soft.
type Registration struct {
	ID      string `json:"id"`
	EventID string `json:"event_id"`

	OwnerName  string `json:"owner_name"`
	OwnerEmail string `json:"owner_email"`
	OwnerPhone string `json:"owner_phone,omitempty"`

	VehicleMake  string `json:"vehicle_make"`
	VehicleModel string `json:"vehicle_model"`
	VehicleYear  int    `json:"vehicle_year,omitempty"`
	PlateNumber  string `json:"plate_number,omitempty"`

	Status           Status           `json:"status"`
	CheckInStatus    CheckInStatus    `json:"check_in_status"`
	InspectionStatus InspectionStatus `json:"inspection_status"`

	// RegistrationNumber is assigned on first approval and never cleared,
	// so a reject/re-approve cycle reuses the original number.
	RegistrationNumber string `json:"registration_number,omitempty"`

	RejectionReason  string `json:"rejection_reason,omitempty"`
	InspectionReason string `json:"inspection_reason,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	RejectedAt  *time.Time `json:"rejected_at,omitempty"`
	CheckedInAt *time.Time `json:"checked_in_at,omitempty"`
}

// Stats is a per-event registration summary for dashboards. Counts may lag
// concurrent writes slightly; the listing path is human-paced.
type Stats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Approved  int `json:"approved"`
	Rejected  int `json:"rejected"`
	CheckedIn int `json:"checked_in"`
}

var (
	ErrNotFound = errors.New("registration: not found")

	// ErrInvalidTransition means the requested state change is not legal from
	// the registration's current state. No state change occurs.
	ErrInvalidTransition = errors.New("registration: invalid transition")

	// ErrNotifyFailed qualifies an otherwise committed transition whose
	// outward notification failed. It is a warning, never a rollback.
	ErrNotifyFailed = errors.New("registration: notification failed")

	ErrInvalidInput = errors.New("registration: invalid input")
)
