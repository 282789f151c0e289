package auth

import "sort"

// Capability identifies one privileged action scoped to an event.
type Capability string

const (
	CapView             Capability = "view"
	CapApprove          Capability = "approve"
	CapEditRegistration Capability = "edit_registration"
	CapGateScan         Capability = "gate_scan"
	CapManageRounds     Capability = "manage_rounds"
	CapManageStaff      Capability = "manage_staff"
)

// Capabilities lists all capabilities in a stable order.
var Capabilities = []Capability{
	CapView,
	CapApprove,
	CapEditRegistration,
	CapGateScan,
	CapManageRounds,
	CapManageStaff,
}

// capabilityMatrix is the total role×capability decision table. event_admin is
// a superset role; all other roles only share view.
var capabilityMatrix = map[EventRole]map[Capability]bool{
	RoleEventAdmin: {
		CapView:             true,
		CapApprove:          true,
		CapEditRegistration: true,
		CapGateScan:         true,
		CapManageRounds:     true,
		CapManageStaff:      true,
	},
	RoleApprover: {
		CapView:             true,
		CapApprove:          true,
		CapEditRegistration: true,
		CapGateScan:         false,
		CapManageRounds:     false,
		CapManageStaff:      false,
	},
	RoleDataEntry: {
		CapView:             true,
		CapApprove:          false,
		CapEditRegistration: true,
		CapGateScan:         false,
		CapManageRounds:     false,
		CapManageStaff:      false,
	},
	RoleGate: {
		CapView:             true,
		CapApprove:          false,
		CapEditRegistration: false,
		CapGateScan:         true,
		CapManageRounds:     false,
		CapManageStaff:      false,
	},
	RoleViewer: {
		CapView:             true,
		CapApprove:          false,
		CapEditRegistration: false,
		CapGateScan:         false,
		CapManageRounds:     false,
		CapManageStaff:      false,
	},
}

// Allows reports whether the event role holds the capability. Unknown roles
// and capabilities are denied.
func Allows(role EventRole, cap Capability) bool {
	caps, ok := capabilityMatrix[role]
	if !ok {
		return false
	}
	return caps[cap]
}

// RoleCapabilities returns the capabilities granted to a role, sorted, so the
// UI can render what a staff member may do.
func RoleCapabilities(role EventRole) []Capability {
	caps, ok := capabilityMatrix[role]
	if !ok {
		return nil
	}
	var out []Capability
	for c, allowed := range caps {
		if allowed {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
