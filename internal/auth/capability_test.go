package auth

import "testing"

func TestCapabilityMatrix(t *testing.T) {
	expect := map[EventRole]map[Capability]bool{
		RoleEventAdmin: {
			CapView: true, CapApprove: true, CapEditRegistration: true,
			CapGateScan: true, CapManageRounds: true, CapManageStaff: true,
		},
		RoleApprover: {
			CapView: true, CapApprove: true, CapEditRegistration: true,
		},
		RoleDataEntry: {
			CapView: true, CapEditRegistration: true,
		},
		RoleGate: {
			CapView: true, CapGateScan: true,
		},
		RoleViewer: {
			CapView: true,
		},
	}

	for _, role := range EventRoles {
		for _, cap := range Capabilities {
			want := expect[role][cap]
			if got := Allows(role, cap); got != want {
				t.Fatalf("Allows(%s, %s) = %v, want %v", role, cap, got, want)
			}
		}
	}
}

func TestAllowsUnknownDenied(t *testing.T) {
	if Allows(EventRole("mechanic"), CapView) {
		t.Fatal("unknown role must be denied")
	}
	if Allows(RoleEventAdmin, Capability("launch_rockets")) {
		t.Fatal("unknown capability must be denied")
	}
	if Allows("", "") {
		t.Fatal("empty role and capability must be denied")
	}
}

func TestRoleCapabilities(t *testing.T) {
	caps := RoleCapabilities(RoleGate)
	if len(caps) != 2 {
		t.Fatalf("expected 2 capabilities for gate, got %v", caps)
	}
	if caps[0] != CapGateScan || caps[1] != CapView {
		t.Fatalf("unexpected order: %v", caps)
	}
	if RoleCapabilities(EventRole("nope")) != nil {
		t.Fatal("unknown role should have no capabilities")
	}
}
