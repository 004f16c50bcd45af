package authz

import "slices"

// Caller identifies who invokes an operation and which roles they hold.
type Caller struct {
	ID    string
	Name  string
	Roles []string

	// Local marks a host operator running the CLI against the store
	// directly. Local callers pass every role check.
	Local bool
}

// LocalOperator returns the caller used by the operator CLI.
func LocalOperator(name string) Caller {
	if name == "" {
		name = "operador"
	}
	return Caller{ID: "local", Name: name, Local: true}
}

// HasRole reports whether caller holds roleID. An empty roleID matches no
// one.
func HasRole(caller Caller, roleID string) bool {
	if roleID == "" {
		return false
	}
	return slices.Contains(caller.Roles, roleID)
}

// Policy maps the two permission predicates onto configured role ids.
type Policy struct {
	StaffRoleID     string
	ResponderRoleID string
}

// IsStaff reports whether caller may run staff-only operations.
func (p Policy) IsStaff(caller Caller) bool {
	return caller.Local || HasRole(caller, p.StaffRoleID)
}

// IsResponder reports whether caller may answer petitions. With no
// responder role configured only local operators qualify.
func (p Policy) IsResponder(caller Caller) bool {
	return caller.Local || HasRole(caller, p.ResponderRoleID)
}
