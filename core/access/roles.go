// Package access maps user roles to capability flags. The mapping is the
// single place in the codebase that knows what a role means; handlers
// branch on capability flags only.
package access

// Role identifies a registered user's position in the organisation.
type Role string

const (
	RoleDirector   Role = "director"
	RoleManager    Role = "manager"
	RoleChiefAdmin Role = "chief_admin"
	RoleSysadmin   Role = "sysadmin"
)

// AllRoles lists the roles selectable during registration, in menu order.
var AllRoles = []Role{RoleDirector, RoleManager, RoleChiefAdmin, RoleSysadmin}

// Known reports whether r is one of the declared roles.
func Known(r Role) bool {
	switch r {
	case RoleDirector, RoleManager, RoleChiefAdmin, RoleSysadmin:
		return true
	}
	return false
}

// Label returns a human-readable name for the role.
func Label(r Role) string {
	switch r {
	case RoleDirector:
		return "Director"
	case RoleManager:
		return "Manager"
	case RoleChiefAdmin:
		return "Chief admin"
	case RoleSysadmin:
		return "System admin"
	}
	return string(r)
}

// CapabilitySet is the full set of permission flags derived from a role.
// It is recomputed on every event and must never be persisted.
type CapabilitySet struct {
	CreateCompanies bool
	CreateTasks     bool
	AssignRoles     bool
	ViewAnalytics   bool
	ExecuteTasks    bool
	IsAdmin         bool
	IsManager       bool
}

// Resolve computes the capability set for a role. Unknown or empty roles
// resolve to the zero set.
func Resolve(r Role) CapabilitySet {
	switch r {
	case RoleDirector:
		return CapabilitySet{
			CreateCompanies: true,
			CreateTasks:     true,
			AssignRoles:     true,
			ViewAnalytics:   true,
			IsManager:       true,
		}
	case RoleManager:
		return CapabilitySet{
			CreateCompanies: true,
			CreateTasks:     true,
			IsManager:       true,
		}
	case RoleChiefAdmin, RoleSysadmin:
		return CapabilitySet{
			ExecuteTasks: true,
			IsAdmin:      true,
		}
	}
	return CapabilitySet{}
}
