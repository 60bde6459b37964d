package models

// Role tags the three user partitions.
type Role string

const (
	RoleAdministrator Role = "ADMINISTRATOR"
	RoleTeacher       Role = "TEACHER"
	RoleStudent       Role = "STUDENT"
)

// Valid reports whether the role is one of the supported tags.
func (r Role) Valid() bool {
	switch r {
	case RoleAdministrator, RoleTeacher, RoleStudent:
		return true
	default:
		return false
	}
}

// Permissions granted per role. The filter copies these onto the
// request identity so downstream checks never consult the store.
var rolePermissions = map[Role][]string{
	RoleAdministrator: {
		"admins:read", "admins:write",
		"teachers:read", "teachers:write",
		"students:read", "students:write",
		"subjects:read", "subjects:write",
		"attendance:read", "attendance:write",
	},
	RoleTeacher: {
		"students:read",
		"subjects:read",
		"attendance:read", "attendance:write",
	},
	RoleStudent: {
		"subjects:read",
	},
}

// PermissionsForRole returns a copy of the permission set for a role.
func PermissionsForRole(r Role) []string {
	perms := rolePermissions[r]
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}
