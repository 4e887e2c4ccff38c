package model

// Role is the platform role stored on users.role.
type Role string

const (
	RoleStudent    Role = "STUDENT"
	RoleInstructor Role = "INSTRUCTOR"
	RoleOrgAdmin   Role = "ORG_ADMIN"
	RoleAdmin      Role = "ADMIN"
)

// AllRoles lists roles in ascending privilege order.
var AllRoles = []Role{RoleStudent, RoleInstructor, RoleOrgAdmin, RoleAdmin}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	for _, known := range AllRoles {
		if r == known {
			return true
		}
	}
	return false
}

// rolePermissions maps each role to the permission codes embedded in its JWT.
var rolePermissions = map[Role][]Permission{
	RoleStudent: {},
	RoleInstructor: {
		PermissionCoursesWrite,
		PermissionDocumentsWrite,
		PermissionOrganizationsWrite,
	},
	RoleOrgAdmin: {
		PermissionCoursesWrite,
		PermissionDocumentsWrite,
		PermissionOrganizationsWrite,
		PermissionOrganizationsMembers,
	},
	RoleAdmin: AllPermissions,
}

// PermissionsFor returns the permission codes granted to a role.
func PermissionsFor(r Role) []string {
	perms := rolePermissions[r]
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		out = append(out, string(p))
	}
	return out
}
