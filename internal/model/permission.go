package model

// Permission represents a string code for a specific system action.
type Permission string

const (
	// PermissionCoursesWrite allows authoring own courses, modules, lessons and assessments.
	PermissionCoursesWrite Permission = "courses:write"

	// PermissionCoursesModerate allows editing, archiving and deleting any course.
	PermissionCoursesModerate Permission = "courses:moderate"

	// PermissionDocumentsWrite allows uploading course documents.
	PermissionDocumentsWrite Permission = "documents:write"

	// PermissionOrganizationsWrite allows creating organizations.
	PermissionOrganizationsWrite Permission = "organizations:write"

	// PermissionOrganizationsMembers allows managing members of own organization.
	PermissionOrganizationsMembers Permission = "organizations:members"

	// PermissionOrganizationsManage allows managing any organization.
	PermissionOrganizationsManage Permission = "organizations:manage"

	// PermissionUsersRead allows listing users.
	PermissionUsersRead Permission = "users:read"

	// PermissionUsersWrite allows changing user roles and status.
	PermissionUsersWrite Permission = "users:write"

	// PermissionActivityRead allows reading the platform activity log.
	PermissionActivityRead Permission = "activity:read"

	// PermissionDashboardRead allows viewing platform statistics.
	PermissionDashboardRead Permission = "dashboard:read"
)

// AllPermissions is a slice of all available permissions.
var AllPermissions = []Permission{
	PermissionCoursesWrite,
	PermissionCoursesModerate,
	PermissionDocumentsWrite,
	PermissionOrganizationsWrite,
	PermissionOrganizationsMembers,
	PermissionOrganizationsManage,
	PermissionUsersRead,
	PermissionUsersWrite,
	PermissionActivityRead,
	PermissionDashboardRead,
}

// HasPermission reports whether perms contains p.
func HasPermission(perms []string, p Permission) bool {
	for _, have := range perms {
		if have == string(p) {
			return true
		}
	}
	return false
}
