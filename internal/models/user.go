package models

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleSuperAdmin UserRole = "SUPERADMIN"
	RoleAdmin      UserRole = "ADMIN"
	RoleTeacher    UserRole = "TEACHER"
	RoleStudent    UserRole = "STUDENT"
)

// CanManageTimetables reports whether the role may generate, save or configure timetables.
func (r UserRole) CanManageTimetables() bool {
	return r == RoleSuperAdmin || r == RoleAdmin
}
