package domain

import "slices"

const (
	RoleAdmin      = "admin"
	RoleManager    = "manager"
	RoleSupervisor = "supervisor"
	RoleExecutive  = "executive"
	RoleRegional   = "regional"
	RoleAuditor    = "auditor"
)

// DefaultRole is assigned when the login collaborator does not report a role.
const DefaultRole = RoleRegional

// Capability tags carried in User.Permissions.
const (
	PermAll              = "all"
	PermViewReports      = "view_reports"
	PermManageUsers      = "manage_users"
	PermViewGPS          = "view_gps"
	PermViewAnalysis     = "view_analysis"
	PermManageRegional   = "manage_regional"
	PermExportData       = "export_data"
	PermViewAssignedShop = "view_assigned_shops"
	PermSubmitAudits     = "submit_audits"
)

// DefaultPermissions is the minimal capability set granted when none is reported.
func DefaultPermissions() []string {
	return []string{PermViewReports}
}

// Roles lists the closed set of roles the portal understands.
var Roles = []string{RoleAdmin, RoleManager, RoleSupervisor, RoleExecutive, RoleRegional, RoleAuditor}

// IsKnownRole reports whether role belongs to the closed role set.
func IsKnownRole(role string) bool {
	return slices.Contains(Roles, role)
}

// User models an authenticated actor as seen by the portal.
type User struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Role        string   `json:"role"                validate:"required,oneof=admin manager supervisor executive regional auditor"`
	Permissions []string `json:"permissions"         validate:"required,dive,required"`
	CreatedBy   string   `json:"createdBy,omitempty"`
}

// Clone returns a deep copy so callers cannot mutate a session's user in place.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Permissions = slices.Clone(u.Permissions)
	return &c
}
