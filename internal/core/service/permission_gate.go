package service

import (
	"slices"

	"github.com/shelfvoice/portal/internal/core/domain"
)

// HasPermission decides whether a UI element gated by required may be shown
// to user. It is a presentation filter only; the backend API enforces access.
func HasPermission(user *domain.User, required string) bool {
	if required == "" {
		return true
	}
	if user == nil {
		return false
	}
	if user.Role == domain.RoleAdmin || slices.Contains(user.Permissions, domain.PermAll) {
		return true
	}
	return slices.Contains(user.Permissions, required)
}

// HasRole reports whether user holds any of roles.
func HasRole(user *domain.User, roles ...string) bool {
	if user == nil {
		return false
	}
	return slices.Contains(roles, user.Role)
}

// RolePermissions is the default capability set granted to a role when an
// account is created.
func RolePermissions(role string) []string {
	switch role {
	case domain.RoleAdmin:
		return []string{domain.PermAll}
	case domain.RoleManager:
		return []string{domain.PermViewReports, domain.PermManageUsers, domain.PermViewGPS,
			domain.PermViewAnalysis, domain.PermManageRegional, domain.PermExportData}
	case domain.RoleSupervisor:
		return []string{domain.PermViewReports, domain.PermViewGPS, domain.PermViewAnalysis, domain.PermExportData}
	case domain.RoleExecutive, domain.RoleRegional:
		return []string{domain.PermViewReports, domain.PermViewGPS}
	case domain.RoleAuditor:
		return []string{domain.PermViewAssignedShop, domain.PermSubmitAudits}
	default:
		return domain.DefaultPermissions()
	}
}

// manageable lists the roles each role may administer.
var manageable = map[string][]string{
	domain.RoleManager:    {domain.RoleSupervisor, domain.RoleRegional},
	domain.RoleSupervisor: {domain.RoleRegional},
}

// CanManageUser reports whether actor may administer target.
func CanManageUser(actor, target *domain.User) bool {
	if actor == nil || target == nil {
		return false
	}
	if actor.Role == domain.RoleAdmin {
		return true
	}
	return slices.Contains(manageable[actor.Role], target.Role)
}

// FilterNavigation keeps the entries user may see. A group whose children are
// all hidden is dropped as well.
func FilterNavigation(items []domain.NavItem, user *domain.User) []domain.NavItem {
	out := make([]domain.NavItem, 0, len(items))
	for _, item := range items {
		if !HasPermission(user, item.Permission) {
			continue
		}
		if len(item.Children) > 0 {
			item.Children = FilterNavigation(item.Children, user)
			if len(item.Children) == 0 {
				continue
			}
		}
		out = append(out, item)
	}
	return out
}
