package service

import "github.com/shelfvoice/portal/internal/core/domain"

// Landing paths per role.
const (
	DashboardPath        = "/dashboard"
	AuditorDashboardPath = "/auditor-dashboard"
	LoginPath            = "/login"
)

// RedirectTargetFor returns the landing path for role, or ok=false when
// currentPath already is that path. Calling it on every render therefore
// settles after at most one redirect.
func RedirectTargetFor(role, currentPath string) (target string, ok bool) {
	target = LandingPath(role)
	if currentPath == target {
		return "", false
	}
	return target, true
}

// LandingPath is the canonical dashboard for role.
func LandingPath(role string) string {
	if role == domain.RoleAuditor {
		return AuditorDashboardPath
	}
	return DashboardPath
}
