package service

import (
	"testing"

	"github.com/shelfvoice/portal/internal/core/domain"
)

func TestRedirectTargetFor(t *testing.T) {
	cases := []struct {
		role, path string
		want       string
		wantOK     bool
	}{
		{domain.RoleAuditor, "/", AuditorDashboardPath, true},
		{domain.RoleAuditor, DashboardPath, AuditorDashboardPath, true},
		{domain.RoleAuditor, AuditorDashboardPath, "", false},
		{domain.RoleManager, "/", DashboardPath, true},
		{domain.RoleManager, DashboardPath, "", false},
		{domain.RoleAdmin, AuditorDashboardPath, DashboardPath, true},
		{domain.RoleRegional, "/login", DashboardPath, true},
		{"unknown", "/", DashboardPath, true},
	}

	for _, tc := range cases {
		got, ok := RedirectTargetFor(tc.role, tc.path)
		if got != tc.want || ok != tc.wantOK {
			t.Fatalf("RedirectTargetFor(%q, %q) = (%q, %v), want (%q, %v)", tc.role, tc.path, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestRedirectTargetFor_SettlesAfterOneHop(t *testing.T) {
	for _, role := range domain.Roles {
		target, ok := RedirectTargetFor(role, "/")
		if !ok {
			t.Fatalf("role %s: expected a redirect from /", role)
		}
		if _, again := RedirectTargetFor(role, target); again {
			t.Fatalf("role %s: redirected again from %s", role, target)
		}
	}
}
