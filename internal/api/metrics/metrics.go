// Package metrics defines and registers all custom Prometheus metrics for the
// portal edge and the reference login service. It is the single source of
// truth for metric names, labels, and help strings.
//
// Metrics register with the default Prometheus registry on package init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "portal"

// Guard outcomes.
const (
	GuardAllowed = "allowed"
	GuardMissing = "missing"
	GuardCorrupt = "corrupt"
	GuardExpired = "expired"
)

// ── Edge metrics ──────────────────────────────────────────────────────────────

// GuardDecisionsTotal counts route guard decisions on protected paths.
// Label:
//   - outcome: "allowed", "missing", "corrupt" or "expired"
var GuardDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_decisions_total",
		Help:      "Total number of route guard decisions on protected paths, by outcome.",
	},
	[]string{"outcome"},
)

// BootstrapRedirectsTotal counts redirects issued by the root bootstrap page.
// Label:
//   - target: the landing path, or "/login" when there was no valid session
var BootstrapRedirectsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bootstrap_redirects_total",
		Help:      "Total number of bootstrap redirects, by target path.",
	},
	[]string{"target"},
)

// ── Login service metrics ─────────────────────────────────────────────────────

// LoginsTotal counts login attempts handled by the login service.
// Label:
//   - result: "success", "invalid_credentials", "not_found", "throttled" or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// UsersCreatedTotal counts accounts created through the login service.
// Label:
//   - role: the new account's role
var UsersCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_created_total",
		Help:      "Total number of user accounts created, by role.",
	},
	[]string{"role"},
)
