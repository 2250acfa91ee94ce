// Package metrics defines and registers all custom Prometheus metrics for the
// PFE backend API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation through promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "pfe"

// ── Credential metrics ────────────────────────────────────────────────────────

// AuthAttemptsTotal counts login and registration attempts.
// Labels:
//   - operation: "login" or "register"
//   - result: "success", "invalid_credentials", "conflict", "invalid_input" or "error"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of login and registration attempts, by outcome.",
	},
	[]string{"operation", "result"},
)

// GuardRejectionsTotal counts requests refused by an access guard.
// Labels:
//   - guard: "authenticated" or "admin"
//   - reason: "invalid_token", "missing_token", "access_denied" or "not_admin"
var GuardRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_rejections_total",
		Help:      "Total number of requests rejected by an access guard.",
	},
	[]string{"guard", "reason"},
)

// RateLimitedTotal counts requests refused for exceeding an attempt window.
// Label:
//   - scope: the rate limit policy (e.g. "login", "register")
var RateLimitedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Total number of requests rejected by a rate limit policy.",
	},
	[]string{"scope"},
)

// AccountChangesTotal counts successful account mutations.
// Label:
//   - operation: "update" or "delete"
var AccountChangesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "account_changes_total",
		Help:      "Total number of account updates and deletions.",
	},
	[]string{"operation"},
)

// ── Telemetry metrics ─────────────────────────────────────────────────────────

// TelemetryQueueDepth tracks the number of measurements waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var TelemetryQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "telemetry_queue_depth",
		Help:      "Current number of measurements pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// TelemetryWritesTotal counts measurement writes to the time-series store.
// Label:
//   - result: "ok" or "error"
var TelemetryWritesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "telemetry_writes_total",
		Help:      "Total number of measurement writes, labelled by result.",
	},
	[]string{"result"},
)
