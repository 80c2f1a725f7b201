// Package metrics defines the domain counters of the user service. HTTP
// request metrics come from the echoprometheus middleware instead.
//
// All metrics register with the default Prometheus registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "users"

// UsersRegisteredTotal counts successful registrations through the API.
var UsersRegisteredTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registered_total",
		Help:      "Total number of users registered through the API.",
	},
)

// LoginAttemptsTotal counts login attempts.
// Label:
//   - result: "success", "rejected" (bad credentials) or "error"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// UsersDeletedTotal counts hard deletes.
var UsersDeletedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "deleted_total",
		Help:      "Total number of users deleted.",
	},
)

// TokenRejectionsTotal counts requests refused by the auth middleware.
// Label:
//   - reason: "missing" (no bearer header) or "invalid"
var TokenRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_rejections_total",
		Help:      "Total number of requests rejected for a missing or invalid bearer token.",
	},
	[]string{"reason"},
)
