package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeSuccess  = "success"
	outcomeFailure  = "failure"
	outcomeRefused  = "refused"
	outcomeDenied   = "denied"
	outcomeRejected = "rejected"
)

var (
	// Handshakes counts handshake attempts by mechanism and outcome.
	Handshakes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mongoauth",
		Name:      "handshakes_total",
		Help:      "Total number of authentication handshakes",
	}, []string{"mechanism", "outcome"})

	// Logouts counts logout commands by outcome.
	Logouts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mongoauth",
		Name:      "logouts_total",
		Help:      "Total number of logout commands",
	}, []string{"outcome"})

	// AdminCommands counts administrative commands by command and outcome.
	AdminCommands = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mongoauth",
		Name:      "admin_commands_total",
		Help:      "Total number of administrative commands",
	}, []string{"command", "outcome"})

	// ActiveSessions tracks the number of sessions currently authenticated.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "mongoauth",
		Name:      "active_sessions",
		Help:      "Current number of authenticated sessions",
	})
)
