// internal/metrics/metrics.go

// Package metrics holds the Prometheus collectors for the lobby.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles every collector the lobby updates. Construct one per
// process with New and share it.
type Metrics struct {
	OpenInvites     prometheus.Gauge
	Subscribers     prometheus.Gauge
	Commands        *prometheus.CounterVec
	Broadcasts      prometheus.Counter
	GraceExpiries   prometheus.Counter
	GamesCreated    prometheus.Counter
	ActiveGames     prometheus.Gauge
	DroppedMessages prometheus.Counter
}

// New builds and registers the lobby collectors against reg. Tests pass a
// fresh prometheus.NewRegistry to avoid duplicate-registration panics.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OpenInvites: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lobby_open_invites",
			Help: "Number of live invites, public and private.",
		}),
		Subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lobby_subscribers",
			Help: "Number of connections subscribed to the invite list.",
		}),
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lobby_commands_total",
			Help: "Lobby commands processed, by action and outcome.",
		}, []string{"action", "outcome"}),
		Broadcasts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lobby_broadcasts_total",
			Help: "Catalogue broadcasts fanned out to subscribers.",
		}),
		GraceExpiries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lobby_grace_expiries_total",
			Help: "Disconnect-grace timers that fired and removed invites.",
		}),
		GamesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lobby_games_created_total",
			Help: "Games created from accepted invites.",
		}),
		ActiveGames: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lobby_active_games",
			Help: "Games currently in progress.",
		}),
		DroppedMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lobby_dropped_messages_total",
			Help: "Outbound messages dropped because a send queue was full.",
		}),
	}
	reg.MustRegister(
		m.OpenInvites, m.Subscribers, m.Commands, m.Broadcasts,
		m.GraceExpiries, m.GamesCreated, m.ActiveGames, m.DroppedMessages,
	)
	return m
}
