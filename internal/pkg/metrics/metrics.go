package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds every hub metric and backs the /metrics endpoint.
var Registry = prometheus.NewRegistry()

var (
	// MessagesIngested counts broker messages accepted for processing.
	MessagesIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trackhub_messages_ingested_total",
			Help: "Total number of MQTT messages accepted, by kind.",
		},
		[]string{"kind"}, // kind: status/gps
	)

	// MessagesDropped counts broker messages discarded before reaching the
	// session registry.
	MessagesDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trackhub_messages_dropped_total",
			Help: "Total number of MQTT messages dropped, by reason.",
		},
		[]string{"reason"}, // reason: malformed/unknown_vehicle/no_session
	)

	// ActiveSessions tracks vehicles currently reporting.
	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "trackhub_active_sessions",
			Help: "Number of vehicle sessions currently active.",
		},
	)

	// HeartbeatTimeouts counts sessions ended by heartbeat expiry.
	HeartbeatTimeouts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "trackhub_heartbeat_timeouts_total",
			Help: "Total number of sessions ended because no report arrived in time.",
		},
	)

	// EventsDelivered counts events written to dashboard connections.
	EventsDelivered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trackhub_events_delivered_total",
			Help: "Total number of events delivered to WebSocket clients, by wire event.",
		},
		[]string{"event"},
	)

	// ConnectedClients tracks live dashboard connections.
	ConnectedClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "trackhub_connected_clients",
			Help: "Number of WebSocket clients currently connected.",
		},
	)

	// TrajectoryWriteFailures counts persistence errors on the location path.
	TrajectoryWriteFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "trackhub_trajectory_write_failures_total",
			Help: "Total number of trajectory points that failed to persist.",
		},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		MessagesIngested,
		MessagesDropped,
		ActiveSessions,
		HeartbeatTimeouts,
		EventsDelivered,
		ConnectedClients,
		TrajectoryWriteFailures,
	)
}
