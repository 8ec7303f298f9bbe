package model

import "time"

// EventType enumerates the domain events produced by the session registry.
type EventType string

const (
	// EventStarted fires when a vehicle turns on and a session is created.
	EventStarted EventType = "started"

	// EventStopped fires when a vehicle reports OFF and its session ends.
	EventStopped EventType = "stopped"

	// EventTimedOut fires when the heartbeat window elapses with no report.
	// It is a first-class state transition, not an error.
	EventTimedOut EventType = "timed_out"

	// EventLocation fires for every accepted location report.
	EventLocation EventType = "location"

	// EventBrokerError reports an operational failure during message
	// handling (directory or store unavailable). Surfaced to super-admin
	// connections only.
	EventBrokerError EventType = "broker_error"
)

// Event is a typed domain event flowing from the session registry to the
// fan-out layer. For a given vehicle, events are produced in a well-defined
// order and sinks must preserve it.
type Event struct {
	Type EventType

	// Session is a snapshot of the session the event concerns.
	// Zero for EventBrokerError.
	Session VehicleSession

	// Status is StatusOn, StatusOff or StatusTimeout for session
	// lifecycle events.
	Status string

	// Reason is set for EventTimedOut and EventBrokerError.
	Reason string

	// Point is set for EventLocation.
	Point *TrajectoryPoint

	Timestamp time.Time
}
