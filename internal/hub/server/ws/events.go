package ws

import (
	"encoding/json"
	"time"

	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/internal/hub/core/model"
)

// Wire event names. The dashboard-wide feed (vehicle-status, vehicle-gps)
// and the per-vehicle room feed (vehicle-started, vehicle-stopped,
// gps-update) intentionally deliver the same state change under different
// names; a detail view subscribes to a room without re-filtering the feed.
const (
	EventVehicleStatus  = "vehicle-status"
	EventVehicleGPS     = "vehicle-gps"
	EventVehicleStarted = "vehicle-started"
	EventVehicleStopped = "vehicle-stopped"
	EventGPSUpdate      = "gps-update"
	EventMQTTError      = "mqtt-error"
	EventJoinedVehicle  = "joined-vehicle"
	EventError          = "error"
	EventUnauthorized   = "unauthorized"

	CommandJoinVehicle  = "join-vehicle"
	CommandLeaveVehicle = "leave-vehicle"
)

// envelope is the frame exchanged in both directions.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// command is the client-issued payload for join-vehicle and leave-vehicle.
type command struct {
	VehicleID string `json:"vehicleId"`
}

type statusPayload struct {
	VehicleID   string    `json:"vehicleId"`
	Status      string    `json:"status"`
	DriverName  string    `json:"driverName"`
	Model       string    `json:"model"`
	CompanyID   string    `json:"companyId"`
	CompanyName string    `json:"companyName"`
	SessionID   string    `json:"sessionId"`
	Timestamp   time.Time `json:"timestamp"`
	Reason      string    `json:"reason,omitempty"`
}

type gpsPayload struct {
	VehicleID   string    `json:"vehicleId"`
	SessionID   string    `json:"sessionId"`
	DriverName  string    `json:"driverName"`
	Model       string    `json:"model"`
	CompanyID   string    `json:"companyId"`
	CompanyName string    `json:"companyName"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Timestamp   time.Time `json:"timestamp"`
}

type gpsRoomPayload struct {
	VehicleID string    `json:"vehicleId"`
	SessionID string    `json:"sessionId"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
}

type errorPayload struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type joinedPayload struct {
	VehicleID string `json:"vehicleId"`
}

func newStatusPayload(e model.Event) statusPayload {
	return statusPayload{
		VehicleID:   e.Session.VehicleID,
		Status:      e.Status,
		DriverName:  e.Session.DriverName,
		Model:       e.Session.Model,
		CompanyID:   e.Session.CompanyID,
		CompanyName: e.Session.CompanyName,
		SessionID:   e.Session.SessionID,
		Timestamp:   e.Timestamp,
		Reason:      e.Reason,
	}
}

func newGPSPayload(e model.Event) gpsPayload {
	return gpsPayload{
		VehicleID:   e.Session.VehicleID,
		SessionID:   e.Session.SessionID,
		DriverName:  e.Session.DriverName,
		Model:       e.Session.Model,
		CompanyID:   e.Session.CompanyID,
		CompanyName: e.Session.CompanyName,
		Latitude:    e.Point.Latitude,
		Longitude:   e.Point.Longitude,
		Timestamp:   e.Timestamp,
	}
}

func newGPSRoomPayload(e model.Event) gpsRoomPayload {
	return gpsRoomPayload{
		VehicleID: e.Session.VehicleID,
		SessionID: e.Session.SessionID,
		Latitude:  e.Point.Latitude,
		Longitude: e.Point.Longitude,
		Timestamp: e.Timestamp,
	}
}

func encodeFrame(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Event: event, Data: data})
}
