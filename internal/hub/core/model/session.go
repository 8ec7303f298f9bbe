package model

import "time"

// Ignition status values. ON and OFF arrive on the status topic; TIMEOUT
// is synthesized when a session expires without an explicit OFF.
const (
	StatusOn      = "ON"
	StatusOff     = "OFF"
	StatusTimeout = "TIMEOUT"
)

// VehicleSession describes one continuously-reporting period of a vehicle.
// The identity fields are a snapshot of the directories taken when the
// session started; a directory edit mid-session does not retroactively
// change the session.
type VehicleSession struct {
	VehicleID   string    `json:"vehicleId"`
	SessionID   string    `json:"sessionId"`
	DriverName  string    `json:"driverName"`
	Model       string    `json:"model"`
	CompanyID   string    `json:"companyId"`
	CompanyName string    `json:"companyName"`
	StartedAt   time.Time `json:"startedAt"`
	LastSeenAt  time.Time `json:"lastSeenAt"`
}
