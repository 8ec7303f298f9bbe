package model

import "time"

// TrajectoryPoint is one persisted location report. Points are append-only:
// the hub never mutates or deletes them.
type TrajectoryPoint struct {
	VehicleID string    `bson:"vehicleId" json:"vehicleId"`
	SessionID string    `bson:"sessionId" json:"sessionId"`
	Latitude  float64   `bson:"latitude" json:"latitude"`
	Longitude float64   `bson:"longitude" json:"longitude"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}
