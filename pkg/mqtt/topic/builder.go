package topic

import (
	"fmt"
	"strings"
)

// Constants defining the standard topic segments.
// These act as the protocol contract between the vehicle trackers and the
// hub. Changing these values breaks compatibility with deployed trackers.
const (
	// SegmentStatus carries ignition reports.
	// Payload: { "status": "ON"|"OFF", "timestamp": ... }
	// Pattern: {root}/{vehicleID}/status
	SegmentStatus = "status"

	// SegmentGPS carries location reports.
	// Payload: { "latitude": ..., "longitude": ..., "timestamp": ... }
	// Pattern: {root}/{vehicleID}/gps
	SegmentGPS = "gps"
)

// Standard MQTT wildcard definitions.
const (
	// Wildcard is the single-level wildcard "+". It matches exactly one
	// topic level: "vehicles/+/gps" matches "vehicles/veh-1/gps".
	Wildcard = "+"

	// MultiWildcard is the multi-level wildcard "#". It must be the last
	// character in a topic filter.
	MultiWildcard = "#"
)

// Builder encapsulates the construction and parsing of telemetry topics.
// The vehicle id sits in the middle level so a single-level wildcard
// subscription per report kind covers the whole fleet.
type Builder struct {
	// root is the base namespace for all topics (e.g. "vehicles").
	root string
}

// NewBuilder creates a Builder with the specified root namespace.
func NewBuilder(root string) *Builder {
	return &Builder{root: root}
}

// Status returns the status report topic for a specific vehicle.
func (b *Builder) Status(vehicleID string) string {
	return b.build(vehicleID, SegmentStatus)
}

// GPS returns the location report topic for a specific vehicle.
func (b *Builder) GPS(vehicleID string) string {
	return b.build(vehicleID, SegmentGPS)
}

// StatusWildcard returns the filter the hub subscribes to for ALL status
// reports. Result: {root}/+/status
func (b *Builder) StatusWildcard() string {
	return b.build(Wildcard, SegmentStatus)
}

// GPSWildcard returns the filter the hub subscribes to for ALL location
// reports. Result: {root}/+/gps
func (b *Builder) GPSWildcard() string {
	return b.build(Wildcard, SegmentGPS)
}

// VehicleID extracts the vehicle id from a concrete telemetry topic.
// It returns an error for topics outside this builder's namespace or with
// an unexpected shape; such messages must be dropped, never guessed at.
func (b *Builder) VehicleID(topic string) (string, error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] != b.root || parts[1] == "" {
		return "", fmt.Errorf("topic %q does not match %s/{vehicleID}/{segment}", topic, b.root)
	}
	return parts[1], nil
}

// build is a private helper to construct the final topic string.
// Pattern: {root}/{vehicleID}/{segment}
func (b *Builder) build(id, segment string) string {
	return fmt.Sprintf("%s/%s/%s", b.root, id, segment)
}
