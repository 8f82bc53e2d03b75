package topic

import (
	"strings"
)

// Topic segments published by the ground-control backend.
// Changing these values breaks compatibility with the backend.
const (
	// SuffixTelemetry carries one vehicle record per message.
	// Structure: {root}/telemetry/{vehicleID}
	SuffixTelemetry = "telemetry"

	// SuffixMissions carries the full mission item list of one vehicle.
	// Structure: {root}/missions/{vehicleID}
	SuffixMissions = "missions"

	// SuffixDetections carries either one detection or the full detection list.
	// Structure: {root}/detections
	SuffixDetections = "detections"
)

// Builder encapsulates the logic for constructing topic strings.
type Builder struct {
	// root is the base namespace for all topics (e.g. "gcs/v1"). May be empty.
	root string
}

// NewBuilder creates a new Builder with the specified root namespace.
func NewBuilder(root string) *Builder {
	return &Builder{root: strings.Trim(root, separator)}
}

// Telemetry returns the telemetry topic of one vehicle.
func (b *Builder) Telemetry(vehicleID string) string {
	return b.build(SuffixTelemetry, vehicleID)
}

// TelemetryWildcard matches the telemetry topics of all vehicles.
func (b *Builder) TelemetryWildcard() string {
	return b.build(SuffixTelemetry, Wildcard)
}

// Missions returns the mission topic of one vehicle.
func (b *Builder) Missions(vehicleID string) string {
	return b.build(SuffixMissions, vehicleID)
}

// MissionsWildcard matches the mission topics of all vehicles.
func (b *Builder) MissionsWildcard() string {
	return b.build(SuffixMissions, Wildcard)
}

// Detections returns the detection topic.
func (b *Builder) Detections() string {
	return b.build(SuffixDetections)
}

// VehicleID extracts the vehicle segment from a telemetry or missions topic.
// ok is false when the topic does not belong to this builder's root or suffix.
func (b *Builder) VehicleID(suffix, topic string) (string, bool) {
	prefix := b.build(suffix) + separator
	if !strings.HasPrefix(topic, prefix) {
		return "", false
	}
	id := strings.TrimPrefix(topic, prefix)
	if id == "" || strings.Contains(id, separator) {
		return "", false
	}
	return id, true
}

func (b *Builder) build(segments ...string) string {
	if b.root == "" {
		return strings.Join(segments, separator)
	}
	return b.root + separator + strings.Join(segments, separator)
}
