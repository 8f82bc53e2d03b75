package geofence

import (
	"errors"
	"fmt"
	"strings"

	"github.com/autopeer-io/fleetconsole/internal/console/model"
)

// ErrGeofenceViolation is wrapped by every validation failure.
var ErrGeofenceViolation = errors.New("geofence violation")

// Reason classifies a violation.
type Reason string

const (
	OutsideInclusionZone Reason = "OutsideInclusionZone"
	InsideExclusionZone  Reason = "InsideExclusionZone"
	// InvalidPosition marks a NaN or infinite coordinate, which no zone
	// can contain or exclude.
	InvalidPosition Reason = "InvalidPosition"
)

// Violation names the zone a point violates and the zone's configured
// action. The action is advisory.
type Violation struct {
	Reason   Reason                `json:"reason"`
	ZoneID   string                `json:"zoneId"`
	ZoneName string                `json:"zoneName"`
	Action   model.ViolationAction `json:"violationAction"`
}

func (v Violation) String() string {
	switch v.Reason {
	case OutsideInclusionZone:
		return "Outside inclusion zone: " + v.ZoneName
	case InsideExclusionZone:
		return "Inside exclusion zone: " + v.ZoneName
	case InvalidPosition:
		return "Position is not a finite coordinate"
	}
	return string(v.Reason) + ": " + v.ZoneName
}

// Result is the verdict for one point.
type Result struct {
	Violations []Violation `json:"violations"`
}

// Valid reports whether the point passed every zone.
func (r Result) Valid() bool { return len(r.Violations) == 0 }

// Message is a human readable summary of the verdict.
func (r Result) Message() string {
	if r.Valid() {
		return "Position is valid"
	}
	parts := make([]string, 0, len(r.Violations))
	for _, v := range r.Violations {
		parts = append(parts, v.String())
	}
	return strings.Join(parts, "; ")
}

// Err returns nil for a valid point and a *ViolationError otherwise.
func (r Result) Err() error {
	if r.Valid() {
		return nil
	}
	return &ViolationError{Items: []ItemResult{{Seq: -1, Result: r}}}
}

// ItemResult is the verdict for one mission item.
type ItemResult struct {
	Seq int `json:"seq"`
	Result
}

// MissionResult aggregates the verdicts of every failing mission item.
type MissionResult struct {
	Checked int          `json:"checked"`
	Failed  []ItemResult `json:"failed"`
}

// Valid reports whether every item passed.
func (m MissionResult) Valid() bool { return len(m.Failed) == 0 }

// Err returns nil for a valid mission and a *ViolationError otherwise.
func (m MissionResult) Err() error {
	if m.Valid() {
		return nil
	}
	return &ViolationError{Items: m.Failed}
}

// ViolationError carries the complete set of failing points.
type ViolationError struct {
	// Items has Seq -1 for a single point check.
	Items []ItemResult
}

func (e *ViolationError) Error() string {
	parts := make([]string, 0, len(e.Items))
	for _, it := range e.Items {
		if it.Seq < 0 {
			parts = append(parts, it.Message())
			continue
		}
		parts = append(parts, fmt.Sprintf("item %d: %s", it.Seq, it.Message()))
	}
	return ErrGeofenceViolation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ViolationError) Unwrap() error { return ErrGeofenceViolation }
