package model

import (
	"errors"
	"fmt"
	"math"
)

// ZoneType tells whether vehicles must stay inside or outside a zone.
type ZoneType string

const (
	ZoneInclusion ZoneType = "INCLUSION"
	ZoneExclusion ZoneType = "EXCLUSION"
)

// ViolationAction is the advisory action configured for a zone breach.
type ViolationAction string

const (
	ActionReport ViolationAction = "REPORT"
	ActionWarn   ViolationAction = "WARN"
	ActionLoiter ViolationAction = "LOITER"
	ActionRTL    ViolationAction = "RTL"
	ActionLand   ViolationAction = "LAND"
)

// Valid reports whether a is a known action.
func (a ViolationAction) Valid() bool {
	switch a {
	case ActionReport, ActionWarn, ActionLoiter, ActionRTL, ActionLand:
		return true
	}
	return false
}

// LatLon is one polygon vertex.
type LatLon struct {
	Lat float64
	Lon float64
}

// Zone is a geofence polygon with an altitude band.
type Zone struct {
	ID   string
	Name string
	Type ZoneType

	// MinAltitude and MaxAltitude bound the band inclusively. Unbounded
	// sides are -Inf / +Inf.
	MinAltitude float64
	MaxAltitude float64

	// Boundary is an implicitly closed ring of at least three vertices.
	Boundary []LatLon

	Action ViolationAction
	Active bool
}

// Unbounded returns an altitude band without limits.
func Unbounded() (min, max float64) {
	return math.Inf(-1), math.Inf(1)
}

// Validate checks the zone is well formed.
func (z *Zone) Validate() error {
	var errs []error

	if z.Type != ZoneInclusion && z.Type != ZoneExclusion {
		errs = append(errs, fmt.Errorf("unknown zone type %q", z.Type))
	}
	if len(z.Boundary) < 3 {
		errs = append(errs, fmt.Errorf("boundary has %d vertices, need at least 3", len(z.Boundary)))
	}
	for i, p := range z.Boundary {
		if !finite(p.Lat) || !finite(p.Lon) {
			errs = append(errs, fmt.Errorf("vertex %d is not a finite coordinate", i))
			break
		}
	}
	if math.IsNaN(z.MinAltitude) || math.IsNaN(z.MaxAltitude) || z.MinAltitude > z.MaxAltitude {
		errs = append(errs, fmt.Errorf("invalid altitude band [%v, %v]", z.MinAltitude, z.MaxAltitude))
	}
	if !z.Action.Valid() {
		errs = append(errs, fmt.Errorf("unknown violation action %q", z.Action))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("zone %q: %w", z.ID, err)
	}
	return nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
