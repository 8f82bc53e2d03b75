// Package geofence checks points and missions against the active
// inclusion and exclusion zones.
package geofence

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/autopeer-io/fleetconsole/internal/console/model"
	"github.com/autopeer-io/fleetconsole/internal/pkg/metrics"
	"github.com/autopeer-io/fleetconsole/pkg/log"
)

// ErrZoneRejected is wrapped for every zone SetZones leaves out.
var ErrZoneRejected = errors.New("geofence zone rejected")

// Validator holds the current zone set. It is safe for concurrent use;
// the zone set can be swapped while checks run.
type Validator struct {
	mu         sync.RWMutex
	inclusions []model.Zone
	exclusions []model.Zone
}

// NewValidator creates a Validator with no zones, which accepts every point.
func NewValidator() *Validator {
	return &Validator{}
}

// SetZones validates and installs zones, replacing the previous set.
// Inactive zones are kept out of every check. Zones that fail validation
// are logged and left out while the valid ones are still installed; the
// returned error joins one ErrZoneRejected per left-out zone.
func (v *Validator) SetZones(zones []model.Zone) error {
	var (
		inc, exc []model.Zone
		errs     []error
	)
	for i := range zones {
		z := zones[i]
		if err := z.Validate(); err != nil {
			metrics.GeofenceZonesRejected.Inc()
			log.Warn("Geofence zone rejected", "zone", z.ID, "error", err)
			errs = append(errs, fmt.Errorf("%w: %w", ErrZoneRejected, err))
			continue
		}
		if !z.Active {
			continue
		}
		z.Boundary = append([]model.LatLon(nil), z.Boundary...)
		if z.Type == model.ZoneInclusion {
			inc = append(inc, z)
		} else {
			exc = append(exc, z)
		}
	}

	v.mu.Lock()
	v.inclusions, v.exclusions = inc, exc
	v.mu.Unlock()

	log.Info("Geofence zones installed",
		"inclusion", len(inc), "exclusion", len(exc), "rejected", len(errs), "total", len(zones))
	return errors.Join(errs...)
}

// Zones returns the active zones.
func (v *Validator) Zones() []model.Zone {
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := make([]model.Zone, 0, len(v.inclusions)+len(v.exclusions))
	out = append(out, v.inclusions...)
	return append(out, v.exclusions...)
}

// CheckPoint evaluates one position. With active inclusion zones the point
// must be covered by at least one of them; it must not be covered by any
// active exclusion zone. Boundaries and altitude limits are inclusive.
// A non-finite coordinate is always a violation.
func (v *Validator) CheckPoint(lat, lon, alt float64) Result {
	v.mu.RLock()
	defer v.mu.RUnlock()

	r := v.check(lat, lon, alt)
	record("point", r.Valid())
	return r
}

func (v *Validator) check(lat, lon, alt float64) Result {
	var r Result

	if !finite(lat) || !finite(lon) || !finite(alt) {
		r.Violations = append(r.Violations, Violation{Reason: InvalidPosition})
		return r
	}

	if len(v.inclusions) > 0 {
		included := false
		for i := range v.inclusions {
			if covers(&v.inclusions[i], lat, lon, alt) {
				included = true
				break
			}
		}
		if !included {
			for _, z := range v.inclusions {
				r.Violations = append(r.Violations, violation(OutsideInclusionZone, &z))
			}
		}
	}

	for i := range v.exclusions {
		if covers(&v.exclusions[i], lat, lon, alt) {
			r.Violations = append(r.Violations, violation(InsideExclusionZone, &v.exclusions[i]))
		}
	}

	return r
}

// CheckMission applies CheckPoint to every item and collects every failure.
func (v *Validator) CheckMission(items []model.MissionItem) MissionResult {
	v.mu.RLock()
	defer v.mu.RUnlock()

	res := MissionResult{Checked: len(items)}
	for _, it := range items {
		r := v.check(it.Lat, it.Lon, it.Alt)
		if !r.Valid() {
			res.Failed = append(res.Failed, ItemResult{Seq: it.Seq, Result: r})
		}
	}
	record("mission", res.Valid())
	return res
}

func violation(reason Reason, z *model.Zone) Violation {
	return Violation{Reason: reason, ZoneID: z.ID, ZoneName: z.Name, Action: z.Action}
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

func record(scope string, valid bool) {
	result := "valid"
	if !valid {
		result = "violation"
	}
	metrics.GeofenceChecks.WithLabelValues(scope, result).Inc()
}
