package mission

import (
	"fmt"
	"math"
	"time"

	"github.com/autopeer-io/fleetconsole/internal/console/model"
)

// Profile describes the vehicle the estimates are made for.
type Profile struct {
	// CruiseSpeed in m/s.
	CruiseSpeed float64

	// Endurance is the flight time of a full battery.
	Endurance time.Duration

	// BatteryOverhead multiplies the raw battery estimate.
	BatteryOverhead float64

	// MaxSafeAltitude in meters; higher items produce a warning.
	MaxSafeAltitude float64

	// MinSpacing in meters; closer consecutive items produce a warning.
	MinSpacing float64

	// MaxClimbAngle in degrees; steeper legs produce a warning.
	MaxClimbAngle float64
}

// DefaultProfile returns the stock multirotor profile.
func DefaultProfile() Profile {
	return Profile{
		CruiseSpeed:     10,
		Endurance:       20 * time.Minute,
		BatteryOverhead: 1.2,
		MaxSafeAltitude: 120,
		MinSpacing:      5,
		MaxClimbAngle:   45,
	}
}

// batteryWarnPercent is the estimate above which a warning is raised.
const batteryWarnPercent = 80

// Analysis is the pre-flight estimate for a mission.
type Analysis struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`

	// TotalDistance in meters.
	TotalDistance float64 `json:"totalDistance"`

	// FlightTime in seconds.
	FlightTime float64 `json:"estimatedFlightTime"`

	// BatteryUsage in percent, capped at 100.
	BatteryUsage float64 `json:"estimatedBatteryUsage"`

	MaxAltitude float64 `json:"maxAltitude"`
	ItemCount   int     `json:"waypointCount"`
}

// Analyze estimates distance, flight time and battery use of items and
// lists structural errors and operational warnings.
func Analyze(items []model.MissionItem, p Profile) Analysis {
	a := Analysis{Errors: []string{}, Warnings: []string{}, ItemCount: len(items)}
	if len(items) == 0 {
		a.Errors = append(a.Errors, "mission has no items")
		return a
	}

	for _, err := range model.ValidateSequence(items) {
		a.Errors = append(a.Errors, err.Error())
	}

	for i, it := range items {
		if it.Lat < -90 || it.Lat > 90 {
			a.Errors = append(a.Errors, fmt.Sprintf("WP%d: invalid latitude %.6f", i, it.Lat))
		}
		if it.Lon < -180 || it.Lon > 180 {
			a.Errors = append(a.Errors, fmt.Sprintf("WP%d: invalid longitude %.6f", i, it.Lon))
		}
		if it.Alt < 0 {
			a.Errors = append(a.Errors, fmt.Sprintf("WP%d: negative altitude %.1fm", i, it.Alt))
		}
		if it.Alt > p.MaxSafeAltitude {
			a.Warnings = append(a.Warnings, fmt.Sprintf("WP%d: altitude %.1fm exceeds safe limit of %.1fm", i, it.Alt, p.MaxSafeAltitude))
		}
		a.MaxAltitude = math.Max(a.MaxAltitude, it.Alt)
	}

	for i := 0; i+1 < len(items); i++ {
		from, to := items[i], items[i+1]
		a.TotalDistance += legMeters(from.Lat, from.Lon, from.Alt, to.Lat, to.Lon, to.Alt)

		h := HaversineMeters(from.Lat, from.Lon, to.Lat, to.Lon)
		if h < p.MinSpacing {
			a.Warnings = append(a.Warnings, fmt.Sprintf("WP%d to WP%d: waypoints only %.1fm apart", i, i+1, h))
		}
		if h > 0 {
			if angle := toDeg(math.Atan(math.Abs(to.Alt-from.Alt) / h)); angle > p.MaxClimbAngle {
				a.Warnings = append(a.Warnings, fmt.Sprintf("WP%d to WP%d: steep altitude change (%.1f degrees)", i, i+1, angle))
			}
		}
	}

	if p.CruiseSpeed > 0 {
		a.FlightTime = a.TotalDistance / p.CruiseSpeed
	}
	if p.Endurance > 0 {
		usage := a.FlightTime / p.Endurance.Seconds() * 100 * p.BatteryOverhead
		if usage > batteryWarnPercent {
			a.Warnings = append(a.Warnings, fmt.Sprintf("mission may require more than %d%% battery", batteryWarnPercent))
		}
		if usage > 100 {
			a.Errors = append(a.Errors, "mission estimated to require more than 100% battery")
		}
		a.BatteryUsage = math.Min(usage, 100)
	}

	a.Valid = len(a.Errors) == 0
	return a
}
