package geofence

import (
	"math"

	"github.com/autopeer-io/fleetconsole/internal/console/model"
)

// epsilon absorbs floating point noise in the on-segment test, in degrees.
const epsilon = 1e-12

// Contains reports whether (lat, lon) lies inside ring or on its boundary.
// The ring is implicitly closed.
func Contains(ring []model.LatLon, lat, lon float64) bool {
	n := len(ring)
	if n < 3 {
		return false
	}

	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := ring[i], ring[j]

		if onSegment(a, b, lat, lon) {
			return true
		}

		if (a.Lon > lon) != (b.Lon > lon) {
			cross := (b.Lat-a.Lat)*(lon-a.Lon)/(b.Lon-a.Lon) + a.Lat
			if lat < cross {
				inside = !inside
			}
		}
	}
	return inside
}

func onSegment(a, b model.LatLon, lat, lon float64) bool {
	cross := (b.Lon-a.Lon)*(lat-a.Lat) - (b.Lat-a.Lat)*(lon-a.Lon)
	if math.Abs(cross) > epsilon {
		return false
	}
	return lat >= math.Min(a.Lat, b.Lat)-epsilon && lat <= math.Max(a.Lat, b.Lat)+epsilon &&
		lon >= math.Min(a.Lon, b.Lon)-epsilon && lon <= math.Max(a.Lon, b.Lon)+epsilon
}

func inBand(z *model.Zone, alt float64) bool {
	return alt >= z.MinAltitude && alt <= z.MaxAltitude
}

// covers reports whether z contains the point and its altitude.
func covers(z *model.Zone, lat, lon, alt float64) bool {
	return inBand(z, alt) && Contains(z.Boundary, lat, lon)
}
