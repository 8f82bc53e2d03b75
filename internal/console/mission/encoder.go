// Package mission turns operator waypoint lists into vehicle-executable
// mission items and estimates what flying them costs.
package mission

import (
	"errors"

	"github.com/autopeer-io/fleetconsole/internal/console/model"
)

// ErrEmptyPlan is returned when a plan has no waypoints.
var ErrEmptyPlan = errors.New("mission plan has no waypoints")

// TakeoffMinPitch is the minimum climb pitch, in degrees, carried by TAKEOFF items.
const TakeoffMinPitch = 15

// Plan is an operator-built mission for one vehicle.
type Plan struct {
	VehicleID string

	// DefaultAltitude is applied to every item, in meters relative to home.
	DefaultAltitude float64

	Waypoints []model.Waypoint
}

// Encode converts p into mission items. With more than one waypoint the
// first becomes TAKEOFF, the last LAND and the rest WAYPOINT; a single
// waypoint is a bare WAYPOINT. Encode is pure.
func Encode(p Plan) ([]model.MissionItem, error) {
	n := len(p.Waypoints)
	if n == 0 {
		return nil, ErrEmptyPlan
	}

	items := make([]model.MissionItem, 0, n)
	for i, wp := range p.Waypoints {
		it := model.MissionItem{
			Seq:          i,
			Frame:        model.FrameGlobalRelativeAlt,
			Command:      roleAt(i, n),
			Current:      i == 0,
			AutoContinue: true,
			Lat:          wp.Lat,
			Lon:          wp.Lon,
			Alt:          p.DefaultAltitude,
		}
		if it.Command == model.CommandTakeoff {
			it.Params[0] = TakeoffMinPitch
		}
		items = append(items, it)
	}
	return items, nil
}

func roleAt(i, n int) model.Command {
	switch {
	case n > 1 && i == 0:
		return model.CommandTakeoff
	case n > 1 && i == n-1:
		return model.CommandLand
	default:
		return model.CommandWaypoint
	}
}
