package model

import (
	"fmt"
)

// Command is a mission item command, identified by its MAVLink command id.
type Command int

const (
	CommandWaypoint Command = 16 // MAV_CMD_NAV_WAYPOINT
	CommandLand     Command = 21 // MAV_CMD_NAV_LAND
	CommandTakeoff  Command = 22 // MAV_CMD_NAV_TAKEOFF
)

func (c Command) String() string {
	switch c {
	case CommandWaypoint:
		return "WAYPOINT"
	case CommandLand:
		return "LAND"
	case CommandTakeoff:
		return "TAKEOFF"
	}
	return fmt.Sprintf("Command(%d)", int(c))
}

// Valid reports whether c is one of the supported commands.
func (c Command) Valid() bool {
	return c == CommandWaypoint || c == CommandLand || c == CommandTakeoff
}

// Frame is the coordinate frame of a mission item.
type Frame int

// FrameGlobalRelativeAlt is WGS84 lat/lon with altitude relative to home.
const FrameGlobalRelativeAlt Frame = 3

// MissionItem is one protocol-level mission instruction.
type MissionItem struct {
	// Seq is the 0-based index of the item within its mission.
	Seq int

	Frame   Frame
	Command Command

	// Current marks the item the vehicle starts from.
	Current bool

	AutoContinue bool

	// Params are the command-specific parameters param1..param4.
	// For TAKEOFF, Params[0] is the minimum climb pitch in degrees.
	Params [4]float64

	Lat float64
	Lon float64
	Alt float64
}

// Mission is the current mission of one vehicle.
type Mission struct {
	VehicleID string
	Items     []MissionItem
}

// ValidateSequence reports every violation of the mission item invariants:
// sequence numbers are 0..N-1 in order, the first item is TAKEOFF and the
// last is LAND when N > 1, and every other item is WAYPOINT.
func ValidateSequence(items []MissionItem) []error {
	var errs []error
	n := len(items)

	for i, it := range items {
		if it.Seq != i {
			errs = append(errs, fmt.Errorf("item %d: sequence is %d, want %d", i, it.Seq, i))
		}

		want := CommandWaypoint
		switch {
		case n > 1 && i == 0:
			want = CommandTakeoff
		case n > 1 && i == n-1:
			want = CommandLand
		}
		if it.Command != want {
			errs = append(errs, fmt.Errorf("item %d: command is %s, want %s", i, it.Command, want))
		}
	}

	return errs
}

// Waypoint is a planning-time map point picked by the operator.
type Waypoint struct {
	Lat float64
	Lon float64
}
