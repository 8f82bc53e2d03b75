package model

import (
	"errors"
	"fmt"
	"math"
)

// CommandName names a fire-and-forget vehicle command.
type CommandName string

const (
	CmdArm     CommandName = "arm"
	CmdDisarm  CommandName = "disarm"
	CmdTakeoff CommandName = "takeoff"
	CmdRTL     CommandName = "rtl"
	CmdMode    CommandName = "mode"
	CmdStream  CommandName = "stream"
	CmdGoto    CommandName = "goto"

	// CmdMissionFetch asks the vehicle to report its onboard mission, which
	// then arrives on the push channel.
	CmdMissionFetch CommandName = "mission-fetch"
)

// VehicleCommand is a command addressed to one vehicle. Only the fields
// used by Name are meaningful.
type VehicleCommand struct {
	Name CommandName

	// Altitude is the takeoff altitude in meters.
	Altitude float64

	// Mode is the target flight mode.
	Mode string

	// Target is the goto destination.
	Target Position
}

// Validate checks that the command is known and carries its arguments.
func (c VehicleCommand) Validate() error {
	switch c.Name {
	case CmdArm, CmdDisarm, CmdRTL, CmdStream, CmdMissionFetch:
		return nil
	case CmdGoto:
		t := c.Target
		if !finite(t.Lat) || !finite(t.Lon) || !finite(t.Alt) {
			return fmt.Errorf("goto target must be finite, got %v,%v,%v", t.Lat, t.Lon, t.Alt)
		}
		return nil
	case CmdTakeoff:
		if !(c.Altitude > 0) || math.IsInf(c.Altitude, 1) {
			return fmt.Errorf("takeoff altitude must be positive, got %v", c.Altitude)
		}
		return nil
	case CmdMode:
		if c.Mode == "" {
			return errors.New("mode command requires a mode")
		}
		return nil
	}
	return fmt.Errorf("unknown command %q", c.Name)
}
