package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*MissionOptions)(nil)

// MissionOptions holds mission encoding defaults and the estimate profile.
type MissionOptions struct {
	DefaultAltitude float64       `json:"default-altitude" mapstructure:"default-altitude"`
	CruiseSpeed     float64       `json:"cruise-speed" mapstructure:"cruise-speed"`
	Endurance       time.Duration `json:"endurance" mapstructure:"endurance"`
	BatteryOverhead float64       `json:"battery-overhead" mapstructure:"battery-overhead"`
	MaxSafeAltitude float64       `json:"max-safe-altitude" mapstructure:"max-safe-altitude"`
	MinSpacing      float64       `json:"min-spacing" mapstructure:"min-spacing"`
	MaxClimbAngle   float64       `json:"max-climb-angle" mapstructure:"max-climb-angle"`
}

// NewMissionOptions creates a MissionOptions object with default parameters.
func NewMissionOptions() *MissionOptions {
	return &MissionOptions{
		DefaultAltitude: 30,
		CruiseSpeed:     10,
		Endurance:       20 * time.Minute,
		BatteryOverhead: 1.2,
		MaxSafeAltitude: 120,
		MinSpacing:      5,
		MaxClimbAngle:   45,
	}
}

// Validate checks the mission options.
func (o *MissionOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errs := []error{}
	if o.DefaultAltitude <= 0 {
		errs = append(errs, fmt.Errorf("mission.default-altitude must be positive, got %v", o.DefaultAltitude))
	}
	if o.CruiseSpeed <= 0 {
		errs = append(errs, fmt.Errorf("mission.cruise-speed must be positive, got %v", o.CruiseSpeed))
	}
	if o.Endurance <= 0 {
		errs = append(errs, fmt.Errorf("mission.endurance must be positive, got %s", o.Endurance))
	}
	if o.BatteryOverhead < 1 {
		errs = append(errs, fmt.Errorf("mission.battery-overhead must be at least 1, got %v", o.BatteryOverhead))
	}
	return errs
}

// AddFlags adds the mission flags to the specified FlagSet.
func (o *MissionOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.Float64Var(&o.DefaultAltitude, "mission.default-altitude", o.DefaultAltitude, "Altitude in meters applied to every encoded mission item.")
	fs.Float64Var(&o.CruiseSpeed, "mission.cruise-speed", o.CruiseSpeed, "Cruise speed in m/s used for flight time estimates.")
	fs.DurationVar(&o.Endurance, "mission.endurance", o.Endurance, "Flight time of a full battery.")
	fs.Float64Var(&o.BatteryOverhead, "mission.battery-overhead", o.BatteryOverhead, "Safety factor applied to the battery estimate.")
	fs.Float64Var(&o.MaxSafeAltitude, "mission.max-safe-altitude", o.MaxSafeAltitude, "Altitude in meters above which a warning is raised.")
	fs.Float64Var(&o.MinSpacing, "mission.min-spacing", o.MinSpacing, "Minimum distance in meters between consecutive waypoints.")
	fs.Float64Var(&o.MaxClimbAngle, "mission.max-climb-angle", o.MaxClimbAngle, "Steepest leg in degrees before a warning is raised.")
}
