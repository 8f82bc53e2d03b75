package options

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
)

var _ IOptions = (*GeofenceOptions)(nil)

// GeofenceOptions selects where geofence zones come from.
type GeofenceOptions struct {
	// ZonesFile is a YAML zones file. When set it takes precedence over
	// the zones served by the backend.
	ZonesFile string `json:"zones-file" mapstructure:"zones-file"`

	// Watch reloads ZonesFile on change. Ignored without a file.
	Watch bool `json:"watch" mapstructure:"watch"`

	// FromBackend fetches zones with the snapshot when no file is given.
	FromBackend bool `json:"from-backend" mapstructure:"from-backend"`
}

// NewGeofenceOptions creates a GeofenceOptions object with default parameters.
func NewGeofenceOptions() *GeofenceOptions {
	return &GeofenceOptions{
		Watch:       true,
		FromBackend: true,
	}
}

// Validate checks the geofence options.
func (o *GeofenceOptions) Validate() []error {
	if o == nil {
		return nil
	}
	errs := []error{}
	if o.ZonesFile != "" {
		if _, err := os.Stat(o.ZonesFile); err != nil {
			errs = append(errs, fmt.Errorf("geofence.zones-file: %w", err))
		}
	}
	return errs
}

// AddFlags adds the geofence flags to the specified FlagSet.
func (o *GeofenceOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.ZonesFile, "geofence.zones-file", o.ZonesFile, "YAML file with geofence zones. Overrides the backend zones.")
	fs.BoolVar(&o.Watch, "geofence.watch", o.Watch, "Reload the zones file when it changes.")
	fs.BoolVar(&o.FromBackend, "geofence.from-backend", o.FromBackend, "Fetch geofence zones from the backend with the snapshot.")
}
