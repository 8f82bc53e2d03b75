package console

import (
	"fmt"

	"github.com/autopeer-io/fleetconsole/internal/console/api"
	"github.com/autopeer-io/fleetconsole/internal/console/channel"
	"github.com/autopeer-io/fleetconsole/internal/console/geofence"
	"github.com/autopeer-io/fleetconsole/internal/console/mission"
	"github.com/autopeer-io/fleetconsole/internal/console/planner"
	"github.com/autopeer-io/fleetconsole/internal/console/reconcile"
	"github.com/autopeer-io/fleetconsole/internal/console/server/http"
	"github.com/autopeer-io/fleetconsole/internal/console/snapshot"
	"github.com/autopeer-io/fleetconsole/internal/console/storage"
	"github.com/autopeer-io/fleetconsole/internal/console/store"
	"github.com/autopeer-io/fleetconsole/pkg/log"
	"github.com/autopeer-io/fleetconsole/pkg/mqtt"
	"github.com/autopeer-io/fleetconsole/pkg/mqtt/topic"
	"github.com/autopeer-io/fleetconsole/pkg/options"
)

type Config struct {
	MqttOptions     *options.MqttOptions
	HttpOptions     *options.HttpOptions
	APIOptions      *options.APIOptions
	S3Options       *options.S3Options
	GeofenceOptions *options.GeofenceOptions
	MissionOptions  *options.MissionOptions
}

// Profile converts the mission options into an estimation profile.
func Profile(o *options.MissionOptions) mission.Profile {
	return mission.Profile{
		CruiseSpeed:     o.CruiseSpeed,
		Endurance:       o.Endurance,
		BatteryOverhead: o.BatteryOverhead,
		MaxSafeAltitude: o.MaxSafeAltitude,
		MinSpacing:      o.MinSpacing,
		MaxClimbAngle:   o.MaxClimbAngle,
	}
}

// NewAPIClient creates the backend client described by cfg.
func (cfg *Config) NewAPIClient() (*api.Client, error) {
	return api.NewClient(cfg.APIOptions.BaseURL, cfg.APIOptions.Timeout)
}

// NewImageProvider creates the object store provider for detection images.
// It returns nil when no endpoint is configured.
func (cfg *Config) NewImageProvider() (storage.Provider, error) {
	if !cfg.S3Options.Enabled() {
		return nil, nil
	}
	return storage.NewMinIOProvider(cfg.S3Options, cfg.MqttOptions.InsecureSkipVerify)
}

// NewImageResolver creates the detection image resolver on top of provider, which may be nil.
func (cfg *Config) NewImageResolver(provider storage.Provider) (*storage.ImageResolver, error) {
	return storage.NewImageResolver(provider, cfg.S3Options.PresignExpiry, cfg.APIOptions.BaseURL)
}

// NewFleetConsole wires the console components.
func (cfg *Config) NewFleetConsole() (*FleetConsole, error) {
	client, err := cfg.NewAPIClient()
	if err != nil {
		return nil, fmt.Errorf("failed to init backend client: %w", err)
	}

	transport, err := mqtt.NewClient(cfg.MqttOptions.ToClientConfig())
	if err != nil {
		log.Error(err, "failed to new mqtt client")
		return nil, err
	}

	provider, err := cfg.NewImageProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to init image storage: %w", err)
	}
	images, err := cfg.NewImageResolver(provider)
	if err != nil {
		return nil, fmt.Errorf("failed to init image storage: %w", err)
	}

	fleet := store.New()
	validator := geofence.NewValidator()

	// A zones file overrides the backend zones.
	var zoneSink snapshot.ZoneSink
	if cfg.GeofenceOptions.ZonesFile == "" && cfg.GeofenceOptions.FromBackend {
		zoneSink = validator
	}

	fc := &FleetConsole{
		channel:    channel.New(transport, channel.WithQoS(cfg.MqttOptions.QoS)),
		store:      fleet,
		validator:  validator,
		loader:     snapshot.NewLoader(client, fleet, zoneSink),
		reconciler: reconcile.New(topic.NewBuilder(cfg.MqttOptions.TopicRoot), fleet),
		images:     provider,
		zonesFile:  cfg.GeofenceOptions.ZonesFile,
		watchZones: cfg.GeofenceOptions.Watch,
	}

	fc.server = http.NewServer(cfg.HttpOptions, http.Deps{
		Fleet:           fleet,
		Geofence:        validator,
		Planner:         planner.New(validator, client, Profile(cfg.MissionOptions)),
		Approver:        client,
		Images:          images,
		Ready:           fc.Ready,
		DefaultAltitude: cfg.MissionOptions.DefaultAltitude,
	})

	return fc, nil
}
