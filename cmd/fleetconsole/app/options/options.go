package options

import (
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/autopeer-io/fleetconsole/internal/console"
	"github.com/autopeer-io/fleetconsole/pkg/app"
	"github.com/autopeer-io/fleetconsole/pkg/log"
	genericoptions "github.com/autopeer-io/fleetconsole/pkg/options"
)

type ConsoleOptions struct {
	Log      *log.Options                    `json:"log" mapstructure:"log"`
	Mqtt     *genericoptions.MqttOptions     `json:"mqtt" mapstructure:"mqtt"`
	Http     *genericoptions.HttpOptions     `json:"http" mapstructure:"http"`
	API      *genericoptions.APIOptions      `json:"api" mapstructure:"api"`
	S3       *genericoptions.S3Options       `json:"s3" mapstructure:"s3"`
	Geofence *genericoptions.GeofenceOptions `json:"geofence" mapstructure:"geofence"`
	Mission  *genericoptions.MissionOptions  `json:"mission" mapstructure:"mission"`
}

var _ app.NamedFlagSetOptions = (*ConsoleOptions)(nil)

func NewConsoleOptions() *ConsoleOptions {
	return &ConsoleOptions{
		Log:      log.NewOptions(),
		Mqtt:     genericoptions.NewMqttOptions(),
		Http:     genericoptions.NewHttpOptions(),
		API:      genericoptions.NewAPIOptions(),
		S3:       genericoptions.NewS3Options(),
		Geofence: genericoptions.NewGeofenceOptions(),
		Mission:  genericoptions.NewMissionOptions(),
	}
}

func (o *ConsoleOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}

	o.Log.AddFlags(fss.FlagSet("Log"))
	o.Mqtt.AddFlags(fss.FlagSet("MQTT"))
	o.Http.AddFlags(fss.FlagSet("HTTP"))
	o.API.AddFlags(fss.FlagSet("Backend"))
	o.S3.AddFlags(fss.FlagSet("S3"))
	o.Geofence.AddFlags(fss.FlagSet("Geofence"))
	o.Mission.AddFlags(fss.FlagSet("Mission"))
	return fss
}

func (o *ConsoleOptions) Complete() error {
	log.Init(o.Log)
	return nil
}

func (o *ConsoleOptions) Validate() error {
	errs := []error{}

	errs = append(errs, o.Log.Validate()...)
	errs = append(errs, o.Mqtt.Validate()...)
	errs = append(errs, o.Http.Validate()...)
	errs = append(errs, o.API.Validate()...)
	errs = append(errs, o.S3.Validate()...)
	errs = append(errs, o.Geofence.Validate()...)
	errs = append(errs, o.Mission.Validate()...)

	return utilerrors.NewAggregate(errs)
}

func (o *ConsoleOptions) Config() (*console.Config, error) {
	return &console.Config{
		MqttOptions:     o.Mqtt,
		HttpOptions:     o.Http,
		APIOptions:      o.API,
		S3Options:       o.S3,
		GeofenceOptions: o.Geofence,
		MissionOptions:  o.Mission,
	}, nil
}
