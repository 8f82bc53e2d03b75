package app

import (
	"fmt"

	genericapiserver "k8s.io/apiserver/pkg/server"

	"github.com/autopeer-io/fleetconsole/cmd/fleetconsole/app/options"
	"github.com/autopeer-io/fleetconsole/pkg/app"
)

const (
	commandName = "fleetconsole"
	commandDesc = `The fleet console keeps a live view of a drone fleet: it loads the current
vehicles and detections from the ground-control backend, follows telemetry,
mission and detection updates over MQTT and serves the reconciled state,
mission planning and geofence checks over HTTP.`
)

func NewApp() *app.App {
	opts := options.NewConsoleOptions()

	var application *app.App
	load := func() *app.App { return application }

	application = app.NewApp(
		commandName,
		"Launch the fleet operator console",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithDefaultValidArgs(),
		app.WithRunFunc(run(opts)),
		app.WithCommands(
			newStatusCommand(opts, load),
			newPlanCommand(opts, load),
		),
	)
	return application
}

func run(opts *options.ConsoleOptions) app.RunFunc {
	return func() error {
		ctx := genericapiserver.SetupSignalContext()

		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		fc, err := cfg.NewFleetConsole()
		if err != nil {
			return fmt.Errorf("failed to create fleet console: %w", err)
		}

		return fc.Run(ctx)
	}
}
