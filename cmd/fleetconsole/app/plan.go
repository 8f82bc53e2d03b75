package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/autopeer-io/fleetconsole/cmd/fleetconsole/app/options"
	"github.com/autopeer-io/fleetconsole/internal/console"
	"github.com/autopeer-io/fleetconsole/internal/console/geofence"
	"github.com/autopeer-io/fleetconsole/internal/console/mission"
	"github.com/autopeer-io/fleetconsole/internal/console/model"
	"github.com/autopeer-io/fleetconsole/internal/console/planner"
	"github.com/autopeer-io/fleetconsole/pkg/app"
)

type planFlags struct {
	vehicle   string
	altitude  float64
	waypoints []string
	dispatch  bool
}

func newPlanCommand(opts *options.ConsoleOptions, root func() *app.App) *cobra.Command {
	f := &planFlags{}
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Encode a waypoint list, check it against the geofence and optionally upload it",
		Example: `  fleetconsole plan --vehicle scout-1 --wp 47.397,8.545 --wp 47.398,8.547 --wp 47.399,8.546
  fleetconsole plan --vehicle scout-1 --alt 40 --wp 47.397,8.545 --dispatch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := root().LoadOptions(cmd); err != nil {
				return err
			}
			return runPlan(cmd, opts, f)
		},
	}

	cmd.Flags().StringVar(&f.vehicle, "vehicle", "", "Target vehicle ID.")
	cmd.Flags().Float64Var(&f.altitude, "alt", 0, "Mission altitude in meters. Defaults to mission.default-altitude.")
	cmd.Flags().StringArrayVar(&f.waypoints, "wp", nil, "Waypoint as LAT,LON. Repeat in flight order.")
	cmd.Flags().BoolVar(&f.dispatch, "dispatch", false, "Upload the mission when it passes the geofence.")
	return cmd
}

func runPlan(cmd *cobra.Command, opts *options.ConsoleOptions, f *planFlags) error {
	cfg, err := opts.Config()
	if err != nil {
		return err
	}
	client, err := cfg.NewAPIClient()
	if err != nil {
		return err
	}

	waypoints, err := parseWaypoints(f.waypoints)
	if err != nil {
		return err
	}
	plan := mission.Plan{VehicleID: f.vehicle, DefaultAltitude: cfg.MissionOptions.DefaultAltitude, Waypoints: waypoints}
	if !finite(f.altitude) {
		return fmt.Errorf("invalid altitude %v", f.altitude)
	}
	if f.altitude > 0 {
		plan.DefaultAltitude = f.altitude
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.APIOptions.Timeout)
	defer cancel()

	validator := geofence.NewValidator()
	switch {
	case cfg.GeofenceOptions.ZonesFile != "":
		err = validator.LoadFile(cfg.GeofenceOptions.ZonesFile)
	case cfg.GeofenceOptions.FromBackend:
		var zones []model.Zone
		if zones, err = client.Zones(ctx); err == nil {
			err = validator.SetZones(zones)
		}
	}
	if errors.Is(err, geofence.ErrZoneRejected) {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
	} else if err != nil {
		return fmt.Errorf("failed to load geofence zones: %w", err)
	}

	p := planner.New(validator, client, console.Profile(cfg.MissionOptions))

	var prepared *planner.Prepared
	if f.dispatch {
		prepared, err = p.Dispatch(ctx, plan)
	} else {
		prepared, err = p.Prepare(plan)
	}
	if err != nil {
		return err
	}

	printPlan(cmd, prepared, f.dispatch)
	return nil
}

// parseWaypoints parses LAT,LON pairs.
func parseWaypoints(raw []string) ([]model.Waypoint, error) {
	out := make([]model.Waypoint, 0, len(raw))
	for _, s := range raw {
		latStr, lonStr, ok := strings.Cut(s, ",")
		if !ok {
			return nil, fmt.Errorf("invalid waypoint %q, want LAT,LON", s)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid waypoint latitude %q: %w", latStr, err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid waypoint longitude %q: %w", lonStr, err)
		}
		if !finite(lat) || !finite(lon) {
			return nil, fmt.Errorf("invalid waypoint %q, coordinates must be finite", s)
		}
		out = append(out, model.Waypoint{Lat: lat, Lon: lon})
	}
	return out, nil
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

func printPlan(cmd *cobra.Command, prepared *planner.Prepared, dispatched bool) {
	out := cmd.OutOrStdout()

	table := uitable.New()
	table.AddRow("SEQ", "COMMAND", "LAT", "LON", "ALT", "PARAM1")
	for _, it := range prepared.Items {
		table.AddRow(it.Seq, it.Command, it.Lat, it.Lon, it.Alt, it.Params[0])
	}
	fmt.Fprintln(out, table)

	a := prepared.Analysis
	summary := uitable.New()
	summary.AddRow("Distance:", fmt.Sprintf("%.0f m", a.TotalDistance))
	summary.AddRow("Flight time:", fmt.Sprintf("%.0f s", a.FlightTime))
	summary.AddRow("Battery:", fmt.Sprintf("%.0f%%", a.BatteryUsage))
	for _, w := range a.Warnings {
		summary.AddRow("Warning:", w)
	}
	for _, e := range a.Errors {
		summary.AddRow("Error:", e)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, summary)

	if dispatched {
		fmt.Fprintf(out, "\nMission uploaded to %s\n", prepared.VehicleID)
	}
}
