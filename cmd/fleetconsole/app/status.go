package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/autopeer-io/fleetconsole/cmd/fleetconsole/app/options"
	"github.com/autopeer-io/fleetconsole/internal/console/store"
	"github.com/autopeer-io/fleetconsole/pkg/app"
)

func newStatusCommand(opts *options.ConsoleOptions, root func() *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the fleet snapshot held by the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := root().LoadOptions(cmd); err != nil {
				return err
			}
			cfg, err := opts.Config()
			if err != nil {
				return err
			}
			client, err := cfg.NewAPIClient()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.APIOptions.Timeout)
			defer cancel()

			vehicles, err := client.Vehicles(ctx)
			if err != nil {
				return fmt.Errorf("failed to fetch vehicles: %w", err)
			}
			detections, err := client.Detections(ctx)
			if err != nil {
				return fmt.Errorf("failed to fetch detections: %w", err)
			}

			s := store.New()
			s.ReplaceVehicles(vehicles)
			s.ReplaceDetections(detections)

			table := uitable.New()
			table.MaxColWidth = 40
			table.AddRow("VEHICLE", "TYPE", "STATUS", "MODE", "BATTERY", "POSITION", "LAST HEARTBEAT")
			for _, v := range s.Vehicles() {
				table.AddRow(v.ID, v.Kind, v.Status, v.Mode,
					fmt.Sprintf("%.0f%%", v.Battery),
					fmt.Sprintf("%.6f,%.6f @%.1fm", v.Position.Lat, v.Position.Lon, v.Position.Alt),
					heartbeat(v.LastHeartbeat))
			}
			fmt.Fprintln(cmd.OutOrStdout(), table)

			stats := s.Stats()
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d vehicles, %d detections (%d approved)\n",
				stats.Vehicles, stats.Detections, stats.Approved)
			return nil
		},
	}
}

func heartbeat(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return time.Since(t).Truncate(time.Second).String() + " ago"
}
