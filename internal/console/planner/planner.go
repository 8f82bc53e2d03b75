// Package planner gates dispatch: only plans that encode and pass the
// geofence reach the vehicle.
package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/autopeer-io/fleetconsole/internal/console/geofence"
	"github.com/autopeer-io/fleetconsole/internal/console/mission"
	"github.com/autopeer-io/fleetconsole/internal/console/model"
	"github.com/autopeer-io/fleetconsole/pkg/log"
)

// ErrMissionInvalid is returned by Dispatch when the mission analysis
// reports errors. Prepare still returns such missions for inspection.
var ErrMissionInvalid = errors.New("mission analysis reported errors")

// Dispatcher is the backend dispatch interface.
type Dispatcher interface {
	UploadMission(ctx context.Context, vehicleID string, items []model.MissionItem) error
	SendCommand(ctx context.Context, vehicleID string, cmd model.VehicleCommand) error
}

// Checker validates encoded missions. *geofence.Validator satisfies it.
type Checker interface {
	CheckMission(items []model.MissionItem) geofence.MissionResult
}

// Prepared is an encoded mission that passed the geofence.
type Prepared struct {
	VehicleID string              `json:"vehicleId"`
	Items     []model.MissionItem `json:"-"`
	Analysis  mission.Analysis    `json:"analysis"`
}

// Planner encodes, validates and dispatches plans.
type Planner struct {
	checker    Checker
	dispatcher Dispatcher
	profile    mission.Profile
}

// New creates a Planner.
func New(checker Checker, dispatcher Dispatcher, profile mission.Profile) *Planner {
	return &Planner{checker: checker, dispatcher: dispatcher, profile: profile}
}

// Prepare encodes p and checks it against the geofence. It fails with
// mission.ErrEmptyPlan or an error wrapping geofence.ErrGeofenceViolation
// that lists every failing item.
func (p *Planner) Prepare(plan mission.Plan) (*Prepared, error) {
	items, err := mission.Encode(plan)
	if err != nil {
		return nil, err
	}

	if err := p.checker.CheckMission(items).Err(); err != nil {
		return nil, err
	}

	return &Prepared{
		VehicleID: plan.VehicleID,
		Items:     items,
		Analysis:  mission.Analyze(items, p.profile),
	}, nil
}

// Dispatch prepares plan and uploads it to the vehicle. A mission whose
// analysis has errors is not uploaded; the error wraps ErrMissionInvalid.
// Analysis warnings do not block.
func (p *Planner) Dispatch(ctx context.Context, plan mission.Plan) (*Prepared, error) {
	if plan.VehicleID == "" {
		return nil, fmt.Errorf("plan has no target vehicle")
	}

	prepared, err := p.Prepare(plan)
	if err != nil {
		return nil, err
	}
	if !prepared.Analysis.Valid {
		return nil, fmt.Errorf("%w: %s", ErrMissionInvalid, strings.Join(prepared.Analysis.Errors, "; "))
	}

	if err := p.dispatcher.UploadMission(ctx, plan.VehicleID, prepared.Items); err != nil {
		return nil, fmt.Errorf("failed to upload mission to %s: %w", plan.VehicleID, err)
	}

	log.Info("Mission dispatched", "vehicle", plan.VehicleID, "items", len(prepared.Items),
		"distance", prepared.Analysis.TotalDistance)
	return prepared, nil
}

// Command forwards a vehicle command. Its outcome is reported, not re-validated.
func (p *Planner) Command(ctx context.Context, vehicleID string, cmd model.VehicleCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	if err := p.dispatcher.SendCommand(ctx, vehicleID, cmd); err != nil {
		return fmt.Errorf("command %s to %s failed: %w", cmd.Name, vehicleID, err)
	}
	log.Info("Vehicle command sent", "vehicle", vehicleID, "command", string(cmd.Name))
	return nil
}
