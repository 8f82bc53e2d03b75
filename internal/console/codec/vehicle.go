package codec

import (
	"encoding/json"

	"github.com/autopeer-io/fleetconsole/internal/console/model"
)

// Vehicle is the wire representation of a vehicle.
type Vehicle struct {
	ID            string      `json:"id"`
	Type          string      `json:"type"`
	Lat           float64     `json:"lat"`
	Lon           float64     `json:"lon"`
	Alt           float64     `json:"alt"`
	Heading       float64     `json:"heading"`
	Battery       float64     `json:"battery"`
	Status        string      `json:"status"`
	Mode          string      `json:"mode,omitempty"`
	LastHeartbeat epochMillis `json:"lastHeartbeat"`
}

func (v *Vehicle) toModel() (model.Vehicle, error) {
	if v.ID == "" {
		return model.Vehicle{}, parseErr("vehicle", errMissingID)
	}
	return model.Vehicle{
		ID:            v.ID,
		Kind:          model.VehicleKind(v.Type),
		Position:      model.Position{Lat: v.Lat, Lon: v.Lon, Alt: v.Alt},
		Heading:       v.Heading,
		Battery:       v.Battery,
		Status:        v.Status,
		Mode:          v.Mode,
		LastHeartbeat: v.LastHeartbeat.Time(),
	}, nil
}

// FromVehicle converts a model vehicle to its wire form.
func FromVehicle(v model.Vehicle) Vehicle {
	return Vehicle{
		ID:            v.ID,
		Type:          string(v.Kind),
		Lat:           v.Position.Lat,
		Lon:           v.Position.Lon,
		Alt:           v.Position.Alt,
		Heading:       v.Heading,
		Battery:       v.Battery,
		Status:        v.Status,
		Mode:          v.Mode,
		LastHeartbeat: toEpochMillis(v.LastHeartbeat),
	}
}

// DecodeVehicle decodes a single vehicle record.
func DecodeVehicle(payload []byte) (model.Vehicle, error) {
	var w Vehicle
	if err := json.Unmarshal(payload, &w); err != nil {
		return model.Vehicle{}, parseErr("vehicle", err)
	}
	return w.toModel()
}

// DecodeVehicles decodes a list of vehicle records.
func DecodeVehicles(payload []byte) ([]model.Vehicle, error) {
	var ws []Vehicle
	if err := json.Unmarshal(payload, &ws); err != nil {
		return nil, parseErr("vehicles", err)
	}
	out := make([]model.Vehicle, 0, len(ws))
	for i := range ws {
		v, err := ws[i].toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
