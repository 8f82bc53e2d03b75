package codec

import (
	"encoding/json"
	"math"
	"sort"

	"github.com/autopeer-io/fleetconsole/internal/console/model"
)

// ZonePoint is one vertex of a zone boundary.
type ZonePoint struct {
	Sequence  int     `json:"sequence" yaml:"sequence"`
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

// Zone is the wire representation of a geofence zone. Missing altitude
// bounds are unbounded, a missing action means WARN and a missing enabled
// flag means active.
type Zone struct {
	ID              flexID      `json:"id" yaml:"id"`
	Name            string      `json:"name" yaml:"name"`
	ZoneType        string      `json:"zoneType" yaml:"zoneType"`
	Enabled         *bool       `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	MinAltitude     *float64    `json:"minAltitude,omitempty" yaml:"minAltitude,omitempty"`
	MaxAltitude     *float64    `json:"maxAltitude,omitempty" yaml:"maxAltitude,omitempty"`
	ViolationAction string      `json:"violationAction,omitempty" yaml:"violationAction,omitempty"`
	Points          []ZonePoint `json:"points" yaml:"points"`
}

// ToModel converts a wire zone. Validation happens when the zone is
// installed, so that one bad zone does not discard its siblings.
func (z *Zone) ToModel() model.Zone {
	out := model.Zone{
		ID:          string(z.ID),
		Name:        z.Name,
		Type:        model.ZoneType(z.ZoneType),
		MinAltitude: math.Inf(-1),
		MaxAltitude: math.Inf(1),
		Action:      model.ActionWarn,
		Active:      true,
	}
	if z.Enabled != nil {
		out.Active = *z.Enabled
	}
	if z.MinAltitude != nil {
		out.MinAltitude = *z.MinAltitude
	}
	if z.MaxAltitude != nil {
		out.MaxAltitude = *z.MaxAltitude
	}
	if z.ViolationAction != "" {
		out.Action = model.ViolationAction(z.ViolationAction)
	}

	pts := append([]ZonePoint(nil), z.Points...)
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].Sequence < pts[j].Sequence })
	out.Boundary = make([]model.LatLon, 0, len(pts))
	for _, p := range pts {
		out.Boundary = append(out.Boundary, model.LatLon{Lat: p.Latitude, Lon: p.Longitude})
	}
	return out
}

// FromZone converts a model zone to its wire form. Unbounded altitudes are omitted.
func FromZone(z model.Zone) Zone {
	enabled := z.Active
	out := Zone{
		ID:              flexID(z.ID),
		Name:            z.Name,
		ZoneType:        string(z.Type),
		Enabled:         &enabled,
		ViolationAction: string(z.Action),
		Points:          make([]ZonePoint, 0, len(z.Boundary)),
	}
	if !math.IsInf(z.MinAltitude, 0) {
		lo := z.MinAltitude
		out.MinAltitude = &lo
	}
	if !math.IsInf(z.MaxAltitude, 0) {
		hi := z.MaxAltitude
		out.MaxAltitude = &hi
	}
	for i, p := range z.Boundary {
		out.Points = append(out.Points, ZonePoint{Sequence: i, Latitude: p.Lat, Longitude: p.Lon})
	}
	return out
}

// ConvertZones converts a list of wire zones.
func ConvertZones(ws []Zone) []model.Zone {
	out := make([]model.Zone, 0, len(ws))
	for i := range ws {
		out = append(out, ws[i].ToModel())
	}
	return out
}

// DecodeZones decodes a JSON list of zones. Only malformed JSON is an error;
// zone contents are validated on install.
func DecodeZones(payload []byte) ([]model.Zone, error) {
	var ws []Zone
	if err := json.Unmarshal(payload, &ws); err != nil {
		return nil, parseErr("zones", err)
	}
	return ConvertZones(ws), nil
}
