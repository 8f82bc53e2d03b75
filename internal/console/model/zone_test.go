package model

import (
	"math"
	"testing"
)

func TestZoneValidate(t *testing.T) {
	square := []LatLon{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 1}, {Lat: 1, Lon: 1}, {Lat: 1, Lon: 0}}
	lo, hi := Unbounded()

	tests := []struct {
		name    string
		mutate  func(z *Zone)
		wantErr bool
	}{
		{name: "well formed", mutate: func(*Zone) {}},
		{name: "unbounded band", mutate: func(z *Zone) { z.MinAltitude, z.MaxAltitude = lo, hi }},
		{name: "unknown type", mutate: func(z *Zone) { z.Type = "SIDEWAYS" }, wantErr: true},
		{name: "two vertices", mutate: func(z *Zone) { z.Boundary = z.Boundary[:2] }, wantErr: true},
		{name: "inverted band", mutate: func(z *Zone) { z.MinAltitude, z.MaxAltitude = 50, 10 }, wantErr: true},
		{name: "NaN band", mutate: func(z *Zone) { z.MaxAltitude = math.NaN() }, wantErr: true},
		{name: "NaN vertex", mutate: func(z *Zone) { z.Boundary[1].Lat = math.NaN() }, wantErr: true},
		{name: "infinite vertex", mutate: func(z *Zone) { z.Boundary[2].Lon = math.Inf(1) }, wantErr: true},
		{name: "unknown action", mutate: func(z *Zone) { z.Action = "EXPLODE" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			z := Zone{
				ID:          "field",
				Type:        ZoneInclusion,
				MinAltitude: 0,
				MaxAltitude: 120,
				Boundary:    append([]LatLon(nil), square...),
				Action:      ActionWarn,
				Active:      true,
			}
			tt.mutate(&z)
			if err := z.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
