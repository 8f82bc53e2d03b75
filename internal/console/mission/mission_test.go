package mission

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/autopeer-io/fleetconsole/internal/console/model"
)

func plan(alt float64, pts ...[2]float64) Plan {
	p := Plan{VehicleID: "scout", DefaultAltitude: alt}
	for _, pt := range pts {
		p.Waypoints = append(p.Waypoints, model.Waypoint{Lat: pt[0], Lon: pt[1]})
	}
	return p
}

func TestEncodeRoleInference(t *testing.T) {
	items, err := Encode(plan(30, [2]float64{1, 1}, [2]float64{2, 2}, [2]float64{3, 3}))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	want := []struct {
		seq      int
		cmd      model.Command
		lat, lon float64
	}{
		{0, model.CommandTakeoff, 1, 1},
		{1, model.CommandWaypoint, 2, 2},
		{2, model.CommandLand, 3, 3},
	}
	if len(items) != len(want) {
		t.Fatalf("got %d items, want %d", len(items), len(want))
	}
	for i, w := range want {
		it := items[i]
		if it.Seq != w.seq || it.Command != w.cmd || it.Lat != w.lat || it.Lon != w.lon || it.Alt != 30 {
			t.Errorf("item %d = %+v", i, it)
		}
		if it.Frame != model.FrameGlobalRelativeAlt || !it.AutoContinue || it.Current != (i == 0) {
			t.Errorf("item %d flags = %+v", i, it)
		}
	}

	if items[0].Params != [4]float64{TakeoffMinPitch, 0, 0, 0} {
		t.Errorf("takeoff params = %v", items[0].Params)
	}
	for _, it := range items[1:] {
		if it.Params != [4]float64{} {
			t.Errorf("item %d params = %v, want zero", it.Seq, it.Params)
		}
	}
}

func TestEncodeSingleWaypoint(t *testing.T) {
	items, err := Encode(plan(30, [2]float64{5, 6}))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(items) != 1 || items[0].Command != model.CommandWaypoint || items[0].Seq != 0 {
		t.Errorf("items = %+v", items)
	}
	if items[0].Params[0] != 0 {
		t.Errorf("bare waypoint carries takeoff pitch: %v", items[0].Params)
	}
}

func TestEncodeTwoWaypoints(t *testing.T) {
	items, _ := Encode(plan(10, [2]float64{1, 1}, [2]float64{2, 2}))
	if items[0].Command != model.CommandTakeoff || items[1].Command != model.CommandLand {
		t.Errorf("items = %+v", items)
	}
}

func TestEncodeEmptyPlan(t *testing.T) {
	items, err := Encode(plan(30))
	if !errors.Is(err, ErrEmptyPlan) {
		t.Fatalf("got %v, want ErrEmptyPlan", err)
	}
	if items != nil {
		t.Errorf("items = %v, want nil", items)
	}
}

func TestEncodeReorderChangesRoles(t *testing.T) {
	a, _ := Encode(plan(30, [2]float64{1, 1}, [2]float64{2, 2}, [2]float64{3, 3}))
	b, _ := Encode(plan(30, [2]float64{2, 2}, [2]float64{1, 1}, [2]float64{3, 3}))

	if a[0].Lat != 1 || b[0].Lat != 2 || b[0].Command != model.CommandTakeoff {
		t.Errorf("takeoff follows position: a=%+v b=%+v", a[0], b[0])
	}
}

func TestEncodedMissionSatisfiesSequenceInvariants(t *testing.T) {
	for n := 1; n <= 6; n++ {
		p := Plan{DefaultAltitude: 20}
		for i := 0; i < n; i++ {
			p.Waypoints = append(p.Waypoints, model.Waypoint{Lat: float64(i), Lon: float64(i)})
		}
		items, err := Encode(p)
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		if errs := model.ValidateSequence(items); len(errs) != 0 {
			t.Errorf("n=%d: %v", n, errs)
		}
	}
}

func TestHaversine(t *testing.T) {
	// One degree of latitude is roughly 111.2 km.
	d := HaversineMeters(0, 0, 1, 0)
	if math.Abs(d-111195) > 50 {
		t.Errorf("distance = %v", d)
	}
	if HaversineMeters(47.4, 8.5, 47.4, 8.5) != 0 {
		t.Error("distance to self is not zero")
	}
}

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name         string
		plan         Plan
		wantValid    bool
		wantWarning  string
		wantError    string
		wantDistance [2]float64
	}{
		{
			name:         "short hop",
			plan:         plan(30, [2]float64{47.3977, 8.5456}, [2]float64{47.3987, 8.5456}, [2]float64{47.3997, 8.5456}),
			wantValid:    true,
			wantDistance: [2]float64{215, 230},
		},
		{
			name:        "above safe altitude",
			plan:        plan(150, [2]float64{47.3977, 8.5456}, [2]float64{47.3987, 8.5456}),
			wantValid:   true,
			wantWarning: "exceeds safe limit",
		},
		{
			name:        "too close",
			plan:        plan(30, [2]float64{47.3977, 8.5456}, [2]float64{47.39771, 8.5456}),
			wantValid:   true,
			wantWarning: "apart",
		},
		{
			name:      "beyond endurance",
			plan:      plan(30, [2]float64{47.0, 8.5}, [2]float64{47.2, 8.5}),
			wantValid: false,
			wantError: "more than 100% battery",
		},
		{
			name:      "invalid latitude",
			plan:      plan(30, [2]float64{95, 8.5}, [2]float64{47.2, 8.5}),
			wantValid: false,
			wantError: "invalid latitude",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := Encode(tt.plan)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			a := Analyze(items, DefaultProfile())

			if a.Valid != tt.wantValid {
				t.Errorf("valid = %v, errors = %v", a.Valid, a.Errors)
			}
			if tt.wantWarning != "" && !containsSubstring(a.Warnings, tt.wantWarning) {
				t.Errorf("warnings %v lack %q", a.Warnings, tt.wantWarning)
			}
			if tt.wantError != "" && !containsSubstring(a.Errors, tt.wantError) {
				t.Errorf("errors %v lack %q", a.Errors, tt.wantError)
			}
			if tt.wantDistance != [2]float64{} && (a.TotalDistance < tt.wantDistance[0] || a.TotalDistance > tt.wantDistance[1]) {
				t.Errorf("distance = %v, want within %v", a.TotalDistance, tt.wantDistance)
			}
			if a.BatteryUsage > 100 {
				t.Errorf("battery usage not capped: %v", a.BatteryUsage)
			}
		})
	}
}

func TestAnalyzeReportsSequenceErrors(t *testing.T) {
	items := []model.MissionItem{
		{Seq: 0, Command: model.CommandWaypoint, Lat: 1, Lon: 1},
		{Seq: 5, Command: model.CommandLand, Lat: 1.001, Lon: 1},
	}
	a := Analyze(items, DefaultProfile())
	if a.Valid || len(a.Errors) != 2 {
		t.Errorf("errors = %v", a.Errors)
	}
}

func containsSubstring(list []string, sub string) bool {
	for _, s := range list {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
