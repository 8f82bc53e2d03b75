package topic

import "testing"

func TestBuilder(t *testing.T) {
	b := NewBuilder("gcs/v1/")

	tests := []struct {
		got, want string
	}{
		{b.Telemetry("scout"), "gcs/v1/telemetry/scout"},
		{b.TelemetryWildcard(), "gcs/v1/telemetry/+"},
		{b.Missions("delivery"), "gcs/v1/missions/delivery"},
		{b.MissionsWildcard(), "gcs/v1/missions/+"},
		{b.Detections(), "gcs/v1/detections"},
		{NewBuilder("").Telemetry("scout"), "telemetry/scout"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}

func TestBuilderVehicleID(t *testing.T) {
	b := NewBuilder("gcs")

	tests := []struct {
		suffix, topic string
		want          string
		ok            bool
	}{
		{SuffixMissions, "gcs/missions/scout", "scout", true},
		{SuffixTelemetry, "gcs/telemetry/delivery", "delivery", true},
		{SuffixMissions, "gcs/telemetry/scout", "", false},
		{SuffixMissions, "gcs/missions/", "", false},
		{SuffixMissions, "gcs/missions/a/b", "", false},
		{SuffixMissions, "other/missions/scout", "", false},
	}
	for _, tt := range tests {
		got, ok := b.VehicleID(tt.suffix, tt.topic)
		if got != tt.want || ok != tt.ok {
			t.Errorf("VehicleID(%q, %q) = %q, %v; want %q, %v", tt.suffix, tt.topic, got, ok, tt.want, tt.ok)
		}
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		filter, topic string
		want          bool
	}{
		{"detections", "detections", true},
		{"detections", "detections/x", false},
		{"telemetry/+", "telemetry/scout", true},
		{"telemetry/+", "telemetry/scout/extra", false},
		{"telemetry/+", "missions/scout", false},
		{"gcs/#", "gcs/telemetry/scout", true},
		{"gcs/+/scout", "gcs/missions/scout", true},
		{"$share/console/telemetry/+", "telemetry/scout", true},
		{"a/b/c", "a/b", false},
	}
	for _, tt := range tests {
		if got := Match(tt.filter, tt.topic); got != tt.want {
			t.Errorf("Match(%q, %q) = %v, want %v", tt.filter, tt.topic, got, tt.want)
		}
	}
}
