package console

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/autopeer-io/fleetconsole/pkg/options"
)

func testConfig() *Config {
	return &Config{
		MqttOptions:     options.NewMqttOptions(),
		HttpOptions:     options.NewHttpOptions(),
		APIOptions:      options.NewAPIOptions(),
		S3Options:       options.NewS3Options(),
		GeofenceOptions: options.NewGeofenceOptions(),
		MissionOptions:  options.NewMissionOptions(),
	}
}

func TestNewFleetConsole(t *testing.T) {
	cfg := testConfig()

	fc, err := cfg.NewFleetConsole()
	if err != nil {
		t.Fatalf("NewFleetConsole: %v", err)
	}
	if fc.ready.Load() {
		t.Error("console must not be ready before Run")
	}
	if fc.channel.State() != "disconnected" {
		t.Errorf("channel state = %s", fc.channel.State())
	}
}

func TestNewFleetConsoleRejectsBadBackendURL(t *testing.T) {
	cfg := testConfig()
	cfg.APIOptions.BaseURL = "localhost"

	if _, err := cfg.NewFleetConsole(); err == nil {
		t.Fatal("expected error for a base URL without scheme")
	}
}

func TestImageResolverWithoutObjectStore(t *testing.T) {
	cfg := testConfig()

	p, err := cfg.NewImageProvider()
	if err != nil || p != nil {
		t.Fatalf("NewImageProvider = %v, %v; want nil provider", p, err)
	}
	r, err := cfg.NewImageResolver(p)
	if err != nil {
		t.Fatalf("NewImageResolver: %v", err)
	}
	got, err := r.Resolve(t.Context(), "images/d1.jpg")
	if err != nil || got != "http://localhost:8080/images/d1.jpg" {
		t.Errorf("Resolve = %q, %v", got, err)
	}
}

func TestRunFailsOnBrokenZonesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zones.yaml")
	if err := os.WriteFile(path, []byte("zones: [{id: a, zoneType: INCLUSION"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := testConfig()
	cfg.GeofenceOptions.ZonesFile = path

	fc, err := cfg.NewFleetConsole()
	if err != nil {
		t.Fatalf("NewFleetConsole: %v", err)
	}
	if err := fc.Run(t.Context()); err == nil {
		t.Fatal("expected zones file error")
	}
	if fc.loader.Done() {
		t.Error("snapshot must not load when the zones file is broken")
	}
}

func TestProfile(t *testing.T) {
	o := options.NewMissionOptions()
	o.CruiseSpeed = 12

	if p := Profile(o); p.CruiseSpeed != 12 || p.Endurance != o.Endurance {
		t.Errorf("Profile = %+v", p)
	}
}
