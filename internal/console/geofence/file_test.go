package geofence

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/autopeer-io/fleetconsole/internal/console/model"
)

const zonesYAML = `zones:
  - id: field
    name: Field
    zoneType: INCLUSION
    minAltitude: 0
    maxAltitude: 120
    violationAction: RTL
    points:
      - {sequence: 0, latitude: 0, longitude: 0}
      - {sequence: 1, latitude: 0, longitude: 1}
      - {sequence: 2, latitude: 1, longitude: 1}
      - {sequence: 3, latitude: 1, longitude: 0}
  - id: 7
    name: Tower
    zoneType: EXCLUSION
    enabled: false
    points:
      - {sequence: 0, latitude: 0.4, longitude: 0.4}
      - {sequence: 1, latitude: 0.4, longitude: 0.6}
      - {sequence: 2, latitude: 0.6, longitude: 0.6}
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadZonesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zones.yaml")
	writeFile(t, path, zonesYAML)

	zones, err := LoadZonesFile(path)
	if err != nil {
		t.Fatalf("LoadZonesFile: %v", err)
	}
	if len(zones) != 2 {
		t.Fatalf("got %d zones", len(zones))
	}
	if zones[0].Action != model.ActionRTL || zones[0].MaxAltitude != 120 || len(zones[0].Boundary) != 4 {
		t.Errorf("field = %+v", zones[0])
	}
	if zones[1].ID != "7" || zones[1].Active || zones[1].Action != model.ActionWarn {
		t.Errorf("tower = %+v", zones[1])
	}
}

func TestLoadZonesFileErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadZonesFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("missing file accepted")
	}

	broken := filepath.Join(dir, "broken.yaml")
	writeFile(t, broken, "zones: [")
	if _, err := LoadZonesFile(broken); err == nil {
		t.Error("broken yaml accepted")
	}

}

func TestLoadFileKeepsValidZones(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zones.yaml")
	writeFile(t, path, `zones:
  - id: tower
    zoneType: EXCLUSION
    points:
      - {sequence: 0, latitude: 0, longitude: 0}
      - {sequence: 1, latitude: 0, longitude: 1}
      - {sequence: 2, latitude: 1, longitude: 1}
      - {sequence: 3, latitude: 1, longitude: 0}
  - id: a
    zoneType: SIDEWAYS
    points: []
`)

	v := NewValidator()
	if err := v.LoadFile(path); !errors.Is(err, ErrZoneRejected) {
		t.Fatalf("LoadFile error = %v, want ErrZoneRejected", err)
	}
	if got := v.Zones(); len(got) != 1 || got[0].ID != "tower" {
		t.Fatalf("zones = %+v", got)
	}
	if v.CheckPoint(0.5, 0.5, 50).Valid() {
		t.Error("exclusion zone not enforced")
	}
}

func TestWatchFileReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zones.yaml")
	writeFile(t, path, "zones: []\n")

	v := NewValidator()
	if err := v.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- v.WatchFile(ctx, path) }()
	defer func() {
		cancel()
		<-done
	}()

	// Give the watcher time to register before changing the file.
	time.Sleep(100 * time.Millisecond)
	writeFile(t, path, zonesYAML)

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if len(v.Zones()) == 1 {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("zones not reloaded, got %v", v.Zones())
}
