package geofence

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/autopeer-io/fleetconsole/internal/console/codec"
	"github.com/autopeer-io/fleetconsole/internal/console/model"
	"github.com/autopeer-io/fleetconsole/pkg/log"
)

// reloadDelay coalesces the burst of events editors produce on save.
const reloadDelay = 200 * time.Millisecond

// zonesFile is the on-disk layout of a zones file.
type zonesFile struct {
	Zones []codec.Zone `yaml:"zones"`
}

// LoadZonesFile reads zones from a YAML file.
//
//	zones:
//	  - id: airfield
//	    name: Airfield
//	    zoneType: INCLUSION
//	    maxAltitude: 120
//	    points:
//	      - {sequence: 0, latitude: 47.39, longitude: 8.54}
//	      ...
func LoadZonesFile(path string) ([]model.Zone, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read zones file: %w", err)
	}

	var f zonesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse zones file %s: %w", path, err)
	}

	return codec.ConvertZones(f.Zones), nil
}

// LoadFile installs the zones of a YAML file. An unreadable or unparsable
// file leaves the previous zones in place. Zones that fail validation are
// left out as in SetZones and reported with ErrZoneRejected.
func (v *Validator) LoadFile(path string) error {
	zones, err := LoadZonesFile(path)
	if err != nil {
		return err
	}
	return v.SetZones(zones)
}

// WatchFile reloads the zones file whenever it changes, until ctx is done.
// An unparsable file is logged and the previous zones stay installed.
func (v *Validator) WatchFile(ctx context.Context, path string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer w.Close()

	// Watch the directory so that atomic rename-on-save is seen.
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	log.Info("Watching geofence zones file", "path", abs)

	var (
		timer  *time.Timer
		reload <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDelay)
			} else {
				timer.Reset(reloadDelay)
			}
			reload = timer.C
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Error(err, "Zones file watcher error")
		case <-reload:
			reload = nil
			err := v.LoadFile(abs)
			if errors.Is(err, ErrZoneRejected) {
				log.Warn("Zones file reloaded with rejected zones", "path", abs, "error", err)
				continue
			}
			if err != nil {
				log.Error(err, "Failed to reload zones file, keeping previous zones", "path", abs)
				continue
			}
			log.Info("Geofence zones reloaded", "path", abs)
		}
	}
}
