// Package snapshot seeds the entity store with the backend's current state
// before streaming updates are relied upon.
package snapshot

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/autopeer-io/fleetconsole/internal/console/model"
	"github.com/autopeer-io/fleetconsole/internal/pkg/metrics"
	"github.com/autopeer-io/fleetconsole/pkg/log"
)

// ErrAlreadyLoaded is returned when Load runs a second time.
var ErrAlreadyLoaded = errors.New("snapshot already loaded")

// Source fetches the current collections.
type Source interface {
	Vehicles(ctx context.Context) ([]model.Vehicle, error)
	Detections(ctx context.Context) ([]model.Detection, error)
}

// ZoneSource is optionally implemented by a Source that also serves geofence zones.
type ZoneSource interface {
	Zones(ctx context.Context) ([]model.Zone, error)
}

// Seeder receives the fetched collections through the full-replace path.
type Seeder interface {
	ReplaceVehicles(vs []model.Vehicle)
	ReplaceDetections(ds []model.Detection)
}

// ZoneSink installs fetched zones. An error reports zones it left out;
// the remaining zones are installed regardless.
type ZoneSink interface {
	SetZones(zones []model.Zone) error
}

// Outcome is the result of one collection fetch.
type Outcome struct {
	Count   int
	Err     error
	Skipped bool
}

// OK reports whether the collection was fetched and seeded.
func (o Outcome) OK() bool { return !o.Skipped && o.Err == nil }

// Report summarises a snapshot pass.
type Report struct {
	Vehicles   Outcome
	Detections Outcome
	Zones      Outcome
	Duration   time.Duration
}

// Loader performs the one-time initial fetch.
type Loader struct {
	source Source
	seeder Seeder
	zones  ZoneSink

	once sync.Once
	done atomic.Bool
}

// NewLoader creates a Loader. zones may be nil.
func NewLoader(source Source, seeder Seeder, zones ZoneSink) *Loader {
	return &Loader{source: source, seeder: seeder, zones: zones}
}

// Done reports whether Load has finished.
func (l *Loader) Done() bool { return l.done.Load() }

// Load fetches vehicles and detections concurrently and seeds each one that
// succeeds. A failed fetch is logged and leaves its collection untouched.
// Nothing is retried. Only the first call does any work.
func (l *Loader) Load(ctx context.Context) (Report, error) {
	err := ErrAlreadyLoaded
	var report Report
	l.once.Do(func() {
		report = l.load(ctx)
		l.done.Store(true)
		err = nil
	})
	return report, err
}

func (l *Loader) load(ctx context.Context) Report {
	start := time.Now()
	var (
		report Report
		g      errgroup.Group
	)

	g.Go(func() error {
		vs, err := l.source.Vehicles(ctx)
		report.Vehicles = record("vehicles", len(vs), err)
		if err == nil {
			l.seeder.ReplaceVehicles(vs)
		}
		return nil
	})

	g.Go(func() error {
		ds, err := l.source.Detections(ctx)
		report.Detections = record("detections", len(ds), err)
		if err == nil {
			l.seeder.ReplaceDetections(ds)
		}
		return nil
	})

	zs, hasZones := l.source.(ZoneSource)
	if hasZones && l.zones != nil {
		g.Go(func() error {
			zones, err := zs.Zones(ctx)
			if err == nil {
				// Rejected zones are left out; the rest are installed.
				if rerr := l.zones.SetZones(zones); rerr != nil {
					log.Warn("Some geofence zones were rejected", "error", rerr)
				}
			}
			report.Zones = record("zones", len(zones), err)
			return nil
		})
	} else {
		report.Zones = Outcome{Skipped: true}
	}

	_ = g.Wait()
	report.Duration = time.Since(start)

	log.Info("Snapshot loaded",
		"vehicles", report.Vehicles.Count, "detections", report.Detections.Count,
		"zones", report.Zones.Count, "duration", report.Duration)
	return report
}

func record(collection string, n int, err error) Outcome {
	if err != nil {
		metrics.SnapshotFetches.WithLabelValues(collection, "failed").Inc()
		log.Error(err, "Snapshot fetch failed, continuing with an empty collection", "collection", collection)
		return Outcome{Err: err}
	}
	metrics.SnapshotFetches.WithLabelValues(collection, "success").Inc()
	return Outcome{Count: n}
}
