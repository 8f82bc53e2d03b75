// Package console runs the fleet operator console: it seeds the entity
// store from the backend, keeps it current from the push channel and serves
// it, together with mission planning and geofence checks, over HTTP.
package console

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/autopeer-io/fleetconsole/internal/console/channel"
	"github.com/autopeer-io/fleetconsole/internal/console/geofence"
	"github.com/autopeer-io/fleetconsole/internal/console/reconcile"
	"github.com/autopeer-io/fleetconsole/internal/console/server/http"
	"github.com/autopeer-io/fleetconsole/internal/console/snapshot"
	"github.com/autopeer-io/fleetconsole/internal/console/storage"
	"github.com/autopeer-io/fleetconsole/internal/console/store"
	"github.com/autopeer-io/fleetconsole/pkg/log"
)

const closeTimeout = 5 * time.Second

type FleetConsole struct {
	channel    *channel.Manager
	store      *store.Store
	validator  *geofence.Validator
	loader     *snapshot.Loader
	reconciler *reconcile.Reconciler
	server     *http.Server
	images     storage.Provider

	zonesFile  string
	watchZones bool

	ready atomic.Bool
}

// Run starts the console and blocks until ctx is done or a server fails.
// The snapshot is loaded before the push channel connects; streamed updates
// that follow are applied on top of it.
func (c *FleetConsole) Run(ctx context.Context) error {
	if c.zonesFile != "" {
		err := c.validator.LoadFile(c.zonesFile)
		if errors.Is(err, geofence.ErrZoneRejected) {
			log.Warn("Some geofence zones were rejected", "path", c.zonesFile, "error", err)
		} else if err != nil {
			return err
		}
		log.Info("Geofence zones loaded", "path", c.zonesFile, "zones", len(c.validator.Zones()))
	}

	if c.images != nil {
		if err := c.images.CheckBucket(ctx); err != nil {
			log.Warn("Detection image bucket unavailable, image links will fail", "error", err)
		}
	}

	if _, err := c.loader.Load(ctx); err != nil {
		return err
	}

	c.reconciler.Register(c.channel)
	c.channel.Connect(ctx, func(context.Context) {
		log.Info("Fleet stream live", "state", c.channel.State())
	})
	c.ready.Store(true)

	defer func() {
		c.ready.Store(false)
		c.reconciler.Unregister()

		closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		c.channel.Close(closeCtx)
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.server.Start(gctx)
	})
	if c.zonesFile != "" && c.watchZones {
		g.Go(func() error {
			return c.validator.WatchFile(gctx, c.zonesFile)
		})
	}

	log.Info("Fleet console started")
	err := g.Wait()
	log.Info("Fleet console stopped")
	return err
}

// Ready reports whether the snapshot is loaded and the push channel is connected.
func (c *FleetConsole) Ready() bool {
	return c.ready.Load() && c.channel.IsConnected()
}
