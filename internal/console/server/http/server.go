package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/autopeer-io/fleetconsole/internal/console/geofence"
	"github.com/autopeer-io/fleetconsole/internal/console/mission"
	"github.com/autopeer-io/fleetconsole/internal/console/model"
	"github.com/autopeer-io/fleetconsole/internal/console/planner"
	"github.com/autopeer-io/fleetconsole/internal/console/store"
	mw "github.com/autopeer-io/fleetconsole/internal/pkg/middleware/http"
	"github.com/autopeer-io/fleetconsole/pkg/log"
	"github.com/autopeer-io/fleetconsole/pkg/options"
)

// Fleet is the read side of the entity store.
type Fleet interface {
	Vehicles() []model.Vehicle
	Vehicle(id string) (model.Vehicle, bool)
	Detections() []model.Detection
	Detection(id string) (model.Detection, bool)
	Mission(vehicleID string) (model.Mission, bool)
	Stats() store.Stats
}

// Geofence answers point checks and lists the active zones.
type Geofence interface {
	CheckPoint(lat, lon, alt float64) geofence.Result
	Zones() []model.Zone
}

// Planner prepares and dispatches plans.
type Planner interface {
	Prepare(plan mission.Plan) (*planner.Prepared, error)
	Dispatch(ctx context.Context, plan mission.Plan) (*planner.Prepared, error)
	Command(ctx context.Context, vehicleID string, cmd model.VehicleCommand) error
}

// Approver forwards detection approvals to the backend.
type Approver interface {
	ApproveDetection(ctx context.Context, id string) error
}

// ImageResolver turns detection image references into URLs.
type ImageResolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

// Deps are the console components served over HTTP.
type Deps struct {
	Fleet    Fleet
	Geofence Geofence
	Planner  Planner
	Approver Approver
	Images   ImageResolver

	// Ready reports whether the console finished its startup sequence.
	Ready func() bool

	// DefaultAltitude is used by plan requests that carry no altitude.
	DefaultAltitude float64
}

type Server struct {
	server  *http.Server
	options *options.HttpOptions
}

func NewServer(opts *options.HttpOptions, deps Deps) *Server {
	return &Server{
		server: &http.Server{
			Addr:              opts.Addr,
			Handler:           NewHandler(deps),
			ReadHeaderTimeout: opts.ReadHeaderTimeout,
		},
		options: opts,
	}
}

// NewHandler builds the console router.
func NewHandler(deps Deps) http.Handler {
	h := &handler{deps: deps}
	r := mux.NewRouter()
	r.Use(mw.Recover, mw.RequestID, mw.Logging, mw.Timeout(mw.DefaultRequestTimeout))

	// Basic Liveness Probe
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.HandleFunc("/readyz", h.readyz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// API routes hang off the root router so that a method mismatch is
	// answered with 405 rather than 404.
	r.HandleFunc("/api/stats", h.stats).Methods(http.MethodGet)
	r.HandleFunc("/api/vehicles", h.listVehicles).Methods(http.MethodGet)
	r.HandleFunc("/api/vehicles/{id}", h.getVehicle).Methods(http.MethodGet)
	r.HandleFunc("/api/vehicles/{id}/plan", h.dispatchPlan).Methods(http.MethodPost)
	r.HandleFunc("/api/vehicles/{id}/command/{name}", h.command).Methods(http.MethodPost)
	r.HandleFunc("/api/vehicles/{id}/mission-fetch", h.fetchMission).Methods(http.MethodPost)
	r.HandleFunc("/api/missions/{vehicleId}", h.getMission).Methods(http.MethodGet)
	r.HandleFunc("/api/detections", h.listDetections).Methods(http.MethodGet)
	r.HandleFunc("/api/detections/{id}/approve", h.approveDetection).Methods(http.MethodPost)
	r.HandleFunc("/api/detections/{id}/image", h.detectionImage).Methods(http.MethodGet)
	r.HandleFunc("/api/geofence/zones", h.listZones).Methods(http.MethodGet)
	r.HandleFunc("/api/geofence/validate", h.validatePosition).Methods(http.MethodPost)
	r.HandleFunc("/api/plans/validate", h.validatePlan).Methods(http.MethodPost)

	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)
	r.NotFoundHandler = http.HandlerFunc(notFound)

	return r
}

func (s *Server) Start(ctx context.Context) error {
	log.Info("Starting HTTP Server", "addr", s.server.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.options.ShutdownTimeout)
		defer cancel()
		log.Info("Shutting down HTTP Server")
		return s.server.Shutdown(shutdownCtx)
	}
}
