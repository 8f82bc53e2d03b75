package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/autopeer-io/fleetconsole/internal/console/api"
	"github.com/autopeer-io/fleetconsole/internal/console/codec"
	"github.com/autopeer-io/fleetconsole/internal/console/geofence"
	"github.com/autopeer-io/fleetconsole/internal/console/mission"
	"github.com/autopeer-io/fleetconsole/internal/console/model"
	"github.com/autopeer-io/fleetconsole/internal/console/planner"
	"github.com/autopeer-io/fleetconsole/internal/console/storage"
	"github.com/autopeer-io/fleetconsole/pkg/log"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

type handler struct {
	deps Deps
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error(err, "Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed on %s", r.Method, r.URL.Path))
}

func notFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, fmt.Errorf("no route for %s", r.URL.Path))
}

// statusFor maps console errors to HTTP status codes.
func statusFor(err error) int {
	var ve *geofence.ViolationError
	switch {
	case errors.Is(err, mission.ErrEmptyPlan):
		return http.StatusBadRequest
	case errors.As(err, &ve), errors.Is(err, planner.ErrMissionInvalid):
		return http.StatusUnprocessableEntity
	case errors.Is(err, api.ErrTransport), errors.Is(err, codec.ErrParse):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// decodeBody decodes an optional JSON body. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func (h *handler) readyz(w http.ResponseWriter, r *http.Request) {
	if h.deps.Ready != nil && !h.deps.Ready() {
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type statsResponse struct {
	Vehicles   int  `json:"vehicles"`
	Missions   int  `json:"missions"`
	Detections int  `json:"detections"`
	Approved   int  `json:"approvedDetections"`
	Zones      int  `json:"zones"`
	Ready      bool `json:"ready"`
}

func (h *handler) stats(w http.ResponseWriter, r *http.Request) {
	s := h.deps.Fleet.Stats()
	resp := statsResponse{
		Vehicles:   s.Vehicles,
		Missions:   s.Missions,
		Detections: s.Detections,
		Approved:   s.Approved,
		Ready:      h.deps.Ready == nil || h.deps.Ready(),
	}
	if h.deps.Geofence != nil {
		resp.Zones = len(h.deps.Geofence.Zones())
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) listVehicles(w http.ResponseWriter, r *http.Request) {
	vs := h.deps.Fleet.Vehicles()
	out := make([]codec.Vehicle, 0, len(vs))
	for _, v := range vs {
		out = append(out, codec.FromVehicle(v))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) getVehicle(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	v, ok := h.deps.Fleet.Vehicle(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("vehicle %q not found", id))
		return
	}
	writeJSON(w, http.StatusOK, codec.FromVehicle(v))
}

type missionResponse struct {
	VehicleID string              `json:"vehicleId"`
	Items     []codec.MissionItem `json:"items"`
}

func (h *handler) getMission(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["vehicleId"]
	m, ok := h.deps.Fleet.Mission(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("no mission for vehicle %q", id))
		return
	}
	writeJSON(w, http.StatusOK, missionResponse{VehicleID: id, Items: codec.FromMissionItems(m.Items)})
}

func (h *handler) listDetections(w http.ResponseWriter, r *http.Request) {
	ds := h.deps.Fleet.Detections()
	approvedOnly := r.URL.Query().Get("approved") == "true"

	out := make([]codec.Detection, 0, len(ds))
	for _, d := range ds {
		if approvedOnly && !d.Approved {
			continue
		}
		out = append(out, codec.FromDetection(d))
	}
	writeJSON(w, http.StatusOK, out)
}

// approveDetection only forwards the request; the store learns about the
// approval from the push channel.
func (h *handler) approveDetection(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.deps.Approver.ApproveDetection(r.Context(), id); err != nil {
		log.Error(err, "Detection approval failed", "detection", id)
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *handler) detectionImage(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	d, ok := h.deps.Fleet.Detection(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("detection %q not found", id))
		return
	}
	if h.deps.Images == nil {
		writeError(w, http.StatusNotFound, storage.ErrNoImage)
		return
	}

	target, err := h.deps.Images.Resolve(r.Context(), d.ImageRef)
	if errors.Is(err, storage.ErrNoImage) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		log.Error(err, "Failed to resolve detection image", "detection", id)
		writeError(w, http.StatusBadGateway, err)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *handler) listZones(w http.ResponseWriter, r *http.Request) {
	zones := h.deps.Geofence.Zones()
	out := make([]codec.Zone, 0, len(zones))
	for _, z := range zones {
		out = append(out, codec.FromZone(z))
	}
	writeJSON(w, http.StatusOK, out)
}

type positionRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Altitude  float64  `json:"altitude"`
}

type positionResponse struct {
	Valid      bool                 `json:"valid"`
	Message    string               `json:"message"`
	Violations []geofence.Violation `json:"violations"`
}

// validatePosition accepts lat/lon/alt query parameters or a JSON body.
func (h *handler) validatePosition(w http.ResponseWriter, r *http.Request) {
	req, err := positionFromQuery(r)
	if err == nil && req == nil {
		req = &positionRequest{}
		err = decodeBody(r, req)
	}
	if err == nil && (req.Latitude == nil || req.Longitude == nil) {
		err = errors.New("latitude and longitude are required")
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	res := h.deps.Geofence.CheckPoint(*req.Latitude, *req.Longitude, req.Altitude)
	violations := res.Violations
	if violations == nil {
		violations = []geofence.Violation{}
	}
	writeJSON(w, http.StatusOK, positionResponse{Valid: res.Valid(), Message: res.Message(), Violations: violations})
}

// positionFromQuery returns nil when the request carries no lat query parameter.
func positionFromQuery(r *http.Request) (*positionRequest, error) {
	q := r.URL.Query()
	if !q.Has("lat") {
		return nil, nil
	}

	parse := func(key string) (float64, error) {
		f, err := strconv.ParseFloat(q.Get(key), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("invalid %s: %q is not a finite number", key, q.Get(key))
		}
		return f, nil
	}

	lat, err := parse("lat")
	if err != nil {
		return nil, err
	}
	lon, err := parse("lon")
	if err != nil {
		return nil, err
	}
	req := &positionRequest{Latitude: &lat, Longitude: &lon}
	if q.Has("alt") {
		if req.Altitude, err = parse("alt"); err != nil {
			return nil, err
		}
	}
	return req, nil
}

type waypoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type planRequest struct {
	VehicleID string     `json:"vehicleId"`
	Altitude  *float64   `json:"altitude"`
	Waypoints []waypoint `json:"waypoints"`
}

type planResponse struct {
	VehicleID string              `json:"vehicleId"`
	Items     []codec.MissionItem `json:"items"`
	Analysis  mission.Analysis    `json:"analysis"`
}

func (h *handler) plan(r *http.Request, vehicleID string) (mission.Plan, error) {
	var req planRequest
	if err := decodeBody(r, &req); err != nil {
		return mission.Plan{}, err
	}
	if vehicleID == "" {
		vehicleID = req.VehicleID
	}

	p := mission.Plan{VehicleID: vehicleID, DefaultAltitude: h.deps.DefaultAltitude}
	if req.Altitude != nil {
		p.DefaultAltitude = *req.Altitude
	}
	for _, wp := range req.Waypoints {
		p.Waypoints = append(p.Waypoints, model.Waypoint{Lat: wp.Lat, Lon: wp.Lon})
	}
	return p, nil
}

// validatePlan encodes and checks a plan without dispatching it.
func (h *handler) validatePlan(w http.ResponseWriter, r *http.Request) {
	p, err := h.plan(r, "")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	prepared, err := h.deps.Planner.Prepare(p)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, planResponse{
		VehicleID: prepared.VehicleID,
		Items:     codec.FromMissionItems(prepared.Items),
		Analysis:  prepared.Analysis,
	})
}

func (h *handler) dispatchPlan(w http.ResponseWriter, r *http.Request) {
	p, err := h.plan(r, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	prepared, err := h.deps.Planner.Dispatch(r.Context(), p)
	if err != nil {
		log.Warn("Plan rejected", "vehicle", p.VehicleID, "error", err)
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusAccepted, planResponse{
		VehicleID: prepared.VehicleID,
		Items:     codec.FromMissionItems(prepared.Items),
		Analysis:  prepared.Analysis,
	})
}

type commandRequest struct {
	Altitude float64 `json:"altitude"`
	Mode     string  `json:"mode"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Alt      float64 `json:"alt"`
}

func (h *handler) command(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req commandRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	cmd := model.VehicleCommand{
		Name:     model.CommandName(vars["name"]),
		Altitude: req.Altitude,
		Mode:     req.Mode,
		Target:   model.Position{Lat: req.Lat, Lon: req.Lon, Alt: req.Alt},
	}
	if err := cmd.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := h.deps.Planner.Command(r.Context(), vars["id"], cmd); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// fetchMission asks the vehicle for its onboard mission. The mission itself
// reaches the store through the push channel.
func (h *handler) fetchMission(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.deps.Planner.Command(r.Context(), id, model.VehicleCommand{Name: model.CmdMissionFetch}); err != nil {
		log.Error(err, "Mission fetch failed", "vehicle", id)
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
