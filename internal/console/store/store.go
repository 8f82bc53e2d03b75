// Package store holds the reconciled fleet state: vehicles, per-vehicle
// missions and detections, each keyed by identity.
package store

import (
	"sync"

	"github.com/autopeer-io/fleetconsole/internal/console/model"
	"github.com/autopeer-io/fleetconsole/internal/pkg/metrics"
)

// Collection names a store collection.
type Collection string

const (
	CollectionVehicles   Collection = "vehicles"
	CollectionMissions   Collection = "missions"
	CollectionDetections Collection = "detections"
)

// Op is the kind of mutation that produced a Change.
type Op string

const (
	OpUpsert  Op = "upsert"
	OpReplace Op = "replace"
)

// Change describes one committed mutation. ID is empty for collection replaces.
type Change struct {
	Collection Collection
	Op         Op
	ID         string
}

// Stats summarises the store contents.
type Stats struct {
	Vehicles   int
	Missions   int
	Detections int
	Approved   int
}

// Store is safe for concurrent use. Mutations are serialised and watchers
// are notified synchronously, in mutation order, after each commit.
type Store struct {
	// mu serialises mutations and the watcher notifications that follow them.
	mu sync.Mutex
	// rw guards the collections for readers.
	rw sync.RWMutex

	vehicles     map[string]model.Vehicle
	vehicleOrder []string

	detections     map[string]model.Detection
	detectionOrder []string

	missions map[string][]model.MissionItem

	watchers []watcher // registration order
	nextID   uint64
}

type watcher struct {
	id uint64
	fn func(Change)
}

// New returns an empty store.
func New() *Store {
	return &Store{
		vehicles:   make(map[string]model.Vehicle),
		detections: make(map[string]model.Detection),
		missions:   make(map[string][]model.MissionItem),
	}
}

// Watch registers fn for change notifications. fn runs on the mutating
// goroutine and must not mutate the store. Watchers run in registration
// order.
func (s *Store) Watch(fn func(Change)) (cancel func()) {
	s.rw.Lock()
	s.nextID++
	id := s.nextID
	s.watchers = append(s.watchers, watcher{id: id, fn: fn})
	s.rw.Unlock()

	return func() {
		s.rw.Lock()
		defer s.rw.Unlock()
		for i, w := range s.watchers {
			if w.id == id {
				s.watchers = append(s.watchers[:i:i], s.watchers[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) notify(c Change) {
	metrics.StoreMutations.WithLabelValues(string(c.Collection), string(c.Op)).Inc()

	s.rw.RLock()
	fns := make([]func(Change), 0, len(s.watchers))
	for _, w := range s.watchers {
		fns = append(fns, w.fn)
	}
	s.rw.RUnlock()

	for _, fn := range fns {
		fn(c)
	}
}

// UpsertVehicle inserts v or replaces the stored record with the same id.
func (s *Store) UpsertVehicle(v model.Vehicle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rw.Lock()
	if _, ok := s.vehicles[v.ID]; !ok {
		s.vehicleOrder = append(s.vehicleOrder, v.ID)
	}
	s.vehicles[v.ID] = v
	s.rw.Unlock()

	s.notify(Change{Collection: CollectionVehicles, Op: OpUpsert, ID: v.ID})
}

// ReplaceVehicles replaces the whole vehicle collection. Later duplicates
// of an id win.
func (s *Store) ReplaceVehicles(vs []model.Vehicle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID := make(map[string]model.Vehicle, len(vs))
	order := make([]string, 0, len(vs))
	for _, v := range vs {
		if _, ok := byID[v.ID]; !ok {
			order = append(order, v.ID)
		}
		byID[v.ID] = v
	}

	s.rw.Lock()
	s.vehicles, s.vehicleOrder = byID, order
	s.rw.Unlock()

	s.notify(Change{Collection: CollectionVehicles, Op: OpReplace})
}

// UpsertDetection inserts d or replaces the stored record field for field,
// except that an approved detection stays approved.
func (s *Store) UpsertDetection(d model.Detection) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rw.Lock()
	old, ok := s.detections[d.ID]
	if !ok {
		s.detectionOrder = append(s.detectionOrder, d.ID)
	} else if old.Approved {
		d.Approved = true
	}
	s.detections[d.ID] = d
	s.rw.Unlock()

	s.notify(Change{Collection: CollectionDetections, Op: OpUpsert, ID: d.ID})
}

// ReplaceDetections atomically replaces the whole detection collection.
// It represents ground truth and bypasses the approval merge rule.
func (s *Store) ReplaceDetections(ds []model.Detection) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID := make(map[string]model.Detection, len(ds))
	order := make([]string, 0, len(ds))
	for _, d := range ds {
		if _, ok := byID[d.ID]; !ok {
			order = append(order, d.ID)
		}
		byID[d.ID] = d
	}

	s.rw.Lock()
	s.detections, s.detectionOrder = byID, order
	s.rw.Unlock()

	s.notify(Change{Collection: CollectionDetections, Op: OpReplace})
}

// SetMission replaces the mission of vehicleID wholesale. The vehicle need
// not be known. An empty item list clears the mission but keeps the entry.
func (s *Store) SetMission(vehicleID string, items []model.MissionItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := make([]model.MissionItem, len(items))
	copy(cp, items)

	s.rw.Lock()
	s.missions[vehicleID] = cp
	s.rw.Unlock()

	s.notify(Change{Collection: CollectionMissions, Op: OpReplace, ID: vehicleID})
}

// Vehicles returns all vehicles in order of first appearance.
func (s *Store) Vehicles() []model.Vehicle {
	s.rw.RLock()
	defer s.rw.RUnlock()

	out := make([]model.Vehicle, 0, len(s.vehicleOrder))
	for _, id := range s.vehicleOrder {
		out = append(out, s.vehicles[id])
	}
	return out
}

// Vehicle returns the vehicle with the given id.
func (s *Store) Vehicle(id string) (model.Vehicle, bool) {
	s.rw.RLock()
	defer s.rw.RUnlock()
	v, ok := s.vehicles[id]
	return v, ok
}

// Detections returns all detections in order of first appearance.
func (s *Store) Detections() []model.Detection {
	s.rw.RLock()
	defer s.rw.RUnlock()

	out := make([]model.Detection, 0, len(s.detectionOrder))
	for _, id := range s.detectionOrder {
		out = append(out, s.detections[id])
	}
	return out
}

// Detection returns the detection with the given id.
func (s *Store) Detection(id string) (model.Detection, bool) {
	s.rw.RLock()
	defer s.rw.RUnlock()
	d, ok := s.detections[id]
	return d, ok
}

// Mission returns a copy of the current mission of vehicleID. ok is false
// when no mission was ever received for it.
func (s *Store) Mission(vehicleID string) (model.Mission, bool) {
	s.rw.RLock()
	defer s.rw.RUnlock()

	items, ok := s.missions[vehicleID]
	if !ok {
		return model.Mission{}, false
	}
	cp := make([]model.MissionItem, len(items))
	copy(cp, items)
	return model.Mission{VehicleID: vehicleID, Items: cp}, true
}

// Missions returns a copy of every stored mission keyed by vehicle id.
func (s *Store) Missions() map[string]model.Mission {
	s.rw.RLock()
	defer s.rw.RUnlock()

	out := make(map[string]model.Mission, len(s.missions))
	for vid, items := range s.missions {
		cp := make([]model.MissionItem, len(items))
		copy(cp, items)
		out[vid] = model.Mission{VehicleID: vid, Items: cp}
	}
	return out
}

// Stats returns collection sizes.
func (s *Store) Stats() Stats {
	s.rw.RLock()
	defer s.rw.RUnlock()

	st := Stats{
		Vehicles:   len(s.vehicles),
		Missions:   len(s.missions),
		Detections: len(s.detections),
	}
	for _, d := range s.detections {
		if d.Approved {
			st.Approved++
		}
	}
	return st
}
