// Package reconcile routes push-channel messages into the entity store.
package reconcile

import (
	"context"

	"github.com/autopeer-io/fleetconsole/internal/console/channel"
	"github.com/autopeer-io/fleetconsole/internal/console/codec"
	"github.com/autopeer-io/fleetconsole/internal/console/model"
	"github.com/autopeer-io/fleetconsole/internal/pkg/metrics"
	"github.com/autopeer-io/fleetconsole/pkg/log"
	"github.com/autopeer-io/fleetconsole/pkg/mqtt/topic"
)

// Subscriber registers topic handlers. *channel.Manager satisfies it.
type Subscriber interface {
	Subscribe(filter string, h channel.Handler) *channel.Subscription
}

// Sink is the set of store mutations the reconciler drives.
type Sink interface {
	UpsertVehicle(v model.Vehicle)
	UpsertDetection(d model.Detection)
	ReplaceDetections(ds []model.Detection)
	SetMission(vehicleID string, items []model.MissionItem)
}

// Reconciler decodes channel messages and applies them to a Sink.
type Reconciler struct {
	topics *topic.Builder
	sink   Sink
	subs   []*channel.Subscription
}

// New creates a Reconciler for the topics under root.
func New(topics *topic.Builder, sink Sink) *Reconciler {
	return &Reconciler{topics: topics, sink: sink}
}

// Register subscribes the telemetry, missions and detections handlers.
// Call it once, before the channel connects.
func (r *Reconciler) Register(sub Subscriber) {
	r.subs = append(r.subs,
		sub.Subscribe(r.topics.TelemetryWildcard(), r.HandleTelemetry),
		sub.Subscribe(r.topics.MissionsWildcard(), r.HandleMission),
		sub.Subscribe(r.topics.Detections(), r.HandleDetections),
	)
}

// Unregister cancels every subscription made by Register.
func (r *Reconciler) Unregister() {
	for _, s := range r.subs {
		s.Cancel()
	}
	r.subs = nil
}

func dropped(t string, err error) {
	metrics.ParseErrors.WithLabelValues("decode").Inc()
	log.Warn("Dropping undecodable message", "topic", t, "error", err)
}

// HandleTelemetry upserts the vehicle record carried by a telemetry message.
func (r *Reconciler) HandleTelemetry(_ context.Context, t string, payload []byte) {
	v, err := codec.DecodeVehicle(payload)
	if err != nil {
		dropped(t, err)
		return
	}
	if id, ok := r.topics.VehicleID(topic.SuffixTelemetry, t); ok && id != v.ID {
		log.Debug("Telemetry id differs from topic", "topic", t, "id", v.ID)
	}
	r.sink.UpsertVehicle(v)
}

// HandleMission replaces the mission of the vehicle named by the topic.
func (r *Reconciler) HandleMission(_ context.Context, t string, payload []byte) {
	vid, ok := r.topics.VehicleID(topic.SuffixMissions, t)
	if !ok {
		log.Warn("Mission message without vehicle id", "topic", t)
		return
	}
	items, err := codec.DecodeMissionItems(payload)
	if err != nil {
		dropped(t, err)
		return
	}
	r.sink.SetMission(vid, items)
}

// HandleDetections merges a single detection or replaces the collection
// with a batch.
func (r *Reconciler) HandleDetections(_ context.Context, t string, payload []byte) {
	p, err := codec.DecodeDetections(payload)
	if err != nil {
		dropped(t, err)
		return
	}

	switch p.Kind {
	case codec.Single:
		r.sink.UpsertDetection(p.Detection)
	case codec.Batch:
		r.sink.ReplaceDetections(p.Batch)
	}
}
