package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ChannelConnected is 1 while the push channel is connected, 0 otherwise.
	ChannelConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "fleetconsole_channel_connected",
			Help: "Push channel connectivity (1=connected, 0=not connected).",
		},
	)

	// ChannelConnections counts connection establishments, reconnects included.
	ChannelConnections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fleetconsole_channel_connections_total",
			Help: "Total number of push channel connection establishments.",
		},
	)

	// ChannelMessages counts inbound messages per subscribed topic filter.
	ChannelMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetconsole_channel_messages_total",
			Help: "Total number of messages delivered to handlers.",
		},
		[]string{"filter"},
	)

	// ParseErrors counts dropped messages, by stage (channel or decode).
	ParseErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetconsole_parse_errors_total",
			Help: "Total number of inbound messages dropped because they could not be parsed.",
		},
		[]string{"stage"},
	)

	// StoreMutations counts entity store writes.
	StoreMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetconsole_store_mutations_total",
			Help: "Total number of entity store mutations.",
		},
		[]string{"collection", "op"}, // op: upsert/replace
	)

	// SnapshotFetches counts snapshot fetches per collection and outcome.
	SnapshotFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetconsole_snapshot_fetch_total",
			Help: "Total number of snapshot fetches.",
		},
		[]string{"collection", "result"}, // result: success/failed
	)

	// GeofenceChecks counts point and mission checks by verdict.
	GeofenceChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetconsole_geofence_checks_total",
			Help: "Total number of geofence checks.",
		},
		[]string{"scope", "result"}, // scope: point/mission, result: valid/violation
	)

	// GeofenceZonesRejected counts zones left out of an installed set because
	// they failed validation.
	GeofenceZonesRejected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fleetconsole_geofence_zones_rejected_total",
			Help: "Total number of geofence zones rejected on install.",
		},
	)

	// DispatchRequests counts calls to the dispatch interface.
	DispatchRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetconsole_dispatch_total",
			Help: "Total number of dispatch requests sent to the backend.",
		},
		[]string{"kind", "status"}, // kind: mission/arm/rtl/..., status: success/failed
	)

	// DispatchLatency records backend round-trip time of dispatch requests.
	DispatchLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fleetconsole_dispatch_latency_seconds",
			Help:    "Latency of dispatch requests to the backend.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(
		ChannelConnected,
		ChannelConnections,
		ChannelMessages,
		ParseErrors,
		StoreMutations,
		SnapshotFetches,
		GeofenceChecks,
		GeofenceZonesRejected,
		DispatchRequests,
		DispatchLatency,
	)
}
