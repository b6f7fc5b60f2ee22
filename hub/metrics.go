package hub

import "github.com/prometheus/client_golang/prometheus"

// Metrics tracks hub traffic and connection health for Prometheus.
type Metrics struct {
	Connected          prometheus.Gauge
	Reconnects         prometheus.Counter
	FramesReceived     prometheus.Counter
	FramesUnclassified prometheus.Counter
	MovementsKept      prometheus.Counter
	MovementsFiltered  prometheus.Counter
	TDBatches          prometheus.Counter
	TDEventsApplied    prometheus.Counter
	VSTPMessages       prometheus.Counter
	DispatchDropped    prometheus.Counter
}

// NewMetrics creates and registers the hub metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hub_connected",
			Help: "1 while the broker connection is up",
		}),
		Reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hub_reconnects_total",
			Help: "Number of reconnection attempts",
		}),
		FramesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hub_frames_received_total",
			Help: "Raw broker frames received",
		}),
		FramesUnclassified: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hub_frames_unclassified_total",
			Help: "Frames that matched no known message shape",
		}),
		MovementsKept: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hub_movements_kept_total",
			Help: "Movement records that passed the configured filters",
		}),
		MovementsFiltered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hub_movements_filtered_total",
			Help: "Movement records removed by the configured filters",
		}),
		TDBatches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hub_td_batches_total",
			Help: "Train Describer batches dispatched",
		}),
		TDEventsApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hub_td_events_applied_total",
			Help: "Train Describer events applied to berth state",
		}),
		VSTPMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hub_vstp_messages_total",
			Help: "VSTP schedule messages passed through",
		}),
		DispatchDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hub_dispatch_dropped_total",
			Help: "Items dropped because the dispatch queue was full",
		}),
	}
	reg.MustRegister(
		m.Connected, m.Reconnects, m.FramesReceived, m.FramesUnclassified,
		m.MovementsKept, m.MovementsFiltered, m.TDBatches, m.TDEventsApplied,
		m.VSTPMessages, m.DispatchDropped,
	)
	return m
}
