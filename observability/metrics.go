package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the prometheus collectors of the service.
// A nil *Metrics is valid and records nothing, which keeps tests free of registries.
type Metrics struct {
	Connections       prometheus.Gauge
	Rooms             prometheus.Gauge
	Deliveries        *prometheus.CounterVec
	DeliveryDuration  prometheus.Histogram
	RelayQueueDepth   prometheus.Gauge
	DroppedCommands   prometheus.Counter
	GeoQueries        *prometheus.CounterVec
	GeoQueryDuration  *prometheus.HistogramVec
	ProcessRSSBytes   prometheus.Gauge
	ProcessCPUPercent prometheus.Gauge
	WorkerRestarts    *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Connections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sharecircle_relay_connections",
			Help: "Current number of live chat connections",
		}),
		Rooms: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sharecircle_relay_rooms",
			Help: "Current number of non empty chat rooms",
		}),
		Deliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sharecircle_relay_deliveries_total",
			Help: "Total number of per recipient deliveries",
		}, []string{"outcome"}), // "delivered", "failed"
		DeliveryDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "sharecircle_relay_broadcast_duration_seconds",
			Help:    "Duration of a room broadcast in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		RelayQueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sharecircle_relay_queue_depth",
			Help: "Commands waiting for the relay worker",
		}),
		DroppedCommands: factory.NewCounter(prometheus.CounterOpts{
			Name: "sharecircle_relay_dropped_commands_total",
			Help: "Commands rejected by the relay",
		}),
		GeoQueries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sharecircle_geo_queries_total",
			Help: "Total number of item queries",
		}, []string{"kind", "outcome"}), // kind: "radius", "text"
		GeoQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sharecircle_geo_query_duration_seconds",
			Help:    "Duration of item queries in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
		ProcessRSSBytes: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sharecircle_process_rss_bytes",
			Help: "Resident memory of the process",
		}),
		ProcessCPUPercent: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sharecircle_process_cpu_percent",
			Help: "CPU usage of the process",
		}),
		WorkerRestarts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sharecircle_worker_restarts_total",
			Help: "Supervised worker restarts after a failure or a panic",
		}, []string{"worker"}),
	}
}

func (m *Metrics) RecordBroadcast(delivered, failed int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Deliveries.WithLabelValues("delivered").Add(float64(delivered))
	m.Deliveries.WithLabelValues("failed").Add(float64(failed))
	m.DeliveryDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) RecordQueueDepth(depth int) {
	if m == nil {
		return
	}
	m.RelayQueueDepth.Set(float64(depth))
}

func (m *Metrics) RecordDroppedCommand() {
	if m == nil {
		return
	}
	m.DroppedCommands.Inc()
}

func (m *Metrics) RecordQuery(kind string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.GeoQueries.WithLabelValues(kind, outcome).Inc()
	m.GeoQueryDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

func (m *Metrics) RecordWorkerRestart(worker string) {
	if m == nil {
		return
	}
	m.WorkerRestarts.WithLabelValues(worker).Inc()
}

func (m *Metrics) RecordStats(stats MonitoringStats) {
	if m == nil {
		return
	}
	m.Connections.Set(float64(stats.Connections))
	m.Rooms.Set(float64(stats.Rooms))
	m.ProcessRSSBytes.Set(float64(stats.RSSBytes))
	m.ProcessCPUPercent.Set(stats.CPUPercent)
}
