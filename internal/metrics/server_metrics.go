package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ServerMetrics records protocol-level observations from the connection
// engine. A nil-safe no-op implementation is returned when metrics are
// disabled, so callers never branch.
type ServerMetrics interface {
	// RecordCommand records one completed command with its duration and
	// whether the session survived it ("ok") or died on a transport fault
	// ("error").
	RecordCommand(command string, duration time.Duration, err error)

	// RecordBytes counts payload bytes moved, direction "in" (uploads) or
	// "out" (downloads).
	RecordBytes(direction string, bytes int64)

	// ConnectionOpened / ConnectionClosed track the session population.
	ConnectionOpened()
	ConnectionClosed()
}

type serverMetrics struct {
	commandsTotal     *prometheus.CounterVec
	commandDuration   *prometheus.HistogramVec
	bytesTransferred  *prometheus.CounterVec
	activeConnections prometheus.Gauge
	connectionsTotal  prometheus.Counter
}

// NewServerMetrics returns a Prometheus-backed ServerMetrics, or a no-op
// when InitRegistry has not been called.
func NewServerMetrics() ServerMetrics {
	if !IsEnabled() {
		return noopServerMetrics{}
	}

	reg := GetRegistry()

	return &serverMetrics{
		commandsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "flatstore_commands_total",
				Help: "Total number of protocol commands by command and status",
			},
			[]string{"command", "status"},
		),
		commandDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flatstore_command_duration_seconds",
				Help:    "Duration of protocol commands in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 30.0},
			},
			[]string{"command"},
		),
		bytesTransferred: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "flatstore_bytes_transferred_total",
				Help: "Total payload bytes transferred by direction",
			},
			[]string{"direction"},
		),
		activeConnections: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "flatstore_active_connections",
				Help: "Current number of client sessions",
			},
		),
		connectionsTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "flatstore_connections_accepted_total",
				Help: "Total number of accepted client connections",
			},
		),
	}
}

func (m *serverMetrics) RecordCommand(command string, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.commandsTotal.WithLabelValues(command, status).Inc()
	m.commandDuration.WithLabelValues(command).Observe(duration.Seconds())
}

func (m *serverMetrics) RecordBytes(direction string, bytes int64) {
	if bytes > 0 {
		m.bytesTransferred.WithLabelValues(direction).Add(float64(bytes))
	}
}

func (m *serverMetrics) ConnectionOpened() {
	m.connectionsTotal.Inc()
	m.activeConnections.Inc()
}

func (m *serverMetrics) ConnectionClosed() {
	m.activeConnections.Dec()
}

type noopServerMetrics struct{}

func (noopServerMetrics) RecordCommand(string, time.Duration, error) {}
func (noopServerMetrics) RecordBytes(string, int64)                  {}
func (noopServerMetrics) ConnectionOpened()                          {}
func (noopServerMetrics) ConnectionClosed()                          {}
