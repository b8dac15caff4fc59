package prometheus

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// seriesLabels are the label keys shared by every sockperf metric family.
// All three are derived from the log file name; together they identify
// exactly one series per metric.
var seriesLabels = []string{"test_type", "protocol", "interface"}

// Metrics contains all the Prometheus metrics exported from sockperf output
type Metrics struct {
	// Gauge metrics (latest observed value, overwritten on every extraction)
	LatencyAvg  *prometheus.GaugeVec
	LatencyP50  *prometheus.GaugeVec
	LatencyP99  *prometheus.GaugeVec
	LatencyP999 *prometheus.GaugeVec
	Throughput  *prometheus.GaugeVec

	// Counter metrics (delta-accumulated from cumulative source values)
	PacketsSent     *prometheus.CounterVec
	PacketsReceived *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metric definitions
func NewMetrics(namespace string, constLabels prometheus.Labels) (*Metrics, error) {
	if namespace == "" {
		namespace = "sockperf"
	}

	labels := make(prometheus.Labels)
	for k, v := range constLabels {
		labels[k] = v
	}

	m := &Metrics{
		LatencyAvg: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   namespace,
				Name:        "latency_avg_usec",
				Help:        "Average latency in microseconds",
				ConstLabels: labels,
			},
			seriesLabels,
		),

		LatencyP50: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   namespace,
				Name:        "latency_p50_usec",
				Help:        "P50 latency in microseconds",
				ConstLabels: labels,
			},
			seriesLabels,
		),

		LatencyP99: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   namespace,
				Name:        "latency_p99_usec",
				Help:        "P99 latency in microseconds",
				ConstLabels: labels,
			},
			seriesLabels,
		),

		LatencyP999: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   namespace,
				Name:        "latency_p999_usec",
				Help:        "P99.9 latency in microseconds",
				ConstLabels: labels,
			},
			seriesLabels,
		),

		Throughput: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   namespace,
				Name:        "throughput_mbps",
				Help:        "Throughput in Mbps",
				ConstLabels: labels,
			},
			seriesLabels,
		),

		PacketsSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   namespace,
				Name:        "packets_sent_total",
				Help:        "Total packets sent",
				ConstLabels: labels,
			},
			seriesLabels,
		),

		PacketsReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   namespace,
				Name:        "packets_received_total",
				Help:        "Total packets received",
				ConstLabels: labels,
			},
			seriesLabels,
		),
	}

	return m, nil
}

// collectors returns every metric vector for registration bookkeeping
func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.LatencyAvg,
		m.LatencyP50,
		m.LatencyP99,
		m.LatencyP999,
		m.Throughput,
		m.PacketsSent,
		m.PacketsReceived,
	}
}

// Register registers all metrics with the provided registry
func (m *Metrics) Register(registry *prometheus.Registry) error {
	for _, collector := range m.collectors() {
		if err := registry.Register(collector); err != nil {
			return fmt.Errorf("failed to register metric: %w", err)
		}
	}
	return nil
}

// Unregister removes all metrics from the provided registry
func (m *Metrics) Unregister(registry *prometheus.Registry) {
	for _, collector := range m.collectors() {
		registry.Unregister(collector)
	}
}
