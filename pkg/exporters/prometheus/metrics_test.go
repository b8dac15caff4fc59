package prometheus

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewMetrics(t *testing.T) {
	metrics, err := NewMetrics("sockperf", nil)
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}

	if metrics.LatencyAvg == nil {
		t.Error("LatencyAvg should not be nil")
	}
	if metrics.LatencyP50 == nil {
		t.Error("LatencyP50 should not be nil")
	}
	if metrics.LatencyP99 == nil {
		t.Error("LatencyP99 should not be nil")
	}
	if metrics.LatencyP999 == nil {
		t.Error("LatencyP999 should not be nil")
	}
	if metrics.Throughput == nil {
		t.Error("Throughput should not be nil")
	}
	if metrics.PacketsSent == nil {
		t.Error("PacketsSent should not be nil")
	}
	if metrics.PacketsReceived == nil {
		t.Error("PacketsReceived should not be nil")
	}
}

func TestMetricsRegister(t *testing.T) {
	metrics, err := NewMetrics("sockperf", nil)
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}

	registry := prometheus.NewRegistry()
	if err := metrics.Register(registry); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	// Registering the same collectors twice must fail
	if err := metrics.Register(registry); err == nil {
		t.Error("expected error on double registration")
	}

	metrics.Unregister(registry)
	if err := metrics.Register(registry); err != nil {
		t.Errorf("re-registration after Unregister failed: %v", err)
	}
}

func TestMetricNames(t *testing.T) {
	metrics, err := NewMetrics("sockperf", nil)
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}

	registry := prometheus.NewRegistry()
	if err := metrics.Register(registry); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	// Materialize one series per family so Gather sees them
	metrics.LatencyAvg.WithLabelValues("pingpong", "udp", "ena").Set(1)
	metrics.LatencyP50.WithLabelValues("pingpong", "udp", "ena").Set(1)
	metrics.LatencyP99.WithLabelValues("pingpong", "udp", "ena").Set(1)
	metrics.LatencyP999.WithLabelValues("pingpong", "udp", "ena").Set(1)
	metrics.Throughput.WithLabelValues("throughput", "udp", "ena").Set(1)
	metrics.PacketsSent.WithLabelValues("pingpong", "udp", "ena").Add(1)
	metrics.PacketsReceived.WithLabelValues("pingpong", "udp", "ena").Add(1)

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	found := make(map[string]bool)
	for _, mf := range families {
		found[mf.GetName()] = true
	}

	expected := []string{
		"sockperf_latency_avg_usec",
		"sockperf_latency_p50_usec",
		"sockperf_latency_p99_usec",
		"sockperf_latency_p999_usec",
		"sockperf_throughput_mbps",
		"sockperf_packets_sent_total",
		"sockperf_packets_received_total",
	}
	for _, name := range expected {
		if !found[name] {
			t.Errorf("metric family %s not gathered", name)
		}
	}

	if got := testutil.ToFloat64(metrics.LatencyAvg.WithLabelValues("pingpong", "udp", "ena")); got != 1 {
		t.Errorf("latency_avg series = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.PacketsSent.WithLabelValues("pingpong", "udp", "ena")); got != 1 {
		t.Errorf("packets_sent series = %v, want 1", got)
	}
}

func TestNewMetricsDefaultNamespace(t *testing.T) {
	metrics, err := NewMetrics("", nil)
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}

	registry := prometheus.NewRegistry()
	if err := metrics.Register(registry); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	metrics.LatencyAvg.WithLabelValues("pingpong", "udp", "ena").Set(1)

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	for _, mf := range families {
		if strings.HasPrefix(mf.GetName(), "sockperf_") {
			return
		}
	}
	t.Error("empty namespace should default to sockperf")
}

func TestNewMetricsConstLabels(t *testing.T) {
	metrics, err := NewMetrics("sockperf", prometheus.Labels{"host": "node-1"})
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}

	registry := prometheus.NewRegistry()
	if err := metrics.Register(registry); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	metrics.LatencyAvg.WithLabelValues("pingpong", "udp", "ena").Set(1)

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	for _, mf := range families {
		if mf.GetName() != "sockperf_latency_avg_usec" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "host" && lp.GetValue() == "node-1" {
					return
				}
			}
		}
	}
	t.Error("const label host=node-1 not present on gathered series")
}
