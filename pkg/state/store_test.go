package state

import (
	"testing"

	"github.com/supporttools/sockperf-exporter/pkg/exporters/prometheus"
	"github.com/supporttools/sockperf-exporter/pkg/sockperf"
)

var testLabels = sockperf.Labels{TestType: "pingpong", Protocol: "udp", Interface: "ena"}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	metrics, err := prometheus.NewMetrics("sockperf", nil)
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}
	return NewStore(metrics)
}

func TestApplyGauges(t *testing.T) {
	store := newTestStore(t)

	store.Apply("/var/log/sockperf/sockperf_pingpong_udp_ena.log", testLabels, sockperf.Sample{
		sockperf.FieldLatencyAvg: 30.795,
		sockperf.FieldLatencyP50: 30.632,
		sockperf.FieldLatencyP99: 36.542,
	})

	if got := GaugeValue(store.metrics.LatencyAvg, testLabels); got != 30.795 {
		t.Errorf("latency_avg = %v, want 30.795", got)
	}
	if got := GaugeValue(store.metrics.LatencyP50, testLabels); got != 30.632 {
		t.Errorf("latency_p50 = %v, want 30.632", got)
	}
	if got := GaugeValue(store.metrics.LatencyP99, testLabels); got != 36.542 {
		t.Errorf("latency_p99 = %v, want 36.542", got)
	}
}

func TestApplyGaugeRetainedWhenAbsent(t *testing.T) {
	store := newTestStore(t)
	path := "/var/log/sockperf/sockperf_pingpong_udp_ena.log"

	store.Apply(path, testLabels, sockperf.Sample{sockperf.FieldLatencyAvg: 30.795})

	// A later pass that failed to extract the field leaves the value alone
	store.Apply(path, testLabels, sockperf.Sample{sockperf.FieldLatencyP50: 30.632})

	if got := GaugeValue(store.metrics.LatencyAvg, testLabels); got != 30.795 {
		t.Errorf("latency_avg after absent pass = %v, want 30.795 retained", got)
	}
}

func TestApplyIdempotent(t *testing.T) {
	store := newTestStore(t)
	path := "/var/log/sockperf/sockperf_pingpong_udp_ena.log"
	sample := sockperf.Sample{
		sockperf.FieldLatencyAvg:      30.795,
		sockperf.FieldPacketsSent:     1000,
		sockperf.FieldPacketsReceived: 998,
	}

	// The same unchanged window observed twice
	store.Apply(path, testLabels, sample)
	store.Apply(path, testLabels, sample)

	if got := GaugeValue(store.metrics.LatencyAvg, testLabels); got != 30.795 {
		t.Errorf("latency_avg = %v, want 30.795", got)
	}
	if got := CounterValue(store.metrics.PacketsSent, testLabels); got != 1000 {
		t.Errorf("packets_sent after double apply = %v, want 1000", got)
	}
	if got := CounterValue(store.metrics.PacketsReceived, testLabels); got != 998 {
		t.Errorf("packets_received after double apply = %v, want 998", got)
	}
}

func TestCounterMonotonicity(t *testing.T) {
	store := newTestStore(t)
	path := "/var/log/sockperf/sockperf_pingpong_udp_ena.log"

	// Cumulative observations c1 <= c2 <= c3 must end at c3, not c1+c2+c3
	for _, cumulative := range []float64{100, 250, 480053} {
		store.Apply(path, testLabels, sockperf.Sample{sockperf.FieldPacketsSent: cumulative})
	}

	if got := CounterValue(store.metrics.PacketsSent, testLabels); got != 480053 {
		t.Errorf("packets_sent = %v, want 480053", got)
	}
}

func TestCounterReset(t *testing.T) {
	store := newTestStore(t)
	path := "/var/log/sockperf/sockperf_pingpong_udp_ena.log"

	store.Apply(path, testLabels, sockperf.Sample{sockperf.FieldPacketsSent: 500})

	// Regression: the benchmark restarted and the file now reports 10.
	// The visible total increases by exactly 10, never by a negative delta.
	store.Apply(path, testLabels, sockperf.Sample{sockperf.FieldPacketsSent: 10})

	if got := CounterValue(store.metrics.PacketsSent, testLabels); got != 510 {
		t.Errorf("packets_sent after reset = %v, want 510", got)
	}

	// The new baseline is 10, so the next growth applies only the difference
	store.Apply(path, testLabels, sockperf.Sample{sockperf.FieldPacketsSent: 25})
	if got := CounterValue(store.metrics.PacketsSent, testLabels); got != 525 {
		t.Errorf("packets_sent after post-reset growth = %v, want 525", got)
	}
}

func TestCountersTrackFilesIndependently(t *testing.T) {
	store := newTestStore(t)
	other := sockperf.Labels{TestType: "pingpong", Protocol: "udp", Interface: "ena_express"}

	store.Apply("/logs/sockperf_pingpong_udp_ena.log", testLabels,
		sockperf.Sample{sockperf.FieldPacketsSent: 100})
	store.Apply("/logs/sockperf_pingpong_udp_ena_express.log", other,
		sockperf.Sample{sockperf.FieldPacketsSent: 70})

	if got := CounterValue(store.metrics.PacketsSent, testLabels); got != 100 {
		t.Errorf("ena packets_sent = %v, want 100", got)
	}
	if got := CounterValue(store.metrics.PacketsSent, other); got != 70 {
		t.Errorf("ena_express packets_sent = %v, want 70", got)
	}
}

func TestForgetResetsBaseline(t *testing.T) {
	store := newTestStore(t)
	path := "/logs/sockperf_pingpong_udp_ena.log"

	store.Apply(path, testLabels, sockperf.Sample{sockperf.FieldPacketsSent: 300})

	// File removed and a new one appears under the same name: its cumulative
	// count starts over, and the whole new total is applied.
	store.Forget(path)
	store.Apply(path, testLabels, sockperf.Sample{sockperf.FieldPacketsSent: 40})

	if got := CounterValue(store.metrics.PacketsSent, testLabels); got != 340 {
		t.Errorf("packets_sent after forget = %v, want 340", got)
	}
}
