// Package state applies extracted sockperf samples to the exported metric
// series. Gauges take replace semantics; counters take delta-accumulate
// semantics against a per-file baseline so repeated observations of the same
// growing file never double-count.
package state

import (
	"sync"

	dto "github.com/prometheus/client_model/go"
	"github.com/sirupsen/logrus"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/supporttools/sockperf-exporter/pkg/exporters/prometheus"
	"github.com/supporttools/sockperf-exporter/pkg/logger"
	"github.com/supporttools/sockperf-exporter/pkg/sockperf"
)

// Store tracks, per (file, counter field), the last cumulative value already
// applied to the counter series. The baseline is what turns the source tool's
// "total so far" reports into monotonic counter increments: each pass applies
// only the difference since the previous pass, and a regression (file
// truncated, rotated, or benchmark restarted) resets the baseline instead of
// producing a negative delta.
type Store struct {
	metrics *prometheus.Metrics

	mu        sync.Mutex
	baselines map[string]map[string]float64 // file path -> field -> last applied cumulative
}

// NewStore creates a state store updating the given metric families.
func NewStore(metrics *prometheus.Metrics) *Store {
	return &Store{
		metrics:   metrics,
		baselines: make(map[string]map[string]float64),
	}
}

// gaugeFor maps a sample field to its gauge family, or nil for counter fields.
func (s *Store) gaugeFor(field string) *prom.GaugeVec {
	switch field {
	case sockperf.FieldLatencyAvg:
		return s.metrics.LatencyAvg
	case sockperf.FieldLatencyP50:
		return s.metrics.LatencyP50
	case sockperf.FieldLatencyP99:
		return s.metrics.LatencyP99
	case sockperf.FieldLatencyP999:
		return s.metrics.LatencyP999
	case sockperf.FieldThroughput:
		return s.metrics.Throughput
	}
	return nil
}

// counterFor maps a sample field to its counter family, or nil for gauges.
func (s *Store) counterFor(field string) *prom.CounterVec {
	switch field {
	case sockperf.FieldPacketsSent:
		return s.metrics.PacketsSent
	case sockperf.FieldPacketsReceived:
		return s.metrics.PacketsReceived
	}
	return nil
}

// Apply updates every metric series the sample carries a value for.
// Gauge fields are set unconditionally; absent fields leave the prior value
// untouched. Counter fields are applied as the delta against the file's
// baseline, all under one lock so a pass is all-or-nothing with respect to
// concurrent passes and Forget calls.
func (s *Store) Apply(path string, labels sockperf.Labels, sample sockperf.Sample) {
	labelValues := []string{labels.TestType, labels.Protocol, labels.Interface}

	s.mu.Lock()
	defer s.mu.Unlock()

	for field, value := range sample {
		if gauge := s.gaugeFor(field); gauge != nil {
			gauge.WithLabelValues(labelValues...).Set(value)
			continue
		}

		counter := s.counterFor(field)
		if counter == nil {
			continue
		}

		applied := s.baselines[path]
		if applied == nil {
			applied = make(map[string]float64)
			s.baselines[path] = applied
		}

		last := applied[field]
		if value < last {
			// Cumulative count went backwards: the benchmark was restarted or
			// the file rotated. Treat the observation as the start of a new
			// run and apply it in full.
			logger.WithFields(logrus.Fields{
				"file":     path,
				"field":    field,
				"last":     last,
				"observed": value,
			}).Info("Counter regression, resetting baseline")
			last = 0
		}

		if delta := value - last; delta > 0 {
			counter.WithLabelValues(labelValues...).Add(delta)
		}
		applied[field] = value
	}
}

// Forget drops the counter baselines for a file that disappeared or was
// rotated away. If a file with the same name reappears, its counters start
// again from a zero baseline.
func (s *Store) Forget(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.baselines, path)
}

// CounterValue reads the current value of a counter series. Exposed for
// status reporting and tests; scrapes go through the registry instead.
func CounterValue(vec *prom.CounterVec, labels sockperf.Labels) float64 {
	var m dto.Metric
	if err := vec.WithLabelValues(labels.TestType, labels.Protocol, labels.Interface).Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

// GaugeValue reads the current value of a gauge series.
func GaugeValue(vec *prom.GaugeVec, labels sockperf.Labels) float64 {
	var m dto.Metric
	if err := vec.WithLabelValues(labels.TestType, labels.Protocol, labels.Interface).Write(&m); err != nil {
		return 0
	}
	return m.GetGauge().GetValue()
}
