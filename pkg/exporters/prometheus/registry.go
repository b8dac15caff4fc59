package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// NewRegistry creates a new Prometheus registry for the exporter.
// This registry is separate from the default global registry so the exporter
// owns its metric lifecycle: created at startup, torn down at shutdown.
func NewRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()

	// Add Go runtime metrics
	registry.MustRegister(collectors.NewGoCollector())

	// Add process metrics
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return registry
}
