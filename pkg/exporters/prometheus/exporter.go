package prometheus

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/supporttools/sockperf-exporter/pkg/logger"
	"github.com/supporttools/sockperf-exporter/pkg/types"
)

// Exporter owns the metric registry and the HTTP scrape endpoint. It carries
// no business logic: the watcher pipeline mutates the metric vectors through
// the state store while scrapes read them concurrently, which client_golang
// vectors support without additional locking.
type Exporter struct {
	config   *types.MetricsConfig
	registry *prometheus.Registry
	metrics  *Metrics
	server   *http.Server
	mu       sync.Mutex
	started  bool
}

// NewExporter creates a registry, the sockperf metric families, and an
// exporter serving them. The server is not started until Start is called.
func NewExporter(config *types.MetricsConfig) (*Exporter, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	// Set defaults
	if config.Port == 0 {
		config.Port = types.DefaultExporterPort
	}
	if config.Path == "" {
		config.Path = types.DefaultExporterPath
	}
	if config.Namespace == "" {
		config.Namespace = types.DefaultMetricNamespace
	}

	constLabels := make(prometheus.Labels)
	for k, v := range config.Labels {
		constLabels[k] = v
	}

	registry := NewRegistry()

	metrics, err := NewMetrics(config.Namespace, constLabels)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	if err := metrics.Register(registry); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	return &Exporter{
		config:   config,
		registry: registry,
		metrics:  metrics,
	}, nil
}

// Metrics returns the metric families for the state store to update.
func (e *Exporter) Metrics() *Metrics {
	return e.metrics
}

// Start binds the scrape port and begins serving. A bind failure is returned
// to the caller; it is the only fatal condition on the exposition path.
func (e *Exporter) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return fmt.Errorf("exporter already started")
	}

	addr := fmt.Sprintf("0.0.0.0:%d", e.config.Port)
	server, err := startHTTPServer(addr, e.config.Path, e.registry)
	if err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	e.server = server
	e.started = true

	logger.Infof("Prometheus exporter started on %s%s (namespace %q)",
		addr, e.config.Path, e.config.Namespace)

	return nil
}

// Stop gracefully stops the scrape endpoint.
func (e *Exporter) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.started {
		return nil // Already stopped or never started
	}

	if err := shutdownServer(e.server, 30*time.Second); err != nil {
		logger.Warnf("Error stopping HTTP server: %v", err)
	}

	e.started = false
	logger.Info("Prometheus exporter stopped")

	return nil
}
