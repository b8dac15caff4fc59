package prometheus

import (
	"testing"

	"github.com/supporttools/sockperf-exporter/pkg/types"
)

func TestNewExporter(t *testing.T) {
	config := &types.MetricsConfig{}
	exporter, err := NewExporter(config)
	if err != nil {
		t.Fatalf("NewExporter failed: %v", err)
	}

	if exporter.Metrics() == nil {
		t.Error("Metrics() should not be nil")
	}
	if config.Port != types.DefaultExporterPort {
		t.Errorf("port defaulted to %d, want %d", config.Port, types.DefaultExporterPort)
	}
	if config.Path != types.DefaultExporterPath {
		t.Errorf("path defaulted to %q, want %q", config.Path, types.DefaultExporterPath)
	}
	if config.Namespace != types.DefaultMetricNamespace {
		t.Errorf("namespace defaulted to %q, want %q", config.Namespace, types.DefaultMetricNamespace)
	}
}

func TestNewExporterNilConfig(t *testing.T) {
	if _, err := NewExporter(nil); err == nil {
		t.Error("expected error for nil config")
	}
}

func TestExporterStopWithoutStart(t *testing.T) {
	exporter, err := NewExporter(&types.MetricsConfig{})
	if err != nil {
		t.Fatalf("NewExporter failed: %v", err)
	}
	if err := exporter.Stop(); err != nil {
		t.Errorf("Stop before Start should be a no-op, got %v", err)
	}
}
