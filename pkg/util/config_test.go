package util

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/supporttools/sockperf-exporter/pkg/types"
)

func writeConfigFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfigYAML(t *testing.T) {
	path := writeConfigFile(t, "config.yaml", `
settings:
  logLevel: debug
  logFormat: text
exporter:
  port: 9200
  namespace: netperf
watch:
  directory: /tmp/sockperf-logs
  tailWindowBytes: 8192
  debounceInterval: 1s
`)

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Settings.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", config.Settings.LogLevel)
	}
	if config.Exporter.Port != 9200 {
		t.Errorf("Port = %d, want 9200", config.Exporter.Port)
	}
	if config.Exporter.Namespace != "netperf" {
		t.Errorf("Namespace = %q, want netperf", config.Exporter.Namespace)
	}
	if config.Watch.TailWindowBytes != 8192 {
		t.Errorf("TailWindowBytes = %d, want 8192", config.Watch.TailWindowBytes)
	}
	if config.Watch.DebounceInterval != time.Second {
		t.Errorf("DebounceInterval = %v, want 1s", config.Watch.DebounceInterval)
	}
	// Unset fields still get defaults
	if config.Exporter.Path != types.DefaultExporterPath {
		t.Errorf("Path = %q, want default %q", config.Exporter.Path, types.DefaultExporterPath)
	}
}

func TestLoadConfigJSON(t *testing.T) {
	path := writeConfigFile(t, "config.json", `{
  "exporter": {"port": 9300},
  "watch": {"directory": "/tmp/logs"}
}`)

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.Exporter.Port != 9300 {
		t.Errorf("Port = %d, want 9300", config.Exporter.Port)
	}
	if config.Watch.Directory != "/tmp/logs" {
		t.Errorf("Directory = %q, want /tmp/logs", config.Watch.Directory)
	}
}

func TestLoadConfigEnvSubstitution(t *testing.T) {
	os.Setenv("TEST_EXPORTER_PORT", "9400")
	defer os.Unsetenv("TEST_EXPORTER_PORT")

	path := writeConfigFile(t, "config.yaml", `
exporter:
  port: ${TEST_EXPORTER_PORT}
`)

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.Exporter.Port != 9400 {
		t.Errorf("Port = %d, want 9400 from env", config.Exporter.Port)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	path := writeConfigFile(t, "config.yaml", `
settings:
  logLevel: shouting
`)
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected validation error for invalid log level")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadConfigOrDefault(t *testing.T) {
	config, err := LoadConfigOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfigOrDefault failed: %v", err)
	}
	if config.Exporter.Port != types.DefaultExporterPort {
		t.Errorf("Port = %d, want default %d", config.Exporter.Port, types.DefaultExporterPort)
	}
	if config.Watch.Directory != types.DefaultWatchDirectory {
		t.Errorf("Directory = %q, want default %q", config.Watch.Directory, types.DefaultWatchDirectory)
	}
}

func TestDefaultConfig(t *testing.T) {
	config, err := DefaultConfig()
	if err != nil {
		t.Fatalf("DefaultConfig failed: %v", err)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("default configuration should validate: %v", err)
	}
}
