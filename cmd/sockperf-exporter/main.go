// sockperf-exporter - bridges sockperf log output into Prometheus metrics
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/supporttools/sockperf-exporter/pkg/exporters/prometheus"
	"github.com/supporttools/sockperf-exporter/pkg/logger"
	"github.com/supporttools/sockperf-exporter/pkg/state"
	"github.com/supporttools/sockperf-exporter/pkg/types"
	"github.com/supporttools/sockperf-exporter/pkg/util"
	"github.com/supporttools/sockperf-exporter/pkg/watcher"
)

// Build-time variables set by goreleaser or make
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// Command-line flags
var (
	configPath = flag.String("config", "/etc/sockperf-exporter/config.yaml", "Path to configuration file")
	logDir     = flag.String("log-dir", "", "Override sockperf log directory to watch")
	port       = flag.Int("port", 0, "Override metrics listen port")
	logLevel   = flag.String("log-level", "", "Override log level (debug, info, warn, error)")
	logFormat  = flag.String("log-format", "", "Override log format (json, text)")
	version    = flag.Bool("version", false, "Show version information and exit")
)

func main() {
	flag.Parse()

	if *version {
		printVersion()
		os.Exit(0)
	}

	config, err := loadConfiguration()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Initialize(config.Settings.LogLevel, config.Settings.LogFormat,
		config.Settings.LogOutput, config.Settings.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	logger.Infof("sockperf-exporter %s starting...", Version)
	logger.Infof("Watching %s, serving metrics on :%d%s",
		config.Watch.Directory, config.Exporter.Port, config.Exporter.Path)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The exporter owns the registry; the store applies update semantics on
	// top of its metric families; the watcher feeds the store.
	exporter, err := prometheus.NewExporter(&config.Exporter)
	if err != nil {
		logger.Fatalf("Failed to create exporter: %v", err)
	}

	store := state.NewStore(exporter.Metrics())

	w, err := watcher.New(config.Watch, store)
	if err != nil {
		logger.Fatalf("Failed to create watcher: %v", err)
	}

	// Binding the scrape port and establishing the directory watch are the
	// only fatal startup conditions.
	if err := exporter.Start(); err != nil {
		logger.Fatalf("Failed to start exporter: %v", err)
	}

	if err := w.Start(ctx); err != nil {
		exporter.Stop()
		logger.Fatalf("Failed to start watcher: %v", err)
	}

	logger.Info("sockperf-exporter started successfully")

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	sig := <-sigChan
	logger.Infof("Received signal %v, initiating graceful shutdown", sig)

	cancel()
	w.Stop()
	if err := exporter.Stop(); err != nil {
		logger.Warnf("Error stopping exporter: %v", err)
	}

	logger.Info("sockperf-exporter stopped")
}

// loadConfiguration loads the configuration with proper precedence:
// 1. Start with file config or defaults if file doesn't exist
// 2. Apply CLI flag overrides
// 3. Re-validate the final configuration
func loadConfiguration() (*types.ExporterConfig, error) {
	config, err := util.LoadConfigOrDefault(*configPath)
	if err != nil {
		return nil, err
	}

	applyFlagOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed after applying overrides: %w", err)
	}

	return config, nil
}

// applyFlagOverrides applies command-line flag overrides to the configuration
func applyFlagOverrides(config *types.ExporterConfig) {
	if *logDir != "" {
		config.Watch.Directory = *logDir
	}
	if *port != 0 {
		config.Exporter.Port = *port
	}
	if *logLevel != "" {
		config.Settings.LogLevel = *logLevel
	}
	if *logFormat != "" {
		config.Settings.LogFormat = *logFormat
	}
}

// printVersion prints version information to stdout
func printVersion() {
	fmt.Printf("sockperf-exporter %s\n", Version)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
	fmt.Printf("  Built: %s\n", BuildTime)
	fmt.Printf("  Go Version: %s\n", runtime.Version())
	fmt.Printf("  OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}
