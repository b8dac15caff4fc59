// sockperf-bench - runs ENA vs ENA Express latency benchmarks with sockperf
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/supporttools/sockperf-exporter/pkg/logger"
	"github.com/supporttools/sockperf-exporter/pkg/runner"
	"github.com/supporttools/sockperf-exporter/pkg/types"
	"github.com/supporttools/sockperf-exporter/pkg/util"
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
	iterations = flag.Int("iterations", 0, "Override number of test iterations")
	repeats    = flag.Int("repeat", 0, "Override number of repeats per iteration")
	duration   = flag.Int("duration", 0, "Override test duration in seconds")
	mps        = flag.String("mps", "", "Override messages per second (number or 'max')")
	outputDir  = flag.String("output-dir", "", "Override results output directory")
	debug      = flag.Bool("debug", false, "Enable debug output")
	version    = flag.Bool("version", false, "Show version information and exit")
)

func main() {
	flag.Parse()

	if *version {
		printVersion()
		os.Exit(0)
	}

	config, err := util.LoadConfigOrDefault(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	applyFlagOverrides(config)

	logLevel := config.Settings.LogLevel
	if *debug {
		logLevel = "debug"
	}
	// Text output reads better for an interactive benchmark session.
	if err := logger.Initialize(logLevel, "text", "stdout", ""); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}

	logger.Infof("sockperf-bench %s starting...", Version)

	// Cancel in-flight sockperf runs on Ctrl-C
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	r, err := runner.New(config.Bench)
	if err != nil {
		logger.Fatalf("Failed to create benchmark runner: %v", err)
	}

	results, err := r.Run(ctx)
	if err != nil {
		logger.Fatalf("Benchmark failed: %v", err)
	}

	logger.Infof("Benchmark completed: %d run pairs, results in %s",
		len(results.Pairs), r.OutputDir())
}

// applyFlagOverrides applies command-line flag overrides to the configuration
func applyFlagOverrides(config *types.ExporterConfig) {
	if *iterations > 0 {
		config.Bench.Iterations = *iterations
	}
	if *repeats > 0 {
		config.Bench.Repeats = *repeats
	}
	if *duration > 0 {
		config.Bench.DurationSeconds = *duration
	}
	if *mps != "" {
		config.Bench.MessagesPerSec = *mps
	}
	if *outputDir != "" {
		config.Bench.OutputDirectory = *outputDir
	}
}

// printVersion prints version information to stdout
func printVersion() {
	fmt.Printf("sockperf-bench %s\n", Version)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
	fmt.Printf("  Built: %s\n", BuildTime)
	fmt.Printf("  Go Version: %s\n", runtime.Version())
	fmt.Printf("  OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}
