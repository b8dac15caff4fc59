// Package runner orchestrates sockperf benchmark runs against a regular ENI
// path and an ENA Express (SRD) path, writing per-run log files in the layout
// the exporter watches and collecting per-run statistics for reports.
package runner

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/avast/retry-go"
	"github.com/sirupsen/logrus"

	"github.com/supporttools/sockperf-exporter/pkg/logger"
	"github.com/supporttools/sockperf-exporter/pkg/report"
	"github.com/supporttools/sockperf-exporter/pkg/sockperf"
	"github.com/supporttools/sockperf-exporter/pkg/types"
)

// sockperfBinary is the external benchmark tool invoked for every run.
const sockperfBinary = "sockperf"

// Runner executes the benchmark matrix and produces reports.
type Runner struct {
	config    types.BenchConfig
	outputDir string
}

// New creates a Runner and its output directory tree. When no output
// directory is configured, a timestamped one is created in the working
// directory so successive invocations never overwrite each other.
func New(config types.BenchConfig) (*Runner, error) {
	if config.ENI.ServerIP == "" || config.SRD.ServerIP == "" {
		return nil, fmt.Errorf("both eni and srd endpoints must be configured")
	}

	outputDir := config.OutputDirectory
	if outputDir == "" {
		outputDir = fmt.Sprintf("sockperf_results_%s", time.Now().Format("20060102_150405"))
	}

	for _, dir := range []string{outputDir, filepath.Join(outputDir, "eni"), filepath.Join(outputDir, "srd")} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}

	return &Runner{
		config:    config,
		outputDir: outputDir,
	}, nil
}

// OutputDir returns the directory run logs and reports are written to.
func (r *Runner) OutputDir() string {
	return r.outputDir
}

// CheckServer verifies a sockperf server is reachable by running a one-second
// ping-pong probe, retrying with a delay to ride out server startup.
func (r *Runner) CheckServer(ctx context.Context, ep types.Endpoint) error {
	logger.Infof("Checking sockperf server at %s:%d (%s)...", ep.ServerIP, ep.ServerPort, ep.Name)

	err := retry.Do(
		func() error {
			probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()

			cmd := exec.CommandContext(probeCtx, sockperfBinary, "ping-pong",
				"-i", ep.ServerIP,
				"-p", strconv.Itoa(ep.ServerPort),
				"--time", "1",
			)
			if out, err := cmd.CombinedOutput(); err != nil {
				return fmt.Errorf("probe failed: %w (output: %s)", err, string(out))
			}
			return nil
		},
		retry.Attempts(3),
		retry.Delay(2*time.Second),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Warnf("sockperf server %s not responding (attempt %d): %v", ep.Name, n+1, err)
		}),
	)
	if err != nil {
		return fmt.Errorf("sockperf server at %s:%d (%s) is not responding: %w "+
			"(start it with: sockperf server -i %s -p %d)",
			ep.ServerIP, ep.ServerPort, ep.Name, err, ep.ServerIP, ep.ServerPort)
	}

	logger.Infof("sockperf server at %s:%d (%s) is running", ep.ServerIP, ep.ServerPort, ep.Name)
	return nil
}

// buildArgs assembles the sockperf ping-pong invocation for one endpoint.
func buildArgs(ep types.Endpoint, config types.BenchConfig) []string {
	return []string{
		"ping-pong",
		"-i", ep.ServerIP,
		"-p", strconv.Itoa(ep.ServerPort),
		"--client_ip", ep.ClientIP,
		"--client_port", strconv.Itoa(ep.ClientPort),
		"--time", strconv.Itoa(config.DurationSeconds),
		"--msg-size", strconv.Itoa(config.MessageSize),
		"--mps", config.MessagesPerSec,
		"--pre-warmup-wait", strconv.Itoa(config.PreWarmupWaitSeconds),
	}
}

// metadataHeader is prepended to run logs so a log file is self-describing.
func metadataHeader(ep types.Endpoint, iteration, repeat int, ts time.Time) string {
	return fmt.Sprintf("# 5-Tuple: %s\n"+
		"# Test type: %s\n"+
		"# Test mode: latency\n"+
		"# Iteration: %d, Repeat: %d\n"+
		"# Timestamp: %s\n"+
		"#----------------------------------------------------\n",
		ep.FiveTuple("UDP"), ep.Name, iteration, repeat, ts.Format("2006-01-02 15:04:05"))
}

// runTest runs one sockperf latency test and writes its output, prefixed with
// a metadata header, to outputFile.
func (r *Runner) runTest(ctx context.Context, ep types.Endpoint, iteration, repeat int, outputFile string) error {
	logger.WithFields(logrus.Fields{
		"endpoint":  ep.Name,
		"tuple":     ep.FiveTuple("UDP"),
		"iteration": iteration,
		"repeat":    repeat,
	}).Info("Running latency test")

	cmd := exec.CommandContext(ctx, sockperfBinary, buildArgs(ep, r.config)...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		// Keep the raw output for diagnosis even when the run failed.
		_ = os.WriteFile(outputFile, output, 0644)
		return fmt.Errorf("sockperf latency test failed for %s: %w", ep.Name, err)
	}

	content := metadataHeader(ep, iteration, repeat, time.Now()) + string(output)
	if err := os.WriteFile(outputFile, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outputFile, err)
	}

	return nil
}

// Run executes the full benchmark matrix: for every iteration and repeat, the
// ENI and SRD tests run concurrently, their logs are parsed, and CSV rows plus
// a comparison table are emitted. Returns the collected results.
func (r *Runner) Run(ctx context.Context) (*report.Results, error) {
	if err := r.CheckServer(ctx, r.config.ENI); err != nil {
		return nil, err
	}
	if err := r.CheckServer(ctx, r.config.SRD); err != nil {
		return nil, err
	}

	results := report.NewResults(r.outputDir, r.config)
	started := time.Now()
	logger.Infof("Benchmark started at %s", started.Format("2006-01-02 15:04:05"))

	for i := 0; i < r.config.Iterations; i++ {
		for j := 0; j < r.config.Repeats; j++ {
			logger.Infof("Starting iteration %d/%d, repeat %d/%d",
				i+1, r.config.Iterations, j+1, r.config.Repeats)

			eniLog := filepath.Join(r.outputDir, "eni", fmt.Sprintf("iteration_%d_repeat_%d_udp_latency.log", i, j))
			srdLog := filepath.Join(r.outputDir, "srd", fmt.Sprintf("iteration_%d_repeat_%d_udp_latency.log", i, j))

			var wg sync.WaitGroup
			var eniErr, srdErr error
			wg.Add(2)
			go func() {
				defer wg.Done()
				eniErr = r.runTest(ctx, r.config.ENI, i, j, eniLog)
			}()
			go func() {
				defer wg.Done()
				srdErr = r.runTest(ctx, r.config.SRD, i, j, srdLog)
			}()
			wg.Wait()

			if eniErr != nil {
				return nil, eniErr
			}
			if srdErr != nil {
				return nil, srdErr
			}

			eniRun, err := r.collect(r.config.ENI, eniLog, i, j)
			if err != nil {
				return nil, err
			}
			srdRun, err := r.collect(r.config.SRD, srdLog, i, j)
			if err != nil {
				return nil, err
			}

			results.Add(eniRun, srdRun)
			report.PrintComparison(os.Stdout, eniRun, srdRun)

			if j < r.config.Repeats-1 {
				logger.Infof("Waiting %s before next repeat...", r.config.RepeatDelay)
				if err := sleepCtx(ctx, r.config.RepeatDelay); err != nil {
					return nil, err
				}
			}
		}

		if i < r.config.Iterations-1 {
			logger.Infof("Waiting %s before next iteration...", r.config.IterationDelay)
			if err := sleepCtx(ctx, r.config.IterationDelay); err != nil {
				return nil, err
			}
		}
	}

	ended := time.Now()
	logger.Infof("Benchmark ended at %s", ended.Format("2006-01-02 15:04:05"))

	if err := results.Write(started, ended); err != nil {
		return nil, fmt.Errorf("failed to write reports: %w", err)
	}

	logger.Infof("Results saved in %s", r.outputDir)
	return results, nil
}

// collect parses one run log into a report row.
func (r *Runner) collect(ep types.Endpoint, logFile string, iteration, repeat int) (report.RunResult, error) {
	data, err := os.ReadFile(logFile)
	if err != nil {
		return report.RunResult{}, fmt.Errorf("failed to read run log %s: %w", logFile, err)
	}

	return report.RunResult{
		Endpoint:  ep,
		Protocol:  "UDP",
		MPS:       r.config.MessagesPerSec,
		Iteration: iteration,
		Repeat:    repeat,
		Timestamp: time.Now(),
		Fields:    sockperf.ParseReport(string(data)),
	}, nil
}

// sleepCtx sleeps for d unless the context is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
