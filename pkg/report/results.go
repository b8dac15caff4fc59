// Package report renders benchmark results as CSV summaries, a colorized
// terminal comparison table, and plain-text summary files.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/supporttools/sockperf-exporter/pkg/sockperf"
	"github.com/supporttools/sockperf-exporter/pkg/types"
)

// RunResult is one sockperf run's extracted statistics.
type RunResult struct {
	Endpoint  types.Endpoint
	Protocol  string
	MPS       string
	Iteration int
	Repeat    int
	Timestamp time.Time
	Fields    sockperf.Sample
}

// Field returns one extracted value formatted for display, or "N/A" when the
// run log did not contain it.
func (r RunResult) Field(name string) string {
	v, ok := r.Fields[name]
	if !ok {
		return "N/A"
	}
	return fmt.Sprintf("%g", v)
}

// ResultPair holds the ENI and SRD runs of one iteration/repeat.
type ResultPair struct {
	ENI RunResult
	SRD RunResult
}

// Results accumulates run pairs and knows where to write the report files.
type Results struct {
	outputDir string
	config    types.BenchConfig
	Pairs     []ResultPair
}

// NewResults creates an empty result set writing into outputDir.
func NewResults(outputDir string, config types.BenchConfig) *Results {
	return &Results{
		outputDir: outputDir,
		config:    config,
	}
}

// Add records one completed iteration/repeat pair.
func (r *Results) Add(eni, srd RunResult) {
	r.Pairs = append(r.Pairs, ResultPair{ENI: eni, SRD: srd})
}

// Write emits all report files: per-side CSV summaries, the comparison CSV,
// the plain-text summary report, and the 5-tuple connection details.
func (r *Results) Write(started, ended time.Time) error {
	eniRuns := make([]RunResult, 0, len(r.Pairs))
	srdRuns := make([]RunResult, 0, len(r.Pairs))
	for _, pair := range r.Pairs {
		eniRuns = append(eniRuns, pair.ENI)
		srdRuns = append(srdRuns, pair.SRD)
	}

	if err := WriteSummaryCSV(filepath.Join(r.outputDir, "eni_summary.csv"), eniRuns); err != nil {
		return err
	}
	if err := WriteSummaryCSV(filepath.Join(r.outputDir, "srd_summary.csv"), srdRuns); err != nil {
		return err
	}
	if err := WriteComparisonCSV(filepath.Join(r.outputDir, "comparison.csv"), r.Pairs); err != nil {
		return err
	}
	if err := r.writeSummaryReport(started, ended); err != nil {
		return err
	}
	return r.writeFiveTupleSummary()
}

// writeSummaryReport writes the human-readable run summary.
func (r *Results) writeSummaryReport(started, ended time.Time) error {
	path := filepath.Join(r.outputDir, "summary_report.txt")

	content := fmt.Sprintf("ENA vs ENA Express Performance Summary\n"+
		"Test Start Time: %s\n"+
		"Test End Time: %s\n"+
		"Total Iterations: %d\n"+
		"Repeats per Iteration: %d\n"+
		"Total Tests: %d\n\n"+
		"Connection Details:\n"+
		"Regular ENI:\n"+
		"  Source IP: %s\n"+
		"  Destination IP: %s\n\n"+
		"ENA Express:\n"+
		"  Source IP: %s\n"+
		"  Destination IP: %s\n\n"+
		"Results saved in: %s\n",
		started.Format("2006-01-02 15:04:05"),
		ended.Format("2006-01-02 15:04:05"),
		r.config.Iterations,
		r.config.Repeats,
		r.config.Iterations*r.config.Repeats,
		r.config.ENI.ClientIP, r.config.ENI.ServerIP,
		r.config.SRD.ClientIP, r.config.SRD.ServerIP,
		r.outputDir)

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write summary report: %w", err)
	}
	return nil
}

// writeFiveTupleSummary writes the connection details for both paths.
func (r *Results) writeFiveTupleSummary() error {
	path := filepath.Join(r.outputDir, "5tuple_summary.txt")

	content := fmt.Sprintf("5-Tuple Connection Details\n\n"+
		"Regular ENI UDP:\n"+
		"  Source IP: %s\n"+
		"  Source Port: %d\n"+
		"  Destination IP: %s\n"+
		"  Destination Port: %d\n"+
		"  Protocol: UDP\n\n"+
		"ENA Express UDP:\n"+
		"  Source IP: %s\n"+
		"  Source Port: %d\n"+
		"  Destination IP: %s\n"+
		"  Destination Port: %d\n"+
		"  Protocol: UDP\n\n"+
		"Note: Each test uses fixed source ports\n",
		r.config.ENI.ClientIP, r.config.ENI.ClientPort,
		r.config.ENI.ServerIP, r.config.ENI.ServerPort,
		r.config.SRD.ClientIP, r.config.SRD.ClientPort,
		r.config.SRD.ServerIP, r.config.SRD.ServerPort)

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write 5-tuple summary: %w", err)
	}
	return nil
}
