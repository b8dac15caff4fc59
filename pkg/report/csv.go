package report

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/supporttools/sockperf-exporter/pkg/sockperf"
)

// summaryHeader matches the original per-side summary layout.
var summaryHeader = []string{
	"Iteration", "Repeat", "Timestamp",
	"Source_IP", "Source_Port", "Dest_IP", "Dest_Port",
	"Protocol", "MPS",
	"Avg_Latency_usec", "Min_Latency_usec", "Max_Latency_usec",
	"Percentile_50th", "Percentile_99th", "Percentile_99.9th",
}

// comparisonHeader is the ENI-vs-SRD comparison layout.
var comparisonHeader = []string{
	"Iteration", "Repeat", "Timestamp", "Protocol",
	"ENI_5Tuple", "SRD_5Tuple",
	"ENI_Avg", "SRD_Avg",
	"ENI_p50", "SRD_p50",
	"ENI_p99", "SRD_p99",
	"ENI_Max", "SRD_Max",
	"Improvement_Avg_Percent", "Improvement_p50_Percent",
	"Improvement_p99_Percent", "Improvement_Max_Percent",
}

// WriteSummaryCSV writes one side's per-run summary rows.
func WriteSummaryCSV(path string, runs []RunResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(summaryHeader); err != nil {
		return fmt.Errorf("failed to write header to %s: %w", path, err)
	}

	for _, run := range runs {
		row := []string{
			fmt.Sprintf("%d", run.Iteration),
			fmt.Sprintf("%d", run.Repeat),
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Endpoint.ClientIP,
			fmt.Sprintf("%d", run.Endpoint.ClientPort),
			run.Endpoint.ServerIP,
			fmt.Sprintf("%d", run.Endpoint.ServerPort),
			run.Protocol,
			run.MPS,
			run.Field(sockperf.FieldLatencyAvg),
			run.Field(sockperf.FieldLatencyMin),
			run.Field(sockperf.FieldLatencyMax),
			run.Field(sockperf.FieldLatencyP50),
			run.Field(sockperf.FieldLatencyP99),
			run.Field(sockperf.FieldLatencyP999),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write row to %s: %w", path, err)
		}
	}

	w.Flush()
	return w.Error()
}

// WriteComparisonCSV writes per-pair comparison rows with improvement columns.
func WriteComparisonCSV(path string, pairs []ResultPair) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(comparisonHeader); err != nil {
		return fmt.Errorf("failed to write header to %s: %w", path, err)
	}

	for _, pair := range pairs {
		row := []string{
			fmt.Sprintf("%d", pair.ENI.Iteration),
			fmt.Sprintf("%d", pair.ENI.Repeat),
			pair.ENI.Timestamp.Format("2006-01-02 15:04:05"),
			pair.ENI.Protocol,
			pair.ENI.Endpoint.FiveTuple(pair.ENI.Protocol),
			pair.SRD.Endpoint.FiveTuple(pair.SRD.Protocol),
			pair.ENI.Field(sockperf.FieldLatencyAvg),
			pair.SRD.Field(sockperf.FieldLatencyAvg),
			pair.ENI.Field(sockperf.FieldLatencyP50),
			pair.SRD.Field(sockperf.FieldLatencyP50),
			pair.ENI.Field(sockperf.FieldLatencyP99),
			pair.SRD.Field(sockperf.FieldLatencyP99),
			pair.ENI.Field(sockperf.FieldLatencyMax),
			pair.SRD.Field(sockperf.FieldLatencyMax),
			improvementString(pair, sockperf.FieldLatencyAvg),
			improvementString(pair, sockperf.FieldLatencyP50),
			improvementString(pair, sockperf.FieldLatencyP99),
			improvementString(pair, sockperf.FieldLatencyMax),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write row to %s: %w", path, err)
		}
	}

	w.Flush()
	return w.Error()
}

// improvementString formats the ENI-to-SRD improvement for one field.
func improvementString(pair ResultPair, field string) string {
	improvement, ok := Improvement(pair.ENI.Fields, pair.SRD.Fields, field)
	if !ok {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", improvement)
}
