package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/supporttools/sockperf-exporter/pkg/sockperf"
)

// tableRow describes one comparison table line.
type tableRow struct {
	label string
	field string
	usec  bool // append the microsecond unit to values
}

// tableRows lists the comparison rows in print order: validity counters
// first, then the latency statistics, then percentiles from the tail down.
var tableRows = []tableRow{
	{"Valid Duration - RunTime", sockperf.FieldRuntime, false},
	{"Valid Duration - SentMessages", sockperf.FieldPacketsSent, false},
	{"Valid Duration - ReceivedMessages", sockperf.FieldPacketsReceived, false},
	{"# dropped messages", sockperf.FieldDropped, false},
	{"# duplicated messages", sockperf.FieldDuplicated, false},
	{"# out-of-order messages", sockperf.FieldOutOfOrder, false},
	{"avg-latency", sockperf.FieldLatencyAvg, true},
	{"std-dev", sockperf.FieldStdDev, false},
	{"MIN", sockperf.FieldLatencyMin, true},
	{"MAX", sockperf.FieldLatencyMax, true},
	{"P99.900", sockperf.FieldLatencyP999, true},
	{"P99.000", sockperf.FieldLatencyP99, true},
	{"P90.000", sockperf.FieldLatencyP90, true},
	{"P75.000", sockperf.FieldLatencyP75, true},
	{"P50.000", sockperf.FieldLatencyP50, true},
	{"P25.000", sockperf.FieldLatencyP25, true},
}

// Improvement computes the ENI-to-SRD improvement percentage for one field:
// (eni - srd) / eni * 100. Returns false when either value is absent or the
// ENI value is not positive.
func Improvement(eni, srd sockperf.Sample, field string) (float64, bool) {
	eniValue, ok := eni[field]
	if !ok || eniValue <= 0 {
		return 0, false
	}
	srdValue, ok := srd[field]
	if !ok {
		return 0, false
	}
	return (eniValue - srdValue) / eniValue * 100, true
}

// PrintComparison renders the ENI-vs-SRD table for one run pair. Improvements
// are colored green, regressions red, by column convention: positive means
// the SRD path was faster.
func PrintComparison(w io.Writer, eni, srd RunResult) {
	fmt.Fprintf(w, "\n%s Results:\n", eni.Protocol)
	fmt.Fprintf(w, "ENI 5-Tuple: %s\n", eni.Endpoint.FiveTuple(eni.Protocol))
	fmt.Fprintf(w, "SRD 5-Tuple: %s\n", srd.Endpoint.FiveTuple(srd.Protocol))

	header := color.New(color.Bold)
	header.Fprintf(w, "\n%-32s %-15s %-15s %-15s\n", "METRIC", "ENI", "SRD", "DIFFERENCE")
	fmt.Fprintln(w, strings.Repeat("-", 78))

	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	for _, row := range tableRows {
		eniDisplay := displayValue(eni, row)
		srdDisplay := displayValue(srd, row)

		improvement, ok := Improvement(eni.Fields, srd.Fields, row.field)
		diff := "N/A"
		if ok {
			diff = fmt.Sprintf("%.2f%%", improvement)
		}

		fmt.Fprintf(w, "%-32s %-15s %-15s ", row.label, eniDisplay, srdDisplay)
		switch {
		case !ok:
			fmt.Fprintln(w, diff)
		case improvement >= 0:
			green.Fprintln(w, diff)
		default:
			red.Fprintln(w, diff)
		}
	}

	fmt.Fprintln(w, strings.Repeat("-", 78))
}

// displayValue formats one cell, appending the unit where the row carries one.
func displayValue(run RunResult, row tableRow) string {
	value := run.Field(row.field)
	if row.usec && value != "N/A" {
		return value + " usec"
	}
	return value
}
