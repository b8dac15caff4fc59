package sockperf

import "regexp"

// Report-only field names. These extend the exported metric fields with the
// statistics the benchmark comparison report prints; they never become metric
// series.
const (
	FieldRuntime    = "runtime_sec"
	FieldLatencyMin = "latency_min_usec"
	FieldLatencyMax = "latency_max_usec"
	FieldDropped    = "dropped_messages"
	FieldDuplicated = "duplicated_messages"
	FieldOutOfOrder = "out_of_order_messages"
	FieldStdDev     = "latency_stddev_usec"
	FieldLatencyP25 = "latency_p25_usec"
	FieldLatencyP75 = "latency_p75_usec"
	FieldLatencyP90 = "latency_p90_usec"
)

// ReportFields is the extraction table for per-run report statistics.
var ReportFields = []FieldDef{
	{
		Name: FieldRuntime,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`\[Valid Duration\] RunTime=([0-9.]+) sec`),
		},
	},
	{
		Name: FieldLatencyMin,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`---> <MIN> observation =\s+([0-9.]+)`),
		},
	},
	{
		Name: FieldLatencyMax,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`---> <MAX> observation =\s+([0-9.]+)`),
		},
	},
	{
		Name: FieldDropped,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`# dropped messages = ([0-9]+)`),
		},
	},
	{
		Name: FieldDuplicated,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`# duplicated messages = ([0-9]+)`),
		},
	},
	{
		Name: FieldOutOfOrder,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`# out-of-order messages = ([0-9]+)`),
		},
	},
	{
		Name: FieldStdDev,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`std-dev=([0-9.]+)`),
		},
	},
}

// ReportPercentiles adds the percentile rows the report prints beyond the
// exported p50/p99/p99.9 gauges.
var ReportPercentiles = []PercentileTarget{
	{Name: FieldLatencyP25, Percentile: 25},
	{Name: FieldLatencyP75, Percentile: 75},
	{Name: FieldLatencyP90, Percentile: 90},
}

// ParseReport parses a full sockperf run log into the superset of fields the
// reports need: the exported metric fields plus the report-only statistics.
// Reports read the entire file rather than a tail window since a run log is
// small and complete by the time the report is generated.
func ParseReport(content string) Sample {
	sample := Parse(content)

	for name, value := range ParseFields(content, ReportFields) {
		sample[name] = value
	}
	for name, value := range ParsePercentiles(content, ReportPercentiles) {
		sample[name] = value
	}

	return sample
}
