package sockperf

import (
	"math"
	"regexp"
	"strconv"
)

// Metric field names. These double as the Prometheus metric names (under the
// configured namespace) and as Sample keys.
const (
	FieldLatencyAvg      = "latency_avg_usec"
	FieldLatencyP50      = "latency_p50_usec"
	FieldLatencyP99      = "latency_p99_usec"
	FieldLatencyP999     = "latency_p999_usec"
	FieldThroughput      = "throughput_mbps"
	FieldPacketsSent     = "packets_sent_total"
	FieldPacketsReceived = "packets_received_total"
)

// Sample maps field names to values extracted by one parse pass. It is
// ephemeral: unmatched fields are simply absent, and a Sample never outlives
// the state update that consumes it.
type Sample map[string]float64

// FieldDef declares how one field is extracted from a text window. Candidate
// patterns are tried in order and the first match wins; later candidates exist
// to tolerate format variations across sockperf versions. The value is taken
// from the pattern's first capture group.
type FieldDef struct {
	Name     string
	Patterns []*regexp.Regexp

	// Convert, when set, maps the captured value into the field's unit.
	Convert func(float64) float64
}

// PercentileTarget maps a field name to the percentile it is extracted from.
type PercentileTarget struct {
	Name       string
	Percentile float64
}

// PercentileTolerance absorbs formatting differences in reported percentile
// labels ("99.0", "99.00", "99.000" all map to the p99 target).
const PercentileTolerance = 0.1

// percentilePattern matches sockperf percentile lines in all observed shapes:
// "sockperf: percentile 99.000 = 36.542 usec" and "---> percentile 99.000 = 36.542".
var percentilePattern = regexp.MustCompile(`percentile\s+([0-9]+\.?[0-9]*)\s*=\s*([0-9]+\.?[0-9]*)`)

// MetricFields is the extraction table for the exported metrics, percentiles
// excepted (see MetricPercentiles).
var MetricFields = []FieldDef{
	{
		Name: FieldLatencyAvg,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`sockperf: \w+ summary: Latency ([0-9]+\.[0-9]+) usec`),
			regexp.MustCompile(`avg-latency=([0-9]+\.?[0-9]*)`),
		},
	},
	{
		Name: FieldThroughput,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`sockperf: throughput summary: ([0-9]+\.?[0-9]*) Mbps`),
			regexp.MustCompile(`Summary: BandWidth is ([0-9]+\.?[0-9]*) MBps`),
		},
		// The BandWidth fallback reports megabytes per second.
		Convert: func(v float64) float64 { return v * 8 },
	},
	{
		Name: FieldPacketsSent,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`sockperf: ([0-9]+) packets sent`),
			// The [Total Run] line repeats the same keys with warmup traffic
			// included; only the [Valid Duration] line is authoritative.
			regexp.MustCompile(`\[Valid Duration\][^\n]*SentMessages=([0-9]+)`),
		},
	},
	{
		Name: FieldPacketsReceived,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`packets sent, ([0-9]+) received`),
			regexp.MustCompile(`\[Valid Duration\][^\n]*ReceivedMessages=([0-9]+)`),
		},
	},
}

// MetricPercentiles are the percentile targets exported as gauges.
var MetricPercentiles = []PercentileTarget{
	{Name: FieldLatencyP50, Percentile: 50},
	{Name: FieldLatencyP99, Percentile: 99},
	{Name: FieldLatencyP999, Percentile: 99.9},
}

// Parse extracts all exported metric fields from a text window. Absent fields
// are not an error; the next change event is the natural retry.
func Parse(text string) Sample {
	sample := ParseFields(text, MetricFields)
	for name, value := range ParsePercentiles(text, MetricPercentiles) {
		sample[name] = value
	}
	return sample
}

// ParseFields applies an extraction table to a text window.
func ParseFields(text string, defs []FieldDef) Sample {
	sample := make(Sample)
	for _, def := range defs {
		for _, pattern := range def.Patterns {
			m := pattern.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			value, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				// Malformed number despite a pattern match: treat as a miss
				// and let a later candidate try.
				continue
			}
			if def.Convert != nil {
				value = def.Convert(value)
			}
			sample[def.Name] = value
			break
		}
	}
	return sample
}

// ParsePercentiles extracts percentile lines and assigns each target the value
// whose reported percentile label lies closest to the target, within
// PercentileTolerance. Closest-match assignment keeps neighboring percentiles
// (99.9 vs 99.99) from clobbering each other when both fall inside the
// tolerance band.
func ParsePercentiles(text string, targets []PercentileTarget) Sample {
	sample := make(Sample)
	best := make(map[string]float64) // target name -> best distance so far

	for _, m := range percentilePattern.FindAllStringSubmatch(text, -1) {
		reported, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		value, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}

		for _, target := range targets {
			distance := math.Abs(reported - target.Percentile)
			if distance >= PercentileTolerance {
				continue
			}
			if prev, ok := best[target.Name]; ok && prev <= distance {
				continue
			}
			best[target.Name] = distance
			sample[target.Name] = value
		}
	}

	return sample
}
