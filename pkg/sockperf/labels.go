// Package sockperf extracts structured measurements from sockperf output.
// It covers the three stateless stages of the exporter pipeline: deriving
// series labels from a log file's name, reading a bounded tail window of the
// file, and matching measurement fields out of the window text.
package sockperf

import "regexp"

// Labels identifies one metric series. All three values are derived from the
// log file name; a file that does not yield all three is not processed at all,
// since a partial label set would merge unrelated series.
type Labels struct {
	TestType  string
	Protocol  string
	Interface string
}

// filenamePattern matches log names like sockperf_pingpong_udp_ena.log.
// The protocol token is anchored to tcp|udp so the split stays deterministic
// when the interface token itself contains underscores (ena_express).
var filenamePattern = regexp.MustCompile(`^sockperf_([A-Za-z0-9.-]+)_(tcp|udp)_([A-Za-z0-9_.-]+)\.log$`)

// ParseFilename derives series labels from a log file base name.
// Returns false if the name does not follow the sockperf_<test>_<protocol>_<interface>.log
// convention; such files must be skipped entirely.
func ParseFilename(base string) (Labels, bool) {
	m := filenamePattern.FindStringSubmatch(base)
	if m == nil {
		return Labels{}, false
	}
	return Labels{
		TestType:  m[1],
		Protocol:  m[2],
		Interface: m[3],
	}, true
}
