// Package types defines configuration types for the sockperf exporter.
package types

import (
	"fmt"
	"os"
	"regexp"
	"time"
)

// Package-level defaults
const (
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "json"
	DefaultLogOutput        = "stdout"
	DefaultExporterPort     = 9091
	DefaultExporterPath     = "/metrics"
	DefaultMetricNamespace  = "sockperf"
	DefaultWatchDirectory   = "/var/log/sockperf"
	DefaultTailWindowBytes  = 4096
	DefaultDebounceInterval = "500ms"
	DefaultTestDuration     = 30
	DefaultMessageSize      = 64
	DefaultMessagesPerSec   = "max"
	DefaultPreWarmupWait    = 3
	DefaultIterations       = 1
	DefaultRepeats          = 1
	DefaultRepeatDelay      = "10s"
	DefaultIterationDelay   = "30s"
)

// Package-level variables for validation
var (
	// Prometheus metric namespace validation regex
	metricNamespaceRegex = regexp.MustCompile(`^[a-zA-Z_:][a-zA-Z0-9_:]*$`)

	// Valid log levels
	validLogLevels = map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}

	// Valid log formats
	validLogFormats = map[string]bool{
		"json": true,
		"text": true,
	}

	// Valid log outputs
	validLogOutputs = map[string]bool{
		"stdout": true,
		"stderr": true,
		"file":   true,
	}
)

// ExporterConfig is the top-level configuration structure.
type ExporterConfig struct {
	// Settings contains global configuration
	Settings GlobalSettings `json:"settings" yaml:"settings"`

	// Exporter contains metrics endpoint configuration
	Exporter MetricsConfig `json:"exporter" yaml:"exporter"`

	// Watch contains log directory watch configuration
	Watch WatchConfig `json:"watch" yaml:"watch"`

	// Bench contains benchmark runner configuration (used by sockperf-bench)
	Bench BenchConfig `json:"bench,omitempty" yaml:"bench,omitempty"`
}

// GlobalSettings contains global configuration settings.
type GlobalSettings struct {
	// Logging configuration
	LogLevel  string `json:"logLevel,omitempty" yaml:"logLevel,omitempty"`
	LogFormat string `json:"logFormat,omitempty" yaml:"logFormat,omitempty"`
	LogOutput string `json:"logOutput,omitempty" yaml:"logOutput,omitempty"`
	LogFile   string `json:"logFile,omitempty" yaml:"logFile,omitempty"`
}

// MetricsConfig contains the Prometheus exposition endpoint configuration.
type MetricsConfig struct {
	// Port is the port the scrape endpoint listens on
	Port int `json:"port,omitempty" yaml:"port,omitempty"`

	// Path is the HTTP path of the scrape endpoint
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// Namespace is the metric name prefix
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`

	// Labels are constant labels attached to every metric
	Labels map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
}

// WatchConfig contains the log directory watch configuration.
type WatchConfig struct {
	// Directory is the sockperf log directory to watch (created if missing)
	Directory string `json:"directory,omitempty" yaml:"directory,omitempty"`

	// TailWindowBytes bounds how much of a file's tail is re-read per event
	TailWindowBytes int64 `json:"tailWindowBytes,omitempty" yaml:"tailWindowBytes,omitempty"`

	// DebounceIntervalString coalesces rapid successive writes to the same file
	DebounceIntervalString string `json:"debounceInterval,omitempty" yaml:"debounceInterval,omitempty"`

	// Parsed duration field (not in JSON/YAML)
	DebounceInterval time.Duration `json:"-" yaml:"-"`
}

// Endpoint identifies one sockperf server/client address pair.
type Endpoint struct {
	// Name identifies the path under test (e.g. "eni", "srd")
	Name string `json:"name" yaml:"name"`

	// ServerIP and ServerPort address the remote sockperf server
	ServerIP   string `json:"serverIP" yaml:"serverIP"`
	ServerPort int    `json:"serverPort" yaml:"serverPort"`

	// ClientIP and ClientPort pin the local side of the 5-tuple
	ClientIP   string `json:"clientIP" yaml:"clientIP"`
	ClientPort int    `json:"clientPort" yaml:"clientPort"`
}

// FiveTuple formats the endpoint as source->destination with protocol.
func (e Endpoint) FiveTuple(protocol string) string {
	return fmt.Sprintf("%s:%d->%s:%d/%s", e.ClientIP, e.ClientPort, e.ServerIP, e.ServerPort, protocol)
}

// BenchConfig contains benchmark runner configuration.
type BenchConfig struct {
	// ENI is the regular elastic-network-interface path
	ENI Endpoint `json:"eni" yaml:"eni"`

	// SRD is the ENA Express (scalable reliable datagram) path
	SRD Endpoint `json:"srd" yaml:"srd"`

	// Iterations is the number of test iterations
	Iterations int `json:"iterations,omitempty" yaml:"iterations,omitempty"`

	// Repeats is the number of repeats per iteration
	Repeats int `json:"repeats,omitempty" yaml:"repeats,omitempty"`

	// DurationSeconds is the per-test duration in seconds
	DurationSeconds int `json:"durationSeconds,omitempty" yaml:"durationSeconds,omitempty"`

	// MessageSize is the sockperf message size in bytes
	MessageSize int `json:"messageSize,omitempty" yaml:"messageSize,omitempty"`

	// MessagesPerSec is the sockperf --mps value ("max" or a number)
	MessagesPerSec string `json:"messagesPerSec,omitempty" yaml:"messagesPerSec,omitempty"`

	// PreWarmupWaitSeconds is the sockperf pre-warmup wait in seconds
	PreWarmupWaitSeconds int `json:"preWarmupWaitSeconds,omitempty" yaml:"preWarmupWaitSeconds,omitempty"`

	// OutputDirectory is where per-run logs and reports are written.
	// Defaults to sockperf_results_<timestamp> in the working directory.
	OutputDirectory string `json:"outputDirectory,omitempty" yaml:"outputDirectory,omitempty"`

	// Delay strings between repeats and iterations
	RepeatDelayString    string `json:"repeatDelay,omitempty" yaml:"repeatDelay,omitempty"`
	IterationDelayString string `json:"iterationDelay,omitempty" yaml:"iterationDelay,omitempty"`

	// Parsed duration fields (not in JSON/YAML)
	RepeatDelay    time.Duration `json:"-" yaml:"-"`
	IterationDelay time.Duration `json:"-" yaml:"-"`
}

// ApplyDefaults fills in zero-valued fields with package defaults and parses
// duration strings into their time.Duration counterparts.
func (c *ExporterConfig) ApplyDefaults() error {
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = DefaultLogLevel
	}
	if c.Settings.LogFormat == "" {
		c.Settings.LogFormat = DefaultLogFormat
	}
	if c.Settings.LogOutput == "" {
		c.Settings.LogOutput = DefaultLogOutput
	}

	if c.Exporter.Port == 0 {
		c.Exporter.Port = DefaultExporterPort
	}
	if c.Exporter.Path == "" {
		c.Exporter.Path = DefaultExporterPath
	}
	if c.Exporter.Namespace == "" {
		c.Exporter.Namespace = DefaultMetricNamespace
	}

	if c.Watch.Directory == "" {
		c.Watch.Directory = DefaultWatchDirectory
	}
	if c.Watch.TailWindowBytes == 0 {
		c.Watch.TailWindowBytes = DefaultTailWindowBytes
	}
	if c.Watch.DebounceIntervalString == "" {
		c.Watch.DebounceIntervalString = DefaultDebounceInterval
	}
	debounce, err := time.ParseDuration(c.Watch.DebounceIntervalString)
	if err != nil {
		return fmt.Errorf("invalid debounceInterval %q: %w", c.Watch.DebounceIntervalString, err)
	}
	c.Watch.DebounceInterval = debounce

	if c.Bench.Iterations == 0 {
		c.Bench.Iterations = DefaultIterations
	}
	if c.Bench.Repeats == 0 {
		c.Bench.Repeats = DefaultRepeats
	}
	if c.Bench.DurationSeconds == 0 {
		c.Bench.DurationSeconds = DefaultTestDuration
	}
	if c.Bench.MessageSize == 0 {
		c.Bench.MessageSize = DefaultMessageSize
	}
	if c.Bench.MessagesPerSec == "" {
		c.Bench.MessagesPerSec = DefaultMessagesPerSec
	}
	if c.Bench.PreWarmupWaitSeconds == 0 {
		c.Bench.PreWarmupWaitSeconds = DefaultPreWarmupWait
	}
	if c.Bench.RepeatDelayString == "" {
		c.Bench.RepeatDelayString = DefaultRepeatDelay
	}
	if c.Bench.IterationDelayString == "" {
		c.Bench.IterationDelayString = DefaultIterationDelay
	}
	repeatDelay, err := time.ParseDuration(c.Bench.RepeatDelayString)
	if err != nil {
		return fmt.Errorf("invalid repeatDelay %q: %w", c.Bench.RepeatDelayString, err)
	}
	c.Bench.RepeatDelay = repeatDelay
	iterationDelay, err := time.ParseDuration(c.Bench.IterationDelayString)
	if err != nil {
		return fmt.Errorf("invalid iterationDelay %q: %w", c.Bench.IterationDelayString, err)
	}
	c.Bench.IterationDelay = iterationDelay

	return nil
}

// Validate checks the configuration for invalid values.
func (c *ExporterConfig) Validate() error {
	if !validLogLevels[c.Settings.LogLevel] {
		return fmt.Errorf("invalid log level %q", c.Settings.LogLevel)
	}
	if !validLogFormats[c.Settings.LogFormat] {
		return fmt.Errorf("invalid log format %q: must be json or text", c.Settings.LogFormat)
	}
	if !validLogOutputs[c.Settings.LogOutput] {
		return fmt.Errorf("invalid log output %q: must be stdout, stderr, or file", c.Settings.LogOutput)
	}
	if c.Settings.LogOutput == "file" && c.Settings.LogFile == "" {
		return fmt.Errorf("logFile must be set when logOutput is 'file'")
	}

	if c.Exporter.Port < 1 || c.Exporter.Port > 65535 {
		return fmt.Errorf("invalid exporter port: %d", c.Exporter.Port)
	}
	if c.Exporter.Path == "" || c.Exporter.Path[0] != '/' {
		return fmt.Errorf("exporter path must start with '/', got %q", c.Exporter.Path)
	}
	if !metricNamespaceRegex.MatchString(c.Exporter.Namespace) {
		return fmt.Errorf("invalid metric namespace %q", c.Exporter.Namespace)
	}

	if c.Watch.Directory == "" {
		return fmt.Errorf("watch directory cannot be empty")
	}
	if c.Watch.TailWindowBytes < 0 {
		return fmt.Errorf("tailWindowBytes must be positive, got %d", c.Watch.TailWindowBytes)
	}
	if c.Watch.DebounceInterval < 0 {
		return fmt.Errorf("debounceInterval must not be negative, got %v", c.Watch.DebounceInterval)
	}

	if c.Bench.Iterations < 1 {
		return fmt.Errorf("iterations must be at least 1, got %d", c.Bench.Iterations)
	}
	if c.Bench.Repeats < 1 {
		return fmt.Errorf("repeats must be at least 1, got %d", c.Bench.Repeats)
	}
	if c.Bench.DurationSeconds < 1 {
		return fmt.Errorf("durationSeconds must be at least 1, got %d", c.Bench.DurationSeconds)
	}

	return nil
}

// SubstituteEnvVars expands ${VAR} references in string map values that the
// raw-bytes expansion pass cannot reach (dynamic label maps).
func (c *ExporterConfig) SubstituteEnvVars() {
	for k, v := range c.Exporter.Labels {
		c.Exporter.Labels[k] = os.ExpandEnv(v)
	}
}
