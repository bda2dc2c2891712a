package telemetry

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like "30s".
// A bare integer is read as seconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}

	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("invalid duration: %w", err)
	}
	*d = Duration(time.Duration(n) * time.Second)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// LoggingConfig controls the zerolog-based logger.
type LoggingConfig struct {
	// Level is one of trace, debug, info, warn, error, fatal.
	Level string `yaml:"level" validate:"omitempty,oneof=trace debug info warn error fatal"`

	// Format is "json" or "console".
	Format string `yaml:"format" validate:"omitempty,oneof=json console"`

	// Output is "stderr", "stdout", or a file path. The tool server speaks
	// its protocol on stdout, so stderr is the default.
	Output string `yaml:"output"`

	// EnableCaller adds file:line caller information to each event.
	EnableCaller bool `yaml:"enable_caller"`
}

// DefaultLoggingConfig returns the logging defaults.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:  "info",
		Format: "json",
		Output: "stderr",
	}
}

// MetricsConfig controls the Prometheus metrics endpoint.
type MetricsConfig struct {
	// Enabled turns metric collection and the HTTP endpoint on.
	Enabled bool `yaml:"enabled"`

	// ListenAddress is the address for the metrics HTTP server.
	ListenAddress string `yaml:"listen_address"`

	// Path is the HTTP path the metrics are served on.
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	Namespace string `yaml:"namespace"`
}

// DefaultMetricsConfig returns the metrics defaults.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:       false,
		ListenAddress: "127.0.0.1:9464",
		Path:          "/metrics",
		Namespace:     "accessbridge",
	}
}

// TracingConfig controls OpenTelemetry tracing.
type TracingConfig struct {
	// Enabled turns span generation on.
	Enabled bool `yaml:"enabled"`

	// Exporter is one of otlp, stdout, none.
	Exporter string `yaml:"exporter" validate:"omitempty,oneof=otlp stdout none"`

	// Endpoint is the OTLP gRPC collector endpoint.
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS on the OTLP connection.
	Insecure bool `yaml:"insecure"`

	// Headers are additional headers sent to the OTLP collector.
	Headers map[string]string `yaml:"headers"`

	// SamplingRate is the trace sampling ratio in [0,1].
	SamplingRate float64 `yaml:"sampling_rate" validate:"gte=0,lte=1"`

	// ExportTimeout bounds a single batch export.
	ExportTimeout Duration `yaml:"export_timeout"`
}

// DefaultTracingConfig returns the tracing defaults.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		Enabled:       false,
		Exporter:      "stdout",
		Endpoint:      "127.0.0.1:4317",
		Insecure:      true,
		SamplingRate:  1.0,
		ExportTimeout: Duration(30 * time.Second),
	}
}
