package telemetry

import "go.opentelemetry.io/otel/attribute"

// DefaultServiceName names the service when the configuration leaves it empty.
const DefaultServiceName = "lakecleaner"

// Config holds OpenTelemetry configuration
type Config struct {
	Enabled bool

	// ServiceName is the name of the service reported to the trace backend
	ServiceName    string
	ServiceVersion string

	// Endpoint is the OTLP gRPC endpoint (e.g., "localhost:4317")
	Endpoint string
	Insecure bool

	// SampleRate is the trace sampling rate (0.0 to 1.0)
	SampleRate float64

	Deployment Deployment
}

// Deployment describes how this cleaner instance is set up. It is reported
// as resource attributes on traces and as tags on profiles.
type Deployment struct {
	// StoreType is the configured storage backend (memory, local, s3, iceberg)
	StoreType string

	// Workers is the size of the shared deletion pool
	Workers int

	// MaxAttempts is the per-path retry budget
	MaxAttempts int
}

// Attributes returns the non-zero fields of d as resource attributes.
func (d Deployment) Attributes() []attribute.KeyValue {
	var attrs []attribute.KeyValue
	if d.StoreType != "" {
		attrs = append(attrs, StoreType(d.StoreType))
	}
	if d.Workers > 0 {
		attrs = append(attrs, attribute.Int(AttrPoolWorkers, d.Workers))
	}
	if d.MaxAttempts > 0 {
		attrs = append(attrs, attribute.Int(AttrMaxAttempts, d.MaxAttempts))
	}
	return attrs
}

// DefaultConfig returns a default configuration
func DefaultConfig() Config {
	return Config{
		Enabled:        false,
		ServiceName:    DefaultServiceName,
		ServiceVersion: "dev",
		Endpoint:       "localhost:4317",
		Insecure:       true,
		SampleRate:     1.0,
	}
}
