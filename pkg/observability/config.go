// Package observability wires OpenTelemetry tracing and metrics plus
// structured slog logging for every tsfold mode (CLI, MCP, server).
package observability

import (
	"log/slog"
	"time"
)

// AppMode identifies how the binary was launched.
type AppMode string

const (
	// ModeCLI is a one-shot command.
	ModeCLI AppMode = "cli"
	// ModeMCP is the MCP stdio server.
	ModeMCP AppMode = "mcp"
	// ModeServe is the HTTP server.
	ModeServe AppMode = "serve"
)

const (
	defaultServiceName        = "tsfold"
	defaultShutdownTimeoutSec = 5
)

// Config holds all observability configuration.
type Config struct {
	// ServiceName is the OTel resource service name.
	ServiceName string

	// ServiceVersion is the version of the running binary.
	ServiceVersion string

	// Environment is the deployment environment (e.g. "production", "dev").
	Environment string

	// Mode identifies how the binary was launched.
	Mode AppMode

	// OTLPEndpoint is the OTLP gRPC collector address (e.g. "localhost:4317").
	// Empty disables export; providers become no-op.
	OTLPEndpoint string

	// OTLPHeaders are additional gRPC metadata headers for the exporters.
	OTLPHeaders map[string]string

	// OTLPInsecure disables TLS for the OTLP connection.
	OTLPInsecure bool

	// DebugTrace forces full sampling and logs attributes dropped by the filter.
	DebugTrace bool

	// SampleRatio is the trace sampling ratio when DebugTrace is false.
	// Zero keeps every root span.
	SampleRatio float64

	// LogLevel controls the minimum slog severity.
	LogLevel slog.Level

	// LogJSON enables JSON log output.
	LogJSON bool

	// ShutdownTimeoutSec bounds the flush on shutdown.
	ShutdownTimeoutSec int
}

// DefaultConfig returns a Config for zero-config startup.
func DefaultConfig() Config {
	return Config{
		ServiceName:        defaultServiceName,
		Mode:               ModeCLI,
		LogLevel:           slog.LevelInfo,
		ShutdownTimeoutSec: defaultShutdownTimeoutSec,
	}
}

func (c Config) shutdownTimeout() time.Duration {
	if c.ShutdownTimeoutSec <= 0 {
		return defaultShutdownTimeoutSec * time.Second
	}

	return time.Duration(c.ShutdownTimeoutSec) * time.Second
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(name string) slog.Level {
	var level slog.Level

	err := level.UnmarshalText([]byte(name))
	if err != nil {
		return slog.LevelInfo
	}

	return level
}
