package config

import "time"

// Model defaults.
const (
	DefaultMethod    = "logistic"
	DefaultDirection = "rising"
)

// Cut defaults.
const (
	DefaultSelector            = "bottomup"
	DefaultMaxDepth            = -1
	DefaultExhaustiveMaxLeaves = 16
)

// Interval defaults.
const (
	DefaultIntervalsMode = "pairs"
	DefaultChunkSize     = 2
)

// Input defaults.
const (
	DefaultTimeColumn = "date"
	DefaultDateLayout = "2006-01-02"
)

// InfluxDB defaults.
const (
	DefaultInfluxField = "_value"
	DefaultInfluxRange = "-30d"
)

// Output defaults.
const (
	DefaultOutputDir    = "output"
	DefaultOutputFormat = "text"
	DefaultOutputTheme  = "light"
)

// Server defaults.
const (
	DefaultServerHost    = "0.0.0.0"
	DefaultServerPort    = 8080
	DefaultRateLimit     = 10.0
	DefaultBurst         = 20
	DefaultReadTimeout   = 30 * time.Second
	DefaultWriteTimeout  = 30 * time.Second
	DefaultMaxBodyBytes  = 8 << 20 // 8 MiB.
	DefaultShutdownGrace = 10 * time.Second
)

// Observability defaults.
const (
	DefaultLogLevel = "info"
)
