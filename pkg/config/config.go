// Package config provides YAML and environment configuration for tsfold.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/Sumatoshi-tech/tsfold/pkg/alg/mdl"
	"github.com/Sumatoshi-tech/tsfold/pkg/alg/treecut"
	"github.com/Sumatoshi-tech/tsfold/pkg/fold"
	"github.com/Sumatoshi-tech/tsfold/pkg/observability"
	"github.com/Sumatoshi-tech/tsfold/pkg/render"
	"github.com/Sumatoshi-tech/tsfold/pkg/series"
)

// Sentinel validation errors.
var (
	ErrInvalidMethod    = errors.New("invalid model method")
	ErrInvalidDirection = errors.New("invalid model direction")
	ErrInvalidSelector  = errors.New("invalid cut selector")
	ErrInvalidMaxDepth  = errors.New("cut max depth must be -1 or non-negative")
	ErrInvalidMaxLeaves = errors.New("exhaustive max leaves must be within [0, 20]")
	ErrInvalidIntervals = errors.New("invalid intervals mode")
	ErrInvalidChunkSize = errors.New("chunk size must be at least 2")
	ErrInvalidFormat    = errors.New("invalid output format")
	ErrInvalidTheme     = errors.New("invalid output theme")
	ErrInvalidPort      = errors.New("invalid server port")
	ErrInvalidRateLimit = errors.New("server rate limit and burst must be positive")
	ErrInvalidRatio     = errors.New("sample ratio must be within [0, 1]")
)

const maxPort = 65535

// Config holds all tsfold configuration.
type Config struct {
	Model         ModelConfig         `mapstructure:"model"`
	Cut           CutConfig           `mapstructure:"cut"`
	Intervals     IntervalsConfig     `mapstructure:"intervals"`
	Input         InputConfig         `mapstructure:"input"`
	Influx        InfluxConfig        `mapstructure:"influx"`
	Output        OutputConfig        `mapstructure:"output"`
	Server        ServerConfig        `mapstructure:"server"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// ModelConfig selects the cost model.
type ModelConfig struct {
	Method    string `mapstructure:"method"`
	Direction string `mapstructure:"direction"`
}

// CutConfig selects the tree cut strategy.
type CutConfig struct {
	Selector string `mapstructure:"selector"`
	// MaxDepth bounds bottom-up selection; -1 means unbounded.
	MaxDepth            int `mapstructure:"max_depth"`
	ExhaustiveMaxLeaves int `mapstructure:"exhaustive_max_leaves"`
}

// IntervalsConfig selects how elementary intervals are built.
type IntervalsConfig struct {
	Mode      string `mapstructure:"mode"`
	ChunkSize int    `mapstructure:"chunk_size"`
}

// InputConfig describes tabular input.
type InputConfig struct {
	TimeColumn   string   `mapstructure:"time_column"`
	ValueColumns []string `mapstructure:"value_columns"`
	DateFrom     string   `mapstructure:"date_from"`
	DateTo       string   `mapstructure:"date_to"`
	DateLayout   string   `mapstructure:"date_layout"`
}

// InfluxConfig describes an InfluxDB 2 source.
type InfluxConfig struct {
	URL         string `mapstructure:"url"`
	Token       string `mapstructure:"token"`
	Org         string `mapstructure:"org"`
	Bucket      string `mapstructure:"bucket"`
	Measurement string `mapstructure:"measurement"`
	Field       string `mapstructure:"field"`
	// Range is the Flux range start, e.g. -30d.
	Range string `mapstructure:"range"`
	Stop  string `mapstructure:"stop"`
}

// Enabled reports whether an InfluxDB source is configured.
func (c InfluxConfig) Enabled() bool {
	return c.URL != ""
}

// OutputConfig controls where and how results are written.
type OutputConfig struct {
	Dir    string `mapstructure:"dir"`
	Format string `mapstructure:"format"`
	Theme  string `mapstructure:"theme"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host          string        `mapstructure:"host"`
	Port          int           `mapstructure:"port"`
	RateLimit     float64       `mapstructure:"rate_limit"`
	Burst         int           `mapstructure:"burst"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	MaxBodyBytes  int64         `mapstructure:"max_body_bytes"`
	ShutdownGrace time.Duration `mapstructure:"shutdown_grace"`
}

// Addr returns host:port.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ObservabilityConfig holds logging and telemetry settings.
type ObservabilityConfig struct {
	LogLevel     string  `mapstructure:"log_level"`
	LogJSON      bool    `mapstructure:"log_json"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	OTLPHeaders  string  `mapstructure:"otlp_headers"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
	Environment  string  `mapstructure:"environment"`
	DebugTrace   bool    `mapstructure:"debug_trace"`
}

// Validate checks every section and returns the first violation.
func (c *Config) Validate() error {
	direction, err := mdl.ParseDirection(c.Model.Direction)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDirection, err)
	}

	_, err = mdl.ParseMethod(c.Model.Method, direction)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMethod, err)
	}

	err = c.validateCut()
	if err != nil {
		return err
	}

	switch c.Intervals.Mode {
	case fold.IntervalsPairs:
	case fold.IntervalsChunk:
		if c.Intervals.ChunkSize < 2 {
			return fmt.Errorf("%w: %d", ErrInvalidChunkSize, c.Intervals.ChunkSize)
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidIntervals, c.Intervals.Mode)
	}

	_, err = render.ParseFormat(c.Output.Format)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}

	_, err = render.ParseTheme(c.Output.Theme)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTheme, err)
	}

	return c.validateServer()
}

func (c *Config) validateCut() error {
	switch c.Cut.Selector {
	case fold.SelectorBottomUp, fold.SelectorExhaustive:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidSelector, c.Cut.Selector)
	}

	if c.Cut.MaxDepth < -1 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxDepth, c.Cut.MaxDepth)
	}

	if c.Cut.ExhaustiveMaxLeaves < 0 || c.Cut.ExhaustiveMaxLeaves > treecut.MaxLeavesCeiling {
		return fmt.Errorf("%w: %d", ErrInvalidMaxLeaves, c.Cut.ExhaustiveMaxLeaves)
	}

	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port <= 0 || c.Server.Port > maxPort {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Server.Port)
	}

	if c.Server.RateLimit <= 0 || c.Server.Burst <= 0 {
		return fmt.Errorf("%w: rate %g burst %d", ErrInvalidRateLimit, c.Server.RateLimit, c.Server.Burst)
	}

	if c.Observability.SampleRatio < 0 || c.Observability.SampleRatio > 1 {
		return fmt.Errorf("%w: %g", ErrInvalidRatio, c.Observability.SampleRatio)
	}

	return nil
}

// FoldRequest returns the segmentation request described by the model,
// cut and intervals sections.
func (c *Config) FoldRequest() fold.Request {
	req := fold.Request{
		Method:    c.Model.Method,
		Direction: c.Model.Direction,
		Selector:  c.Cut.Selector,
		Intervals: c.Intervals.Mode,
		MaxLeaves: c.Cut.ExhaustiveMaxLeaves,
	}

	if c.Intervals.Mode == fold.IntervalsChunk {
		req.ChunkSize = c.Intervals.ChunkSize
	}

	if c.Cut.MaxDepth >= 0 {
		depth := c.Cut.MaxDepth
		req.MaxDepth = &depth
	}

	return req
}

// InfluxSource returns the series-level InfluxDB settings.
func (c *Config) InfluxSource() series.InfluxConfig {
	return series.InfluxConfig{
		URL:         c.Influx.URL,
		Token:       c.Influx.Token,
		Org:         c.Influx.Org,
		Bucket:      c.Influx.Bucket,
		Measurement: c.Influx.Measurement,
		Field:       c.Influx.Field,
		Start:       c.Influx.Range,
		Stop:        c.Influx.Stop,
		Layout:      c.Input.DateLayout,
	}
}

// Telemetry returns the observability settings for the given mode.
func (c *Config) Telemetry(mode observability.AppMode, version string) observability.Config {
	cfg := observability.DefaultConfig()
	cfg.Mode = mode
	cfg.ServiceVersion = version
	cfg.Environment = c.Observability.Environment
	cfg.OTLPEndpoint = c.Observability.OTLPEndpoint
	cfg.OTLPInsecure = c.Observability.OTLPInsecure
	cfg.OTLPHeaders = observability.ParseOTLPHeaders(c.Observability.OTLPHeaders)
	cfg.SampleRatio = c.Observability.SampleRatio
	cfg.DebugTrace = c.Observability.DebugTrace
	cfg.LogLevel = observability.ParseLevel(c.Observability.LogLevel)
	cfg.LogJSON = c.Observability.LogJSON

	return cfg
}
