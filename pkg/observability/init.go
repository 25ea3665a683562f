package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
)

const (
	instrumentationName = "tsfold"

	// AttrMode is the resource attribute naming the launch mode.
	AttrMode = "tsfold.mode"

	envTracesSampler    = "OTEL_TRACES_SAMPLER"
	envTracesSamplerArg = "OTEL_TRACES_SAMPLER_ARG"
)

// Providers holds the initialized observability providers.
type Providers struct {
	Tracer trace.Tracer
	Meter  metric.Meter
	Logger *slog.Logger

	// Shutdown flushes pending telemetry. Call it before exit.
	Shutdown func(ctx context.Context) error
}

// Init builds the stderr logger and, when cfg names an OTLP collector, the
// exporting tracer and meter providers, installed as the otel globals. Without
// a collector spans and instruments are no-op.
func Init(cfg Config) (Providers, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger := NewLogger(os.Stderr, cfg)

	if cfg.OTLPEndpoint == "" {
		return Providers{
			Tracer:   nooptrace.NewTracerProvider().Tracer(instrumentationName),
			Meter:    noopmetric.NewMeterProvider().Meter(instrumentationName),
			Logger:   logger,
			Shutdown: func(context.Context) error { return nil },
		}, nil
	}

	ctx := context.Background()

	res, err := newResource(ctx, cfg)
	if err != nil {
		return Providers{}, err
	}

	target := collector{endpoint: cfg.OTLPEndpoint, insecure: cfg.OTLPInsecure, headers: cfg.OTLPHeaders}

	var stack shutdownStack

	tp, err := target.tracerProvider(ctx, res, selectSampler(cfg, os.Getenv), dropLogger(cfg, os.Stderr))
	if err != nil {
		return Providers{}, err
	}

	stack = append(stack, tp.Shutdown)

	mp, err := target.meterProvider(ctx, res)
	if err != nil {
		return Providers{}, errors.Join(err, stack.run(ctx))
	}

	stack = append(stack, mp.Shutdown)

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)

	logger.Debug("telemetry export enabled", "endpoint", cfg.OTLPEndpoint, "debug_trace", cfg.DebugTrace)

	return Providers{
		Tracer:   tp.Tracer(instrumentationName),
		Meter:    mp.Meter(instrumentationName),
		Logger:   logger,
		Shutdown: stack.bounded(cfg.shutdownTimeout()),
	}, nil
}

// NewLogger returns a text or JSON logger on w wrapped in a TracingHandler.
func NewLogger(w io.Writer, cfg Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}

	var inner slog.Handler = slog.NewTextHandler(w, opts)
	if cfg.LogJSON {
		inner = slog.NewJSONHandler(w, opts)
	}

	return slog.New(NewTracingHandler(inner, cfg.ServiceName, cfg.Environment, cfg.Mode))
}

// dropLogger receives the attribute filter's warnings. It is nil unless
// tracing is being debugged.
func dropLogger(cfg Config, w io.Writer) *slog.Logger {
	if !cfg.DebugTrace {
		return nil
	}

	return NewLogger(w, Config{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Mode:        cfg.Mode,
		LogLevel:    slog.LevelWarn,
		LogJSON:     cfg.LogJSON,
	})
}

func newResource(ctx context.Context, cfg Config) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{semconv.ServiceName(cfg.ServiceName)}

	if cfg.ServiceVersion != "" {
		attrs = append(attrs, semconv.ServiceVersion(cfg.ServiceVersion))
	}

	if cfg.Environment != "" {
		attrs = append(attrs, semconv.DeploymentEnvironment(cfg.Environment))
	}

	if cfg.Mode != "" {
		attrs = append(attrs, attribute.String(AttrMode, string(cfg.Mode)))
	}

	res, err := resource.New(ctx, resource.WithAttributes(attrs...))
	if err != nil {
		return nil, fmt.Errorf("build otel resource: %w", err)
	}

	return res, nil
}

// collector is the OTLP gRPC endpoint both exporters talk to.
type collector struct {
	endpoint string
	insecure bool
	headers  map[string]string
}

func (c collector) tracerProvider(
	ctx context.Context, res *resource.Resource, sampler sdktrace.Sampler, drops *slog.Logger,
) (*sdktrace.TracerProvider, error) {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(c.endpoint)}
	if c.insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	if len(c.headers) > 0 {
		opts = append(opts, otlptracegrpc.WithHeaders(c.headers))
	}

	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create trace exporter for %s: %w", c.endpoint, err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(NewAttributeFilter(sdktrace.NewBatchSpanProcessor(exporter), drops)),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	), nil
}

func (c collector) meterProvider(ctx context.Context, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(c.endpoint)}
	if c.insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}

	if len(c.headers) > 0 {
		opts = append(opts, otlpmetricgrpc.WithHeaders(c.headers))
	}

	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create metric exporter for %s: %w", c.endpoint, err)
	}

	return sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
		sdkmetric.WithResource(res),
	), nil
}

// shutdownStack flushes providers in reverse creation order.
type shutdownStack []func(context.Context) error

func (s shutdownStack) run(ctx context.Context) error {
	errs := make([]error, 0, len(s))
	for i := len(s) - 1; i >= 0; i-- {
		errs = append(errs, s[i](ctx))
	}

	return errors.Join(errs...)
}

func (s shutdownStack) bounded(timeout time.Duration) func(context.Context) error {
	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		return s.run(ctx)
	}
}

// selectSampler picks the trace sampler. DebugTrace wins, then the standard
// OTEL_TRACES_SAMPLER variables read through getenv, then SampleRatio.
// Unknown sampler names fall back to parent-based always-on.
func selectSampler(cfg Config, getenv func(string) string) sdktrace.Sampler {
	if cfg.DebugTrace {
		return sdktrace.AlwaysSample()
	}

	if name := getenv(envTracesSampler); name != "" {
		build, ok := envSamplers[name]
		if !ok {
			return sdktrace.ParentBased(sdktrace.AlwaysSample())
		}

		return build(parseRatio(getenv(envTracesSamplerArg)))
	}

	if cfg.SampleRatio > 0 {
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))
	}

	return sdktrace.ParentBased(sdktrace.AlwaysSample())
}

// envSamplers maps OTEL_TRACES_SAMPLER values to samplers of the given ratio.
var envSamplers = map[string]func(ratio float64) sdktrace.Sampler{
	"always_on":    func(float64) sdktrace.Sampler { return sdktrace.AlwaysSample() },
	"always_off":   func(float64) sdktrace.Sampler { return sdktrace.NeverSample() },
	"traceidratio": sdktrace.TraceIDRatioBased,
	"parentbased_always_on": func(float64) sdktrace.Sampler {
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	},
	"parentbased_always_off": func(float64) sdktrace.Sampler {
		return sdktrace.ParentBased(sdktrace.NeverSample())
	},
	"parentbased_traceidratio": func(ratio float64) sdktrace.Sampler {
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	},
}

// parseRatio reads OTEL_TRACES_SAMPLER_ARG; anything unparsable or outside
// [0, 1] samples everything.
func parseRatio(s string) float64 {
	ratio, err := strconv.ParseFloat(s, 64)
	if err != nil || ratio < 0 || ratio > 1 {
		return 1
	}

	return ratio
}

// ParseOTLPHeaders parses "key=value,key=value" collector headers. Pairs
// without "=" or with an empty key are skipped; nil means no headers.
func ParseOTLPHeaders(raw string) map[string]string {
	var headers map[string]string

	for pair := range strings.SplitSeq(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)

		if !ok || key == "" {
			continue
		}

		if headers == nil {
			headers = make(map[string]string)
		}

		headers[key] = strings.TrimSpace(value)
	}

	return headers
}
