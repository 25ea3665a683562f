package observability

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// NewResource exposes newResource to external tests.
func NewResource(cfg Config) (*resource.Resource, error) {
	return newResource(context.Background(), cfg)
}

// DropLogger exposes dropLogger to external tests.
func DropLogger(cfg Config, w io.Writer) *slog.Logger {
	return dropLogger(cfg, w)
}

// SamplerNames lists the accepted OTEL_TRACES_SAMPLER values.
func SamplerNames() []string {
	names := make([]string, 0, len(envSamplers))
	for name := range envSamplers {
		names = append(names, name)
	}

	return names
}

// RootSampled reports whether a root span is sampled under cfg with env as
// the process environment.
func RootSampled(cfg Config, env map[string]string) bool {
	sampler := selectSampler(cfg, func(key string) string { return env[key] })

	tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sampler))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	_, span := tp.Tracer("sampler").Start(context.Background(), "root")
	defer span.End()

	return span.SpanContext().IsSampled()
}
