package observability_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Sumatoshi-tech/tsfold/pkg/observability"
)

func TestInit_WithoutCollector(t *testing.T) {
	t.Parallel()

	providers, err := observability.Init(observability.DefaultConfig())
	require.NoError(t, err)

	_, span := providers.Tracer.Start(context.Background(), "fold.run")
	assert.False(t, span.IsRecording())
	span.End()

	fm, err := observability.NewFoldMetrics(providers.Meter)
	require.NoError(t, err)
	fm.RecordRun(context.Background(), observability.FoldStats{Method: "logistic", Points: 10})

	require.NoError(t, providers.Shutdown(context.Background()))
	require.NoError(t, providers.Shutdown(context.Background()))
}

func TestNewLogger_Formats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		json bool
		want []string
	}{
		{name: "text", want: []string{"service=tsfold", "mode=serve", "env=staging", `msg="series folded"`, "folds=9"}},
		{name: "json", json: true, want: []string{`"service":"tsfold"`, `"mode":"serve"`, `"env":"staging"`, `"folds":9`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer

			cfg := observability.DefaultConfig()
			cfg.Mode = observability.ModeServe
			cfg.Environment = "staging"
			cfg.LogJSON = tt.json

			logger := observability.NewLogger(&buf, cfg)
			logger.Debug("tree built", "merges", 8)
			logger.Info("series folded", "folds", 9)

			out := buf.String()
			assert.NotContains(t, out, "tree built")

			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestNewLogger_RunID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	cfg := observability.DefaultConfig()
	cfg.LogJSON = true

	ctx := observability.WithRunID(context.Background(), "0b8e5f0c")
	observability.NewLogger(&buf, cfg).InfoContext(ctx, "series folded")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "0b8e5f0c", record["run_id"])
	assert.Equal(t, "cli", record["mode"])
}

func TestDropLogger_OnlyWhenDebugging(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	cfg := observability.DefaultConfig()
	assert.Nil(t, observability.DropLogger(cfg, &buf))

	cfg.DebugTrace = true
	cfg.LogLevel = slog.LevelDebug

	drops := observability.DropLogger(cfg, &buf)
	require.NotNil(t, drops)

	drops.Info("not a warning")
	assert.Empty(t, buf.String())

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(observability.NewAttributeFilter(sdktrace.NewSimpleSpanProcessor(exporter), drops)),
	)

	t.Cleanup(func() { require.NoError(t, tp.Shutdown(context.Background())) })

	_, span := tp.Tracer("test").Start(context.Background(), "fold.run")
	span.SetAttributes(attribute.String("input.path", "/data/prices.csv"), attribute.Int("fold.points", 10))
	span.End()

	out := buf.String()
	assert.Contains(t, out, "input.path")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "service=tsfold")
	assert.NotContains(t, out, "fold.points")
}

func TestSelectSampler(t *testing.T) {
	t.Parallel()

	const (
		sampler = "OTEL_TRACES_SAMPLER"
		arg     = "OTEL_TRACES_SAMPLER_ARG"
		tiny    = 1e-12
	)

	tests := []struct {
		name    string
		env     map[string]string
		debug   bool
		ratio   float64
		sampled bool
	}{
		{name: "default", sampled: true},
		{name: "always on", env: map[string]string{sampler: "always_on"}, ratio: tiny, sampled: true},
		{name: "always off", env: map[string]string{sampler: "always_off"}},
		{name: "ratio zero", env: map[string]string{sampler: "traceidratio", arg: "0"}},
		{name: "ratio unparsable", env: map[string]string{sampler: "traceidratio", arg: "half"}, sampled: true},
		{name: "ratio out of range", env: map[string]string{sampler: "traceidratio", arg: "2"}, sampled: true},
		{name: "parent based off", env: map[string]string{sampler: "parentbased_always_off"}},
		{name: "parent based on", env: map[string]string{sampler: "parentbased_always_on"}, sampled: true},
		{name: "parent based ratio", env: map[string]string{sampler: "parentbased_traceidratio", arg: "0"}},
		{name: "unknown name", env: map[string]string{sampler: "jaeger_remote"}, sampled: true},
		{name: "debug beats env", env: map[string]string{sampler: "always_off"}, debug: true, sampled: true},
		{name: "config ratio", ratio: tiny},
		{name: "config ratio full", ratio: 1, sampled: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := observability.DefaultConfig()
			cfg.DebugTrace = tt.debug
			cfg.SampleRatio = tt.ratio

			assert.Equal(t, tt.sampled, observability.RootSampled(cfg, tt.env))
		})
	}
}

func TestSamplerNames(t *testing.T) {
	t.Parallel()

	assert.ElementsMatch(t, []string{
		"always_on", "always_off", "traceidratio",
		"parentbased_always_on", "parentbased_always_off", "parentbased_traceidratio",
	}, observability.SamplerNames())
}

func TestNewResource(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*observability.Config)
		want   map[string]string
		absent []string
	}{
		{
			name:   "defaults",
			mutate: func(c *observability.Config) { c.Mode = "" },
			want:   map[string]string{"service.name": "tsfold"},
			absent: []string{observability.AttrMode, "service.version"},
		},
		{
			name: "mcp release",
			mutate: func(c *observability.Config) {
				c.Mode = observability.ModeMCP
				c.ServiceVersion = "0.3.1"
				c.Environment = "prod"
			},
			want: map[string]string{
				"service.name":           "tsfold",
				"service.version":        "0.3.1",
				"deployment.environment": "prod",
				observability.AttrMode:   "mcp",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := observability.DefaultConfig()
			tt.mutate(&cfg)

			res, err := observability.NewResource(cfg)
			require.NoError(t, err)

			got := make(map[string]string)
			for _, kv := range res.Attributes() {
				got[string(kv.Key)] = kv.Value.Emit()
			}

			for key, value := range tt.want {
				assert.Equal(t, value, got[key], key)
			}

			for _, key := range tt.absent {
				assert.NotContains(t, got, key)
			}
		})
	}
}

func TestParseOTLPHeaders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want map[string]string
	}{
		{raw: "", want: nil},
		{raw: "authorization=Bearer abc", want: map[string]string{"authorization": "Bearer abc"}},
		{raw: " x-tenant = fold , x-env=prod ", want: map[string]string{"x-tenant": "fold", "x-env": "prod"}},
		{raw: "signature=a=b", want: map[string]string{"signature": "a=b"}},
		{raw: "broken,=orphan", want: nil},
		{raw: "broken,x-ok=1", want: map[string]string{"x-ok": "1"}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, observability.ParseOTLPHeaders(tt.raw), tt.raw)
	}
}
