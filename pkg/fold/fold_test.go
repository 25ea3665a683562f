package fold_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Sumatoshi-tech/tsfold/pkg/alg/mdl"
	"github.com/Sumatoshi-tech/tsfold/pkg/fold"
	"github.com/Sumatoshi-tech/tsfold/pkg/observability"
	"github.com/Sumatoshi-tech/tsfold/pkg/series"
)

const lengthDelta = 1e-6

var (
	sampleSeries   = series.Series{Name: "sample", Values: []float64{17, 37, 23, 20, 54, 14, 31, 27, 71, 3}}
	monotoneSeries = series.Series{
		Name:   "monotone",
		Labels: []string{"d1", "d2", "d3", "d4", "d5", "d6", "d7", "d8"},
		Values: []float64{1, 2, 3, 4, 5, 6, 7, 8},
	}
)

func TestRun_SampleSeries(t *testing.T) {
	t.Parallel()

	res, err := fold.NewSegmenter().Run(context.Background(), sampleSeries, fold.Request{})
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, "sample", res.Series)
	assert.Equal(t, mdl.MethodLogistic, res.Method)
	assert.Equal(t, "rising", res.Direction)
	assert.Equal(t, 10, res.Points)
	assert.Equal(t, 9, res.Leaves)
	assert.Equal(t, 8, res.Merges)
	assert.Len(t, res.Folds, 9)
	assert.InDelta(t, 0.43458712879284506, res.TotalLength, lengthDelta)
	assert.InDelta(t, 14.948675595465103, res.RootLength, lengthDelta)

	last := res.Folds[8]
	assert.Equal(t, "8", last.Start)
	assert.Equal(t, "9", last.End)
	assert.Equal(t, []float64{71, 3}, last.Values)
}

func TestRun_EntropyFallingCollapsesMonotone(t *testing.T) {
	t.Parallel()

	req := fold.Request{Method: mdl.MethodEntropy, Direction: "falling"}

	for _, selector := range []string{fold.SelectorBottomUp, fold.SelectorExhaustive} {
		req.Selector = selector

		res, err := fold.NewSegmenter().Run(context.Background(), monotoneSeries, req)
		require.NoError(t, err)
		require.Len(t, res.Folds, 4, selector)

		first := res.Folds[0]
		assert.Equal(t, "d1", first.Start)
		assert.Equal(t, "d3", first.End)
		assert.Equal(t, 0, first.FirstPoint)
		assert.Equal(t, 2, first.LastPoint)
		assert.Equal(t, []float64{1, 2, 3}, first.Values)

		tail := res.Folds[3]
		assert.Equal(t, 6, tail.FirstLeaf)
		assert.Equal(t, 6, tail.LastLeaf)
		assert.Equal(t, "d7", tail.Start)
		assert.Equal(t, "d8", tail.End)
		assert.InDelta(t, 6.861759170476666, res.TotalLength, lengthDelta)
	}
}

func TestRun_MaxDepthZeroKeepsRoot(t *testing.T) {
	t.Parallel()

	depth := 0

	res, err := fold.NewSegmenter().Run(context.Background(), sampleSeries, fold.Request{MaxDepth: &depth})
	require.NoError(t, err)

	require.Len(t, res.Folds, 1)
	assert.Equal(t, sampleSeries.Values, res.Folds[0].Values)
	assert.InDelta(t, res.RootLength, res.TotalLength, lengthDelta)
}

func TestRun_Chunks(t *testing.T) {
	t.Parallel()

	res, err := fold.NewSegmenter().Run(context.Background(), monotoneSeries,
		fold.Request{Intervals: fold.IntervalsChunk, ChunkSize: 4})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Leaves)
	require.NotEmpty(t, res.Folds)
	assert.Equal(t, 0, res.Folds[0].FirstPoint)
	assert.Equal(t, 7, res.Folds[len(res.Folds)-1].LastPoint)

	for i := 1; i < len(res.Folds); i++ {
		assert.Equal(t, res.Folds[i-1].LastPoint, res.Folds[i].FirstPoint)
	}
}

func TestRun_Errors(t *testing.T) {
	t.Parallel()

	seg := fold.NewSegmenter()

	_, err := seg.Run(context.Background(), sampleSeries, fold.Request{Method: "cosine"})
	require.ErrorIs(t, err, fold.ErrInvalidRequest)

	_, err = seg.Run(context.Background(), series.Series{Values: []float64{1}}, fold.Request{})
	require.ErrorIs(t, err, series.ErrTooFewPoints)
}

func TestRun_ExhaustiveHonoursCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fold.NewSegmenter().Run(ctx, sampleSeries, fold.Request{Selector: fold.SelectorExhaustive})
	require.ErrorIs(t, err, context.Canceled)
}

func TestRun_RecordsSpans(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	t.Cleanup(func() { require.NoError(t, tp.Shutdown(context.Background())) })

	seg := fold.NewSegmenter(fold.WithTracer(tp.Tracer("test")))

	_, err := seg.Run(context.Background(), sampleSeries, fold.Request{})
	require.NoError(t, err)

	names := make([]string, 0, 3)
	for _, span := range exporter.GetSpans() {
		names = append(names, span.Name)
	}

	assert.ElementsMatch(t, []string{"fold.run", "fold.build", "fold.select"}, names)
}

func TestRun_RecordsMetricsAndLogs(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	fm, err := observability.NewFoldMetrics(mp.Meter("test"))
	require.NoError(t, err)

	var logs bytes.Buffer

	cfg := observability.DefaultConfig()
	cfg.LogJSON = true

	seg := fold.NewSegmenter(fold.WithMetrics(fm), fold.WithLogger(observability.NewLogger(&logs, cfg)))

	res, err := seg.Run(context.Background(), sampleSeries, fold.Request{})
	require.NoError(t, err)

	var record map[string]any
	require.NoError(t, json.Unmarshal(logs.Bytes(), &record))
	assert.Equal(t, res.RunID, record["run_id"])
	assert.Equal(t, "series folded", record["msg"])

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var names []string
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names = append(names, m.Name)
		}
	}

	assert.Contains(t, names, "tsfold.fold.runs.total")
	assert.Contains(t, names, "tsfold.fold.merges.total")
}

func TestResult_JSON(t *testing.T) {
	t.Parallel()

	res, err := fold.NewSegmenter().Run(context.Background(), monotoneSeries, fold.Request{})
	require.NoError(t, err)

	raw, err := json.Marshal(res)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, "monotone", decoded["series"])
	assert.NotContains(t, decoded, "Tree")
	assert.Len(t, decoded["folds"], len(res.Folds))
}
