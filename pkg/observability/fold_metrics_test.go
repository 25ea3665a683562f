package observability_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Sumatoshi-tech/tsfold/pkg/observability"
)

func setupFoldMeter(t *testing.T) (*observability.FoldMetrics, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	fm, err := observability.NewFoldMetrics(mp.Meter("test"))
	require.NoError(t, err)

	return fm, reader
}

func sumInt64(t *testing.T, m *metricdata.Metrics) int64 {
	t.Helper()

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)

	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}

	return total
}

func TestFoldMetrics_RecordRun(t *testing.T) {
	t.Parallel()

	fm, reader := setupFoldMeter(t)
	ctx := context.Background()

	fm.RecordRun(ctx, observability.FoldStats{
		Method: "logistic", Selector: "bottomup",
		Points: 10, Merges: 8, Folds: 9, Duration: 3 * time.Millisecond,
	})
	fm.RecordRun(ctx, observability.FoldStats{Method: "entropy", Selector: "exhaustive", Failed: true})

	rm := collectMetrics(t, reader)

	runs := findMetric(rm, "tsfold.fold.runs.total")
	require.NotNil(t, runs)
	assert.Equal(t, int64(2), sumInt64(t, runs))

	points := findMetric(rm, "tsfold.fold.points.total")
	require.NotNil(t, points)
	assert.Equal(t, int64(10), sumInt64(t, points))

	merges := findMetric(rm, "tsfold.fold.merges.total")
	require.NotNil(t, merges)
	assert.Equal(t, int64(8), sumInt64(t, merges))

	require.NotNil(t, findMetric(rm, "tsfold.fold.intervals"))
	require.NotNil(t, findMetric(rm, "tsfold.fold.duration.seconds"))
}

func TestFoldMetrics_NilReceiver(t *testing.T) {
	t.Parallel()

	var fm *observability.FoldMetrics

	assert.NotPanics(t, func() {
		fm.RecordRun(context.Background(), observability.FoldStats{Folds: 1})
	})
}
