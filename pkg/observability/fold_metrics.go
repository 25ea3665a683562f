package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricRunsTotal   = "tsfold.fold.runs.total"
	metricPointsTotal = "tsfold.fold.points.total"
	metricMergesTotal = "tsfold.fold.merges.total"
	metricFolds       = "tsfold.fold.intervals"
	metricRunDuration = "tsfold.fold.duration.seconds"

	attrMethod   = "method"
	attrSelector = "selector"
)

// foldBucketBoundaries groups output interval counts on a rough log scale.
var foldBucketBoundaries = []float64{1, 2, 5, 10, 20, 50, 100, 200, 500, 1000, 5000}

// FoldMetrics holds the instruments describing segmentation runs.
type FoldMetrics struct {
	runsTotal   metric.Int64Counter
	pointsTotal metric.Int64Counter
	mergesTotal metric.Int64Counter
	folds       metric.Int64Histogram
	runDuration metric.Float64Histogram
}

// FoldStats summarizes one finished run.
type FoldStats struct {
	Method   string
	Selector string
	Points   int
	Merges   int
	Folds    int
	Duration time.Duration
	Failed   bool
}

// NewFoldMetrics creates fold instruments from the given meter.
func NewFoldMetrics(mt metric.Meter) (*FoldMetrics, error) {
	runs, err := mt.Int64Counter(metricRunsTotal,
		metric.WithDescription("Segmentation runs by method and outcome"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRunsTotal, err)
	}

	points, err := mt.Int64Counter(metricPointsTotal,
		metric.WithDescription("Series points folded"),
		metric.WithUnit("{point}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricPointsTotal, err)
	}

	merges, err := mt.Int64Counter(metricMergesTotal,
		metric.WithDescription("Adjacent merges performed while building merge trees"),
		metric.WithUnit("{merge}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricMergesTotal, err)
	}

	folds, err := mt.Int64Histogram(metricFolds,
		metric.WithDescription("Intervals in the selected cut"),
		metric.WithUnit("{interval}"),
		metric.WithExplicitBucketBoundaries(foldBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricFolds, err)
	}

	dur, err := mt.Float64Histogram(metricRunDuration,
		metric.WithDescription("Run duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRunDuration, err)
	}

	return &FoldMetrics{
		runsTotal:   runs,
		pointsTotal: points,
		mergesTotal: merges,
		folds:       folds,
		runDuration: dur,
	}, nil
}

// RecordRun records a finished run. Failed runs only count toward runs and
// duration. Safe to call on a nil receiver.
func (fm *FoldMetrics) RecordRun(ctx context.Context, stats FoldStats) {
	if fm == nil {
		return
	}

	status := StatusOK
	if stats.Failed {
		status = StatusError
	}

	attrs := metric.WithAttributes(
		attribute.String(attrMethod, stats.Method),
		attribute.String(attrSelector, stats.Selector),
	)

	fm.runsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrMethod, stats.Method),
		attribute.String(attrSelector, stats.Selector),
		attribute.String(attrStatus, status),
	))
	fm.runDuration.Record(ctx, stats.Duration.Seconds(), attrs)

	if stats.Failed {
		return
	}

	fm.pointsTotal.Add(ctx, int64(stats.Points), attrs)
	fm.mergesTotal.Add(ctx, int64(stats.Merges), attrs)
	fm.folds.Record(ctx, int64(stats.Folds), attrs)
}
