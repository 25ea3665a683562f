package observability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricRequestsTotal    = "tsfold.requests.total"
	metricRequestDuration  = "tsfold.request.duration.seconds"
	metricErrorsTotal      = "tsfold.errors.total"
	metricInflightRequests = "tsfold.inflight.requests"

	attrOp     = "op"
	attrStatus = "status"

	// StatusOK and StatusError label finished requests.
	StatusOK    = "ok"
	StatusError = "error"
)

// durationBucketBoundaries spans 1ms folds of short series up to multi-minute
// runs over long Influx ranges.
var durationBucketBoundaries = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 300}

// REDMetrics counts, times and tracks in-flight requests to the HTTP routes
// and MCP tools, labelled by operation.
type REDMetrics struct {
	requests metric.Int64Counter
	errors   metric.Int64Counter
	duration metric.Float64Histogram
	inflight metric.Int64UpDownCounter
}

// NewREDMetrics creates the request instruments on mt.
func NewREDMetrics(mt metric.Meter) (*REDMetrics, error) {
	var (
		rm   REDMetrics
		errs [4]error
	)

	rm.requests, errs[0] = mt.Int64Counter(metricRequestsTotal,
		metric.WithDescription("Fold requests served"),
		metric.WithUnit("{request}"))
	rm.errors, errs[1] = mt.Int64Counter(metricErrorsTotal,
		metric.WithDescription("Fold requests that failed"),
		metric.WithUnit("{request}"))
	rm.duration, errs[2] = mt.Float64Histogram(metricRequestDuration,
		metric.WithDescription("Time to serve a fold request"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...))
	rm.inflight, errs[3] = mt.Int64UpDownCounter(metricInflightRequests,
		metric.WithDescription("Fold requests being served"),
		metric.WithUnit("{request}"))

	err := errors.Join(errs[:]...)
	if err != nil {
		return nil, fmt.Errorf("create request metrics: %w", err)
	}

	return &rm, nil
}

// Track marks op in flight and returns the function that ends it with
// StatusOK or StatusError. Safe on a nil receiver.
func (rm *REDMetrics) Track(ctx context.Context, op string) func(status string) {
	if rm == nil {
		return func(string) {}
	}

	start := time.Now()
	opAttr := attribute.String(attrOp, op)

	rm.inflight.Add(ctx, 1, metric.WithAttributes(opAttr))

	return func(status string) {
		elapsed := time.Since(start)
		attrs := metric.WithAttributes(opAttr, attribute.String(attrStatus, status))

		rm.inflight.Add(ctx, -1, metric.WithAttributes(opAttr))
		rm.requests.Add(ctx, 1, attrs)
		rm.duration.Record(ctx, elapsed.Seconds(), attrs)

		if status == StatusError {
			rm.errors.Add(ctx, 1, metric.WithAttributes(opAttr))
		}
	}
}
