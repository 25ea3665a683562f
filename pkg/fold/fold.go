// Package fold runs the segmentation pipeline: series → elementary intervals
// → merge tree → minimum-description-length cut.
package fold

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/tsfold/pkg/alg/mergetree"
	"github.com/Sumatoshi-tech/tsfold/pkg/alg/treecut"
	"github.com/Sumatoshi-tech/tsfold/pkg/observability"
	"github.com/Sumatoshi-tech/tsfold/pkg/series"
)

const tracerName = "tsfold/fold"

// Fold is one output interval of a run.
type Fold struct {
	// Start and End are the time labels of the first and last point.
	Start string `json:"start" yaml:"start"`
	End   string `json:"end"   yaml:"end"`
	// FirstLeaf and LastLeaf bound the elementary intervals covered.
	FirstLeaf int `json:"first_leaf" yaml:"first_leaf"`
	LastLeaf  int `json:"last_leaf"  yaml:"last_leaf"`
	// FirstPoint and LastPoint index the series points covered.
	FirstPoint int       `json:"first_point" yaml:"first_point"`
	LastPoint  int       `json:"last_point"  yaml:"last_point"`
	Values     []float64 `json:"values"      yaml:"values"`
	// Length is the descriptive length of the fold.
	Length float64 `json:"length" yaml:"length"`
}

// Result is the outcome of Segmenter.Run.
type Result struct {
	RunID     string `json:"run_id"    yaml:"run_id"`
	Series    string `json:"series"    yaml:"series"`
	Method    string `json:"method"    yaml:"method"`
	Direction string `json:"direction" yaml:"direction"`
	Selector  string `json:"selector"  yaml:"selector"`
	Points    int    `json:"points"    yaml:"points"`
	Leaves    int    `json:"leaves"    yaml:"leaves"`
	Merges    int    `json:"merges"    yaml:"merges"`
	Folds     []Fold `json:"folds"     yaml:"folds"`
	// TotalLength is the summed descriptive length of Folds.
	TotalLength float64 `json:"total_length" yaml:"total_length"`
	// RootLength is the descriptive length of the unsplit series.
	RootLength float64       `json:"root_length" yaml:"root_length"`
	Duration   time.Duration `json:"duration_ns" yaml:"duration_ns"`

	// Tree is the merge tree the cut was taken from.
	Tree *mergetree.Tree `json:"-" yaml:"-"`
	// Cut holds the selected tree nodes in order.
	Cut []*mergetree.Node `json:"-" yaml:"-"`
}

// Segmenter runs segmentations. It is safe for concurrent use.
type Segmenter struct {
	tracer  trace.Tracer
	metrics *observability.FoldMetrics
	logger  *slog.Logger
}

// Option configures a Segmenter.
type Option func(*Segmenter)

// WithTracer sets the tracer; the default is the global provider's.
func WithTracer(t trace.Tracer) Option {
	return func(s *Segmenter) { s.tracer = t }
}

// WithMetrics records every run into fm.
func WithMetrics(fm *observability.FoldMetrics) Option {
	return func(s *Segmenter) { s.metrics = fm }
}

// WithLogger sets the logger; the default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Segmenter) { s.logger = l }
}

// NewSegmenter returns a Segmenter.
func NewSegmenter(opts ...Option) *Segmenter {
	s := &Segmenter{}
	for _, opt := range opts {
		opt(s)
	}

	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s
}

// Run folds ser according to req.
func (s *Segmenter) Run(ctx context.Context, ser series.Series, req Request) (*Result, error) {
	start := time.Now()
	runID := uuid.NewString()
	ctx = observability.WithRunID(ctx, runID)

	ctx, span := s.tracer.Start(ctx, "fold.run", trace.WithAttributes(
		attribute.String("fold.series", ser.Name),
		attribute.Int("fold.points", ser.Len()),
		attribute.String("run.id", runID),
	))
	defer span.End()

	plan, err := req.Resolve()
	if err != nil {
		return nil, s.fail(ctx, span, Plan{Method: req.Method, Selector: req.Selector}, start, err)
	}

	span.SetAttributes(
		attribute.String("model.method", plan.Method),
		attribute.String("model.direction", plan.Model.Direction.String()),
		attribute.String("cut.selector", plan.Selector),
	)

	res, err := s.run(ctx, ser, plan)
	if err != nil {
		return nil, s.fail(ctx, span, plan, start, err)
	}

	res.RunID = runID
	res.Duration = time.Since(start)

	span.SetAttributes(
		attribute.Int("tree.merges", res.Merges),
		attribute.Int("cut.folds", len(res.Folds)),
	)

	s.metrics.RecordRun(ctx, observability.FoldStats{
		Method:   plan.Method,
		Selector: plan.Selector,
		Points:   res.Points,
		Merges:   res.Merges,
		Folds:    len(res.Folds),
		Duration: res.Duration,
	})

	s.logger.InfoContext(ctx, "series folded",
		"series", ser.Name, "method", plan.Method, "direction", res.Direction,
		"points", res.Points, "leaves", res.Leaves, "folds", len(res.Folds),
		"total_length", res.TotalLength, "duration", res.Duration)

	return res, nil
}

func (s *Segmenter) run(ctx context.Context, ser series.Series, plan Plan) (*Result, error) {
	intervals, err := series.Chunks(ser, plan.ChunkSize)
	if err != nil {
		return nil, err
	}

	tree, err := s.build(ctx, intervals, plan)
	if err != nil {
		return nil, err
	}

	cut, err := s.selectCut(ctx, tree, plan)
	if err != nil {
		return nil, err
	}

	err = treecut.CheckCover(cut, len(tree.Leaves))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", mergetree.ErrInvariant, err)
	}

	folds, total, err := describe(cut, plan)
	if err != nil {
		return nil, err
	}

	rootLength, err := treecut.Length(tree.Root, plan.Model)
	if err != nil {
		return nil, err
	}

	return &Result{
		Series:      ser.Name,
		Method:      plan.Method,
		Direction:   plan.Model.Direction.String(),
		Selector:    plan.Selector,
		Points:      ser.Len(),
		Leaves:      len(tree.Leaves),
		Merges:      tree.Merges(),
		Folds:       folds,
		TotalLength: total,
		RootLength:  rootLength,
		Tree:        tree,
		Cut:         cut,
	}, nil
}

func (s *Segmenter) build(ctx context.Context, intervals []mergetree.Interval, plan Plan) (*mergetree.Tree, error) {
	_, span := s.tracer.Start(ctx, "fold.build", trace.WithAttributes(
		attribute.Int("tree.leaves", len(intervals)),
	))
	defer span.End()

	tree, err := mergetree.Build(intervals, plan.Model)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "build failed")

		return nil, fmt.Errorf("build merge tree: %w", err)
	}

	err = tree.Root.Validate()
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("tree.height", tree.Root.Height()))

	return tree, nil
}

func (s *Segmenter) selectCut(ctx context.Context, tree *mergetree.Tree, plan Plan) ([]*mergetree.Node, error) {
	ctx, span := s.tracer.Start(ctx, "fold.select", trace.WithAttributes(
		attribute.String("cut.selector", plan.Selector),
		attribute.Int("cut.max_depth", plan.MaxDepth),
	))
	defer span.End()

	var (
		cut []*mergetree.Node
		err error
	)

	switch plan.Selector {
	case SelectorExhaustive:
		var res treecut.Result

		res, err = treecut.Exhaustive(ctx, tree.Root, plan.Model, treecut.ExhaustiveOptions{MaxLeaves: plan.MaxLeaves})
		cut = res.Cut

		span.SetAttributes(attribute.Int("cut.visited", res.Visited))
	default:
		cut, err = treecut.SelectDepth(tree.Root, plan.Model, plan.MaxDepth)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")

		return nil, fmt.Errorf("select cut: %w", err)
	}

	return cut, nil
}

func describe(cut []*mergetree.Node, plan Plan) ([]Fold, float64, error) {
	folds := make([]Fold, len(cut))

	var total float64

	for i, n := range cut {
		length, err := treecut.Length(n, plan.Model)
		if err != nil {
			return nil, 0, err
		}

		// Consecutive intervals share one point.
		first := n.Span.Start * (plan.ChunkSize - 1)
		last := first + n.Interval.Len() - 1

		folds[i] = Fold{
			Start:      n.Interval.Start(),
			End:        n.Interval.End(),
			FirstLeaf:  n.Span.Start,
			LastLeaf:   n.Span.End,
			FirstPoint: first,
			LastPoint:  last,
			Values:     n.Interval.Values,
			Length:     length,
		}

		if folds[i].Start == "" {
			folds[i].Start = strconv.Itoa(first)
			folds[i].End = strconv.Itoa(last)
		}

		total += length
	}

	return folds, total, nil
}

func (s *Segmenter) fail(ctx context.Context, span trace.Span, plan Plan, start time.Time, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	s.metrics.RecordRun(ctx, observability.FoldStats{
		Method:   plan.Method,
		Selector: plan.Selector,
		Duration: time.Since(start),
		Failed:   true,
	})

	s.logger.ErrorContext(ctx, "fold failed", "error", err)

	return err
}
