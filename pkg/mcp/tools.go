package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/tsfold/pkg/alg/mergetree"
	"github.com/Sumatoshi-tech/tsfold/pkg/fold"
	"github.com/Sumatoshi-tech/tsfold/pkg/series"
)

// Tool name constants.
const (
	ToolNameSegment = "tsfold_segment"
	ToolNameTree    = "tsfold_tree"
)

// Input size limits.
const (
	// MaxValues is the maximum number of points accepted per call.
	MaxValues = 100_000

	defaultSeriesName = "input"
)

// Sentinel errors for tool input validation.
var (
	// ErrTooFewValues indicates fewer than two values.
	ErrTooFewValues = errors.New("values parameter needs at least two numbers")
	// ErrTooManyValues indicates the input exceeds MaxValues.
	ErrTooManyValues = errors.New("values input exceeds maximum size")
)

// Input types (auto-generate JSON schemas via struct tags).

// SegmentInput is the input schema for the tsfold_segment tool.
type SegmentInput struct {
	Name      string    `json:"name,omitempty"       jsonschema:"series name used in the report"`
	Values    []float64 `json:"values"               jsonschema:"ordered series values"`
	Labels    []string  `json:"labels,omitempty"     jsonschema:"optional time label per value"`
	Method    string    `json:"method,omitempty"     jsonschema:"cost method (default: logistic)"`
	Direction string    `json:"direction,omitempty"  jsonschema:"rising or falling (default: rising)"`
	Selector  string    `json:"selector,omitempty"   jsonschema:"bottomup or exhaustive (default: bottomup)"`
	MaxDepth  *int      `json:"max_depth,omitempty"  jsonschema:"optional depth bound for bottomup selection"`
	Intervals string    `json:"intervals,omitempty"  jsonschema:"pairs or chunk (default: pairs)"`
	ChunkSize int       `json:"chunk_size,omitempty" jsonschema:"points per elementary interval in chunk mode"`
	MaxLeaves int       `json:"max_leaves,omitempty" jsonschema:"leaf limit for exhaustive selection (default: 16, max: 20)"`
}

// TreeInput is the input schema for the tsfold_tree tool.
type TreeInput struct {
	Values     []float64 `json:"values"                jsonschema:"ordered series values"`
	Labels     []string  `json:"labels,omitempty"      jsonschema:"optional time label per value"`
	Method     string    `json:"method,omitempty"      jsonschema:"cost method (default: logistic)"`
	Direction  string    `json:"direction,omitempty"   jsonschema:"rising or falling (default: rising)"`
	Intervals  string    `json:"intervals,omitempty"   jsonschema:"pairs or chunk (default: pairs)"`
	ChunkSize  int       `json:"chunk_size,omitempty"  jsonschema:"points per elementary interval in chunk mode"`
	Depth      int       `json:"depth,omitempty"       jsonschema:"render depth; 0 renders the whole tree"`
	ShowValues bool      `json:"show_values,omitempty" jsonschema:"append a payload preview to every node"`
}

func (in TreeInput) segmentInput() SegmentInput {
	return SegmentInput{
		Values:    in.Values,
		Labels:    in.Labels,
		Method:    in.Method,
		Direction: in.Direction,
		Intervals: in.Intervals,
		ChunkSize: in.ChunkSize,
	}
}

// Output type (used as structured output for generic AddTool).

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// TreeOutput is the data of a tsfold_tree result.
type TreeOutput struct {
	Leaves int    `json:"leaves"`
	Height int    `json:"height"`
	Tree   string `json:"tree"`
}

// handleSegment processes tsfold_segment tool calls.
func (s *Server) handleSegment(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input SegmentInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	res, err := s.segment(ctx, input)
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(res)
}

// handleTree processes tsfold_tree tool calls.
func (s *Server) handleTree(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input TreeInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	res, err := s.segment(ctx, input.segmentInput())
	if err != nil {
		return errorResult(err)
	}

	depth := input.Depth
	if depth <= 0 {
		depth = -1
	}

	root := res.Tree.Root

	return jsonResult(TreeOutput{
		Leaves: len(res.Tree.Leaves),
		Height: root.Height(),
		Tree:   mergetree.Render(root, mergetree.RenderOptions{MaxDepth: depth, ShowValues: input.ShowValues}),
	})
}

func (s *Server) segment(ctx context.Context, input SegmentInput) (*fold.Result, error) {
	err := validateValues(input.Values)
	if err != nil {
		return nil, err
	}

	name := input.Name
	if name == "" {
		name = defaultSeriesName
	}

	ser, err := series.New(name, input.Labels, input.Values)
	if err != nil {
		return nil, err
	}

	return s.segmenter.Run(ctx, ser, input.request())
}

func (in SegmentInput) request() fold.Request {
	return fold.Request{
		Method:    in.Method,
		Direction: in.Direction,
		Selector:  in.Selector,
		MaxDepth:  in.MaxDepth,
		Intervals: in.Intervals,
		ChunkSize: in.ChunkSize,
		MaxLeaves: in.MaxLeaves,
	}
}

// validateValues checks common values input constraints.
func validateValues(values []float64) error {
	if len(values) < 2 {
		return fmt.Errorf("%w: got %d", ErrTooFewValues, len(values))
	}

	if len(values) > MaxValues {
		return fmt.Errorf("%w: %d values (max %d)", ErrTooManyValues, len(values), MaxValues)
	}

	return nil
}

// Result helpers.

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}
