// Package mcp implements a Model Context Protocol server exposing tsfold
// segmentation as MCP tools over stdio transport.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/tsfold/pkg/fold"
	"github.com/Sumatoshi-tech/tsfold/pkg/observability"
)

const (
	// serverName is the MCP server implementation name.
	serverName = "tsfold"
	// defaultServerVersion is used when ServerDeps.Version is empty.
	defaultServerVersion = "dev"

	// toolCount is the expected number of registered tools.
	toolCount = 2
)

// ServerDeps holds injectable dependencies for the MCP server.
// Zero-value fields use production defaults.
type ServerDeps struct {
	// Logger is an optional structured logger. Nil uses slog default.
	Logger *slog.Logger

	// Metrics is an optional RED metrics recorder. Nil disables per-tool metrics.
	Metrics *observability.REDMetrics

	// Tracer is an optional OTel tracer for per-tool-call spans. Nil disables tracing.
	Tracer trace.Tracer

	// Segmenter runs the folds. Nil builds one from Logger and Tracer.
	Segmenter *fold.Segmenter

	// Version is reported in the MCP implementation info.
	Version string
}

// Server wraps the MCP SDK server with tsfold tool registrations.
type Server struct {
	inner     *mcpsdk.Server
	logger    *slog.Logger
	metrics   *observability.REDMetrics
	tracer    trace.Tracer
	segmenter *fold.Segmenter
	tools     []string
}

// NewServer creates a new MCP server with all tsfold tools registered.
func NewServer(deps ServerDeps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	version := deps.Version
	if version == "" {
		version = defaultServerVersion
	}

	seg := deps.Segmenter
	if seg == nil {
		segOpts := []fold.Option{fold.WithLogger(logger)}
		if deps.Tracer != nil {
			segOpts = append(segOpts, fold.WithTracer(deps.Tracer))
		}

		seg = fold.NewSegmenter(segOpts...)
	}

	srv := &Server{
		inner: mcpsdk.NewServer(
			&mcpsdk.Implementation{Name: serverName, Version: version},
			&mcpsdk.ServerOptions{Logger: logger},
		),
		logger:    logger,
		metrics:   deps.Metrics,
		tracer:    deps.Tracer,
		segmenter: seg,
		tools:     make([]string, 0, toolCount),
	}

	addTool(srv, ToolNameSegment, segmentToolDescription, srv.handleSegment)
	addTool(srv, ToolNameTree, treeToolDescription, srv.handleTree)

	return srv
}

// ListToolNames returns the sorted names of all registered tools.
func (s *Server) ListToolNames() []string {
	names := slices.Clone(s.tools)
	slices.Sort(names)

	return names
}

// Run serves MCP over stdio until ctx is canceled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.RunWithTransport(ctx, &mcpsdk.StdioTransport{})
}

// RunWithTransport serves MCP over transport.
func (s *Server) RunWithTransport(ctx context.Context, transport mcpsdk.Transport) error {
	err := s.inner.Run(ctx, transport)
	if err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

type toolHandler[Input any] func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error)

// addTool registers handler under name, wrapped with a span, RED metrics and
// a debug log line per call.
func addTool[Input any](s *Server, name, description string, handler toolHandler[Input]) {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{Name: name, Description: description}, mcpsdk.ToolHandlerFor[Input, ToolOutput](instrument(s, name, handler)))

	s.tools = append(s.tools, name)
}

// toolOp is the span and metric operation name of a tool.
func toolOp(name string) string { return "mcp." + name }

func instrument[Input any](s *Server, name string, handler toolHandler[Input]) toolHandler[Input] {
	op := toolOp(name)

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		start := time.Now()

		var span trace.Span
		if s.tracer != nil {
			ctx, span = s.tracer.Start(ctx, op,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(attribute.String("mcp.tool", name)),
			)
			defer span.End()
		}

		finish := s.metrics.Track(ctx, op)

		result, output, err := handler(ctx, req, input)
		failed := err != nil || (result != nil && result.IsError)

		if span != nil {
			if failed {
				span.SetStatus(codes.Error, "tool call failed")
			}

			// Sampled calls echo their trace id so clients can find the trace.
			if sc := span.SpanContext(); sc.IsSampled() && result != nil {
				result.Content = append(result.Content, &mcpsdk.TextContent{Text: "trace_id=" + sc.TraceID().String()})
			}
		}

		status := observability.StatusOK
		if failed {
			status = observability.StatusError
		}

		finish(status)

		s.logger.DebugContext(ctx, "mcp tool call", "tool", name, "status", status, "duration", time.Since(start))

		return result, output, err
	}
}

// Tool description constants.
const (
	segmentToolDescription = "Fold a numeric time series into intervals by minimum description length. " +
		"Accepts values with optional time labels, a cost method (logistic, tanh, softmax, entropy, " +
		"entropy-tanh, entropy-softmax), a direction (rising, falling) and a cut selector " +
		"(bottomup, exhaustive). Returns the folds with their descriptive lengths."

	treeToolDescription = "Build the agglomerative merge tree of a numeric time series and " +
		"return it as an ASCII tree with node spans and merge costs."
)
