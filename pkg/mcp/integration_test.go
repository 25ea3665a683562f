package mcp_test

import (
	"context"
	"testing"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Sumatoshi-tech/tsfold/pkg/mcp"
)

func connect(t *testing.T, srv *mcp.Server) (context.Context, *mcpsdk.ClientSession) {
	t.Helper()

	clientTransport, serverTransport := mcpsdk.NewInMemoryTransports()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)

	serverDone := make(chan error, 1)

	go func() {
		serverDone <- srv.RunWithTransport(ctx, serverTransport)
	}()

	client := mcpsdk.NewClient(&mcpsdk.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = session.Close()

		cancel()
		<-serverDone
	})

	return ctx, session
}

func TestMCPServer_InMemoryTransport_ToolsList(t *testing.T) {
	t.Parallel()

	ctx, session := connect(t, mcp.NewServer(mcp.ServerDeps{}))

	toolsResult, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	require.NotNil(t, toolsResult)

	toolNames := make([]string, 0, len(toolsResult.Tools))
	for _, tool := range toolsResult.Tools {
		toolNames = append(toolNames, tool.Name)
	}

	assert.ElementsMatch(t, []string{mcp.ToolNameSegment, mcp.ToolNameTree}, toolNames)

	for _, tool := range toolsResult.Tools {
		assert.NotNil(t, tool.InputSchema, "tool %s missing input schema", tool.Name)
	}
}

func TestMCPServer_InMemoryTransport_CallSegment(t *testing.T) {
	t.Parallel()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	ctx, session := connect(t, mcp.NewServer(mcp.ServerDeps{Tracer: tp.Tracer("test")}))

	result, err := session.CallTool(ctx, &mcpsdk.CallToolParams{
		Name: mcp.ToolNameSegment,
		Arguments: map[string]any{
			"values":    []float64{1, 2, 3, 4, 5, 6, 7, 8},
			"method":    "entropy",
			"direction": "falling",
		},
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.IsError)
	require.NotEmpty(t, result.Content)

	text, ok := result.Content[0].(*mcpsdk.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, `"folds"`)

	names := make([]string, 0)
	for _, span := range recorder.Ended() {
		names = append(names, span.Name())
	}

	assert.Contains(t, names, "mcp."+mcp.ToolNameSegment)
	assert.Contains(t, names, "fold.run")
}

func TestMCPServer_InMemoryTransport_CallTreeRejectsShortInput(t *testing.T) {
	t.Parallel()

	ctx, session := connect(t, mcp.NewServer(mcp.ServerDeps{}))

	result, err := session.CallTool(ctx, &mcpsdk.CallToolParams{
		Name:      mcp.ToolNameTree,
		Arguments: map[string]any{"values": []float64{1}},
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsError)
}
