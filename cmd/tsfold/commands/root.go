// Package commands implements the tsfold CLI sub-commands.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/Sumatoshi-tech/tsfold/pkg/config"
	"github.com/Sumatoshi-tech/tsfold/pkg/fold"
	"github.com/Sumatoshi-tech/tsfold/pkg/observability"
	"github.com/Sumatoshi-tech/tsfold/pkg/version"
)

const tracerName = "tsfold"

// initFunc builds the telemetry providers. Tests swap in recorders.
type initFunc func(observability.Config) (observability.Providers, error)

// app is the state shared by every sub-command of one invocation.
type app struct {
	configPath string
	logLevel   string
	debugTrace bool

	initObs   initFunc
	cfg       *config.Config
	providers observability.Providers
}

// NewRootCommand builds the tsfold command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(observability.Init)
}

func newRootCommand(initObs initFunc) *cobra.Command {
	a := &app{initObs: initObs}

	root := &cobra.Command{
		Use:   "tsfold",
		Short: "Fold time series into minimum-description-length intervals",
		Long: `tsfold merges adjacent points of a time series bottom-up into a binary
merge tree and cuts the tree where the total description length is smallest.

Commands:
  run       Fold CSV, JSON or InfluxDB series and write reports and plots
  tree      Print the merge tree of a series
  symbolic  Turn (time, user, status) events into a numeric series
  serve     Serve segmentation over HTTP
  mcp       Serve segmentation as MCP tools on stdio`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default .tsfold.yaml in CWD or $HOME)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().BoolVar(&a.debugTrace, "debug-trace", false, "sample every trace")

	root.AddCommand(
		a.runCommand(),
		a.treeCommand(),
		a.symbolicCommand(),
		a.serveCommand(),
		a.mcpCommand(),
		versionCommand(),
	)

	return root
}

// start loads the configuration and telemetry for mode. The returned stop
// flushes telemetry and must be deferred.
func (a *app) start(mode observability.AppMode) (stop func(), err error) {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return nil, err
	}

	if a.logLevel != "" {
		cfg.Observability.LogLevel = a.logLevel
	}

	if a.debugTrace {
		cfg.Observability.DebugTrace = true
	}

	providers, err := a.initObs(cfg.Telemetry(mode, version.Version))
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	if providers.Logger == nil {
		providers.Logger = slog.Default()
	}

	if providers.Tracer == nil {
		providers.Tracer = otel.Tracer(tracerName)
	}

	a.cfg = cfg
	a.providers = providers

	return func() {
		if providers.Shutdown == nil {
			return
		}

		shutdownErr := providers.Shutdown(context.Background())
		if shutdownErr != nil {
			providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
		}
	}, nil
}

// segmenter builds a Segmenter wired to the active providers.
func (a *app) segmenter() (*fold.Segmenter, error) {
	opts := []fold.Option{
		fold.WithLogger(a.providers.Logger),
		fold.WithTracer(a.providers.Tracer),
	}

	if a.providers.Meter != nil {
		fm, err := observability.NewFoldMetrics(a.providers.Meter)
		if err != nil {
			return nil, fmt.Errorf("fold metrics: %w", err)
		}

		opts = append(opts, fold.WithMetrics(fm))
	}

	return fold.NewSegmenter(opts...), nil
}

// modelFlags override the model, cut and intervals config sections.
type modelFlags struct {
	method    string
	direction string
	selector  string
	intervals string
	maxDepth  int
	chunkSize int
	maxLeaves int
}

func (m *modelFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&m.method, "method", "m", "", "cost model: logistic, tanh, softmax, entropy, entropy-tanh, entropy-softmax")
	fs.StringVarP(&m.direction, "direction", "d", "", "probability direction: rising or falling")
	fs.StringVar(&m.selector, "selector", "", "tree cut: bottomup or exhaustive")
	fs.IntVar(&m.maxDepth, "max-depth", -1, "bottom-up depth bound (-1 = unbounded)")
	fs.StringVar(&m.intervals, "intervals", "", "elementary intervals: pairs or chunk")
	fs.IntVar(&m.chunkSize, "chunk-size", 0, "points per chunk when --intervals=chunk")
	fs.IntVar(&m.maxLeaves, "max-leaves", 0, "leaf limit of the exhaustive cut (at most 20)")
}

// apply copies changed flags into cfg and revalidates it.
func (m *modelFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	fs := cmd.Flags()

	if fs.Changed("method") {
		cfg.Model.Method = m.method
	}

	if fs.Changed("direction") {
		cfg.Model.Direction = m.direction
	}

	if fs.Changed("selector") {
		cfg.Cut.Selector = m.selector
	}

	if fs.Changed("max-depth") {
		cfg.Cut.MaxDepth = m.maxDepth
	}

	if fs.Changed("intervals") {
		cfg.Intervals.Mode = m.intervals
	}

	if fs.Changed("chunk-size") {
		cfg.Intervals.ChunkSize = m.chunkSize
	}

	if fs.Changed("max-leaves") {
		cfg.Cut.ExhaustiveMaxLeaves = m.maxLeaves
	}

	return cfg.Validate()
}
