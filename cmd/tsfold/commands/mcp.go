package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/tsfold/pkg/mcp"
	"github.com/Sumatoshi-tech/tsfold/pkg/observability"
	"github.com/Sumatoshi-tech/tsfold/pkg/version"
)

func (a *app) mcpCommand() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The MCP server exposes segmentation as tools that AI agents can discover and invoke:
  - tsfold_segment: fold a series and return the report
  - tsfold_tree: print the merge tree of a series`,
		Args: cobra.NoArgs,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			if debug {
				a.logLevel = "debug"
				a.debugTrace = true
			}

			stop, err := a.start(observability.ModeMCP)
			if err != nil {
				return err
			}
			defer stop()

			deps := mcp.ServerDeps{
				Logger:  a.providers.Logger,
				Tracer:  a.providers.Tracer,
				Version: version.Version,
			}

			if a.providers.Meter != nil {
				red, redErr := observability.NewREDMetrics(a.providers.Meter)
				if redErr != nil {
					return redErr
				}

				deps.Metrics = red
			}

			deps.Segmenter, err = a.segmenter()
			if err != nil {
				return err
			}

			return mcp.NewServer(deps).Run(cobraCmd.Context())
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging to stderr")

	return cmd
}
