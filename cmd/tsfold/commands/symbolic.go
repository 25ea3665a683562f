package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/tsfold/pkg/observability"
	"github.com/Sumatoshi-tech/tsfold/pkg/series"
)

const defaultSymbolicName = "tp_value"

type symbolicCommand struct {
	app *app

	input        string
	output       string
	name         string
	timeColumn   string
	userColumn   string
	statusColumn string
	maxUsers     int
	dropQuantile float64
}

func (a *app) symbolicCommand() *cobra.Command {
	sc := &symbolicCommand{app: a}

	cmd := &cobra.Command{
		Use:   "symbolic",
		Short: "Turn (time, user, status) events into a numeric series",
		Long: `Read event rows from a CSV file and write one point per distinct time. A point
sums, over the events at that time, how often the same (user, status) pair occurs,
divided by the number of distinct users. Only the first --max-users users are kept
and events at or below the --drop-quantile time quantile are dropped.
The result is a two-column CSV that "tsfold run" accepts.`,
		Example: `  tsfold symbolic -i events.csv --time-column operate_time --user-column operator_id \
    --status-column phase -o tp.csv`,
		Args: cobra.NoArgs,
		RunE: sc.run,
	}

	fs := cmd.Flags()
	fs.StringVarP(&sc.input, "input", "i", "", "CSV (optionally .lz4) event file")
	fs.StringVarP(&sc.output, "output", "o", "", "output CSV file (default stdout)")
	fs.StringVar(&sc.name, "name", defaultSymbolicName, "value column name of the output")
	fs.StringVar(&sc.timeColumn, "time-column", "time", "event time column")
	fs.StringVar(&sc.userColumn, "user-column", "user", "event user column")
	fs.StringVar(&sc.statusColumn, "status-column", "status", "event status column")
	fs.IntVar(&sc.maxUsers, "max-users", series.DefaultMaxUsers, "keep only the first users in time order")
	fs.Float64Var(&sc.dropQuantile, "drop-quantile", series.DefaultDropQuantile,
		"drop events at or below this time quantile (negative keeps all)")

	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func (sc *symbolicCommand) run(cmd *cobra.Command, _ []string) error {
	stop, err := sc.app.start(observability.ModeCLI)
	if err != nil {
		return err
	}
	defer stop()

	ctx, span := sc.app.providers.Tracer.Start(cmd.Context(), "tsfold.symbolic")
	defer span.End()

	table, err := series.OpenTable(sc.input)
	if err != nil {
		return err
	}

	events, err := series.ReadEvents(table, sc.timeColumn, sc.userColumn, sc.statusColumn)
	if err != nil {
		return err
	}

	ser, err := series.Symbolic(sc.name, events, series.SymbolicOptions{
		MaxUsers:     sc.maxUsers,
		DropQuantile: sc.dropQuantile,
	})
	if err != nil {
		return err
	}

	sc.app.providers.Logger.InfoContext(ctx, "symbolic series built",
		"events", len(events), "points", ser.Len(), "from", ser.First(), "to", ser.Last())

	var out io.Writer = cmd.OutOrStdout()

	if sc.output != "" {
		f, createErr := os.Create(sc.output)
		if createErr != nil {
			return fmt.Errorf("create output: %w", createErr)
		}
		defer f.Close()

		out = f
	}

	err = series.WriteCSV(out, ser, sc.timeColumn)
	if err != nil {
		return fmt.Errorf("write series: %w", err)
	}

	return nil
}
