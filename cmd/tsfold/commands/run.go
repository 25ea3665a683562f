package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/tsfold/pkg/fold"
	"github.com/Sumatoshi-tech/tsfold/pkg/observability"
	"github.com/Sumatoshi-tech/tsfold/pkg/render"
	"github.com/Sumatoshi-tech/tsfold/pkg/series"
)

const (
	reportName = "report"
	dirMode    = 0o755
	fileMode   = 0o644
)

type runCommand struct {
	app   *app
	input inputFlags
	model modelFlags

	outputDir string
	format    string
	theme     string
	workers   int
	noPlots   bool
	noColor   bool
}

func (a *app) runCommand() *cobra.Command {
	rc := &runCommand{app: a}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fold series and write reports and plots",
		Long: `Fold one or more series and write, per series, a report and three HTML plots
(init, merged, merged-nonlinear) under <output>/ts/<single|multi>/<dataset>/<from>-<to>/.
A CSV input with several value columns is folded column by column in parallel.`,
		Example: `  tsfold run -i prices.csv -c close --from 2024-01-01 --to 2024-06-30
  tsfold run -i series.json -m entropy -d falling --format yaml
  tsfold run --influx --config tsfold.yaml`,
		Args: cobra.NoArgs,
		RunE: rc.run,
	}

	rc.input.register(cmd)
	rc.model.register(cmd)

	cmd.Flags().StringVarP(&rc.outputDir, "output", "o", "", "output root directory")
	cmd.Flags().StringVarP(&rc.format, "format", "f", "", "report format: "+formatList())
	cmd.Flags().StringVar(&rc.theme, "theme", "", "plot theme: light or dark")
	cmd.Flags().IntVar(&rc.workers, "workers", 0, "series folded concurrently (0 = CPU count)")
	cmd.Flags().BoolVar(&rc.noPlots, "no-plots", false, "skip the HTML plots")
	cmd.Flags().BoolVar(&rc.noColor, "no-color", false, "disable colored summary output")

	return cmd
}

func (rc *runCommand) run(cmd *cobra.Command, _ []string) error {
	stop, err := rc.app.start(observability.ModeCLI)
	if err != nil {
		return err
	}
	defer stop()

	cfg := rc.app.cfg
	rc.input.apply(cmd, cfg)
	rc.applyOutput(cmd)

	err = rc.model.apply(cmd, cfg)
	if err != nil {
		return err
	}

	format, err := render.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}

	theme, err := render.ParseTheme(cfg.Output.Theme)
	if err != nil {
		return err
	}

	ctx, span := rc.app.providers.Tracer.Start(cmd.Context(), "tsfold.run")
	defer span.End()

	started := time.Now()

	dataset, all, err := rc.app.load(ctx, &rc.input)
	if err != nil {
		return err
	}

	span.SetAttributes(attribute.String("run.dataset", dataset), attribute.Int("run.series", len(all)))

	results, err := rc.foldAll(ctx, all)
	if err != nil {
		return err
	}

	from, to := cfg.Input.DateFrom, cfg.Input.DateTo
	if from == "" {
		from = all[0].First()
	}

	if to == "" {
		to = all[0].Last()
	}

	base := render.OutputDir(cfg.Output.Dir, len(all) > 1, dataset, from, to)
	out := cmd.OutOrStdout()
	opts := render.Options{
		Plot:    render.PlotOptions{Theme: theme, Layout: cfg.Input.DateLayout},
		Summary: render.SummaryOptions{NoColor: rc.noColor},
	}

	for i, ser := range all {
		dir := base
		if len(all) > 1 {
			dir = filepath.Join(base, ser.Name)
		}

		err = rc.writeOutputs(out, dir, format, ser, results[i], opts)
		if err != nil {
			return err
		}
	}

	elapsed := time.Since(started)

	rc.app.providers.Logger.InfoContext(ctx, "run finished",
		"dataset", dataset, "series", len(all), "dir", base, "duration", elapsed)

	_, err = fmt.Fprintf(out, "folded %s series in %s, output in %s\n",
		humanize.Comma(int64(len(all))), elapsed.Round(time.Millisecond), base)

	return err
}

func (rc *runCommand) applyOutput(cmd *cobra.Command) {
	cfg := rc.app.cfg
	fs := cmd.Flags()

	if fs.Changed("output") {
		cfg.Output.Dir = rc.outputDir
	}

	if fs.Changed("format") {
		cfg.Output.Format = rc.format
	}

	if fs.Changed("theme") {
		cfg.Output.Theme = rc.theme
	}
}

// foldAll folds every series, at most rc.workers at a time. Each run is
// single-threaded; the first failure cancels the rest.
func (rc *runCommand) foldAll(ctx context.Context, all []series.Series) ([]*fold.Result, error) {
	seg, err := rc.app.segmenter()
	if err != nil {
		return nil, err
	}

	workers := rc.workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	req := rc.app.cfg.FoldRequest()
	results := make([]*fold.Result, len(all))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, ser := range all {
		g.Go(func() error {
			res, runErr := seg.Run(gctx, ser, req)
			if runErr != nil {
				return fmt.Errorf("fold %s: %w", ser.Name, runErr)
			}

			results[i] = res

			return nil
		})
	}

	err = g.Wait()
	if err != nil {
		return nil, err
	}

	return results, nil
}

func (rc *runCommand) writeOutputs(
	out io.Writer,
	dir string,
	format render.Format,
	ser series.Series,
	res *fold.Result,
	opts render.Options,
) error {
	err := os.MkdirAll(dir, dirMode)
	if err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	reportPath := filepath.Join(dir, reportName+format.Extension())

	size, err := writeReport(reportPath, format, ser, res, opts)
	if err != nil {
		return err
	}

	if !rc.noPlots {
		_, err = render.SavePlots(dir, ser, res, opts.Plot)
		if err != nil {
			return err
		}
	}

	err = render.WriteSummary(out, res, opts.Summary)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(out, "report: %s (%s)\n\n", reportPath, humanize.Bytes(uint64(size)))

	return err
}

func writeReport(path string, format render.Format, ser series.Series, res *fold.Result, opts render.Options) (int64, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, fileMode)
	if err != nil {
		return 0, fmt.Errorf("create report: %w", err)
	}

	// Files never get ANSI colors.
	opts.Summary.NoColor = true

	err = render.Write(f, format, ser, res, opts)
	if err != nil {
		f.Close()

		return 0, fmt.Errorf("write report: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()

		return 0, fmt.Errorf("stat report: %w", err)
	}

	return info.Size(), f.Close()
}

func formatList() string {
	names := ""

	for i, f := range render.Formats() {
		if i > 0 {
			names += ", "
		}

		names += string(f)
	}

	return names
}
