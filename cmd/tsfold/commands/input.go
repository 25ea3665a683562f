package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/tsfold/pkg/config"
	"github.com/Sumatoshi-tech/tsfold/pkg/series"
)

// ErrNoInput is returned when neither an input file nor an InfluxDB source is given.
var ErrNoInput = errors.New("no input: pass --input or --influx")

// ErrNoValueColumns is returned when a table has no column besides the time column.
var ErrNoValueColumns = errors.New("no value columns in input")

// inputFlags select where series come from. They override the input section
// of the config.
type inputFlags struct {
	path       string
	influx     bool
	dataset    string
	columns    []string
	timeColumn string
	from       string
	to         string
	layout     string
}

func (in *inputFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&in.path, "input", "i", "", "CSV (optionally .lz4) or JSON series file")
	fs.BoolVar(&in.influx, "influx", false, "read the series from the configured InfluxDB source")
	fs.StringVar(&in.dataset, "dataset", "", "dataset name (default: input file name or measurement)")
	fs.StringSliceVarP(&in.columns, "columns", "c", nil, "value columns to fold (default: every non-time column)")
	fs.StringVar(&in.timeColumn, "time-column", "", "time label column (empty string for unlabeled input)")
	fs.StringVar(&in.from, "from", "", "first date to keep (inclusive)")
	fs.StringVar(&in.to, "to", "", "last date to keep (inclusive)")
	fs.StringVar(&in.layout, "layout", "", "Go time layout of the labels")
}

func (in *inputFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	fs := cmd.Flags()

	if fs.Changed("columns") {
		cfg.Input.ValueColumns = in.columns
	}

	if fs.Changed("time-column") {
		cfg.Input.TimeColumn = in.timeColumn
	}

	if fs.Changed("from") {
		cfg.Input.DateFrom = in.from
	}

	if fs.Changed("to") {
		cfg.Input.DateTo = in.to
	}

	if fs.Changed("layout") {
		cfg.Input.DateLayout = in.layout
	}
}

// load reads every requested series and restricts it to the date range.
func (a *app) load(ctx context.Context, in *inputFlags) (dataset string, out []series.Series, err error) {
	cfg := a.cfg

	switch {
	case in.influx:
		dataset, out, err = a.loadInflux(ctx)
	case in.path != "":
		dataset, out, err = loadFile(in.path, cfg.Input)
	default:
		return "", nil, ErrNoInput
	}

	if err != nil {
		return "", nil, err
	}

	if in.dataset != "" {
		dataset = in.dataset
	}

	if cfg.Input.DateFrom == "" && cfg.Input.DateTo == "" {
		return dataset, out, nil
	}

	for i, ser := range out {
		out[i], err = series.FilterRange(ser, cfg.Input.DateFrom, cfg.Input.DateTo, cfg.Input.DateLayout)
		if err != nil {
			return "", nil, fmt.Errorf("filter %s: %w", ser.Name, err)
		}

		a.providers.Logger.DebugContext(ctx, "date range applied",
			"series", ser.Name, "before", ser.Len(), "after", out[i].Len())
	}

	return dataset, out, nil
}

func (a *app) loadInflux(ctx context.Context) (string, []series.Series, error) {
	src, err := series.NewInfluxSource(a.cfg.InfluxSource(), a.providers.Logger)
	if err != nil {
		return "", nil, err
	}
	defer src.Close()

	ser, err := src.Load(ctx)
	if err != nil {
		return "", nil, err
	}

	return a.cfg.Influx.Measurement, []series.Series{ser}, nil
}

func loadFile(path string, input config.InputConfig) (string, []series.Series, error) {
	dataset := fileStem(path)

	if strings.EqualFold(filepath.Ext(path), ".json") {
		ser, err := readJSONFile(path)
		if err != nil {
			return "", nil, err
		}

		if ser.Name == "" {
			ser.Name = dataset
		}

		return dataset, []series.Series{ser}, nil
	}

	table, err := series.OpenTable(path)
	if err != nil {
		return "", nil, err
	}

	columns := input.ValueColumns
	if len(columns) == 0 {
		columns = valueColumns(table.Header, input.TimeColumn)
	}

	if len(columns) == 0 {
		return "", nil, fmt.Errorf("%w: %s", ErrNoValueColumns, path)
	}

	out := make([]series.Series, 0, len(columns))

	for _, col := range columns {
		ser, serErr := table.Series(input.TimeColumn, col)
		if serErr != nil {
			return "", nil, serErr
		}

		out = append(out, ser)
	}

	return dataset, out, nil
}

func readJSONFile(path string) (series.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return series.Series{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return series.ReadJSON(f)
}

func valueColumns(header []string, timeColumn string) []string {
	out := make([]string, 0, len(header))

	for _, h := range header {
		if h != timeColumn {
			out = append(out, h)
		}
	}

	return slices.Clip(out)
}

// fileStem strips the directory and every known extension from path.
func fileStem(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, ".lz4")

	return strings.TrimSuffix(base, filepath.Ext(base))
}
