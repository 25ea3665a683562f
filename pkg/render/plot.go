package render

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/floats"

	"github.com/Sumatoshi-tech/tsfold/pkg/fold"
	"github.com/Sumatoshi-tech/tsfold/pkg/series"
)

// Plot file names written by SavePlots.
const (
	PlotInit            = "init.html"
	PlotMerged          = "merged.html"
	PlotMergedNonlinear = "merged-nonlinear.html"
)

const (
	dataZoomEnd   = 100
	lineWidth     = 2
	labelRotation = 45
	defaultWidth  = "100%"
	defaultHeight = "500px"
	plotFileMode  = 0o644
)

// Sentinel errors.
var (
	ErrUnknownTheme = errors.New("render: unknown theme")
	ErrEmptySeries  = errors.New("render: empty series")
	ErrNoFolds      = errors.New("render: result has no folds")
	ErrFoldRange    = errors.New("render: fold outside series")
)

// PlotOptions configures chart rendering.
type PlotOptions struct {
	Theme Theme
	// Layout parses time labels; labels that do not parse put the x axis on
	// point indices.
	Layout string
	Width  string
	Height string
}

func (o PlotOptions) withDefaults() PlotOptions {
	if o.Layout == "" {
		o.Layout = series.DefaultDateLayout
	}

	if o.Width == "" {
		o.Width = defaultWidth
	}

	if o.Height == "" {
		o.Height = defaultHeight
	}

	return o
}

// plotPoint is one (x, y) pair on a value or time axis.
type plotPoint struct {
	index int
	label string
	value float64
}

// InitChart plots the raw series.
func InitChart(ser series.Series, o PlotOptions) (*charts.Line, error) {
	if ser.Len() == 0 {
		return nil, ErrEmptySeries
	}

	o = o.withDefaults()

	points := make([]plotPoint, ser.Len())
	for i, v := range ser.Values {
		points[i] = plotPoint{index: i, label: ser.Label(i), value: v}
	}

	line := newLine(ser, o, "Value Over Time", ser.Name)
	addAxisSeries(line, ser, o, "value", points, o.Theme.Config().RawLine)

	return line, nil
}

// MergedChart plots the start point of every fold plus the last point of
// the final fold on the time axis.
func MergedChart(ser series.Series, res *fold.Result, o PlotOptions) (*charts.Line, error) {
	points, err := foldPoints(ser, res)
	if err != nil {
		return nil, err
	}

	o = o.withDefaults()

	line := newLine(ser, o, "Folded Value Over Time", subtitle(res))
	addAxisSeries(line, ser, o, "folded", points, o.Theme.Config().FoldLine)

	return line, nil
}

// MergedNonlinearChart plots the same points as MergedChart evenly spaced
// on a category axis.
func MergedNonlinearChart(ser series.Series, res *fold.Result, o PlotOptions) (*charts.Line, error) {
	points, err := foldPoints(ser, res)
	if err != nil {
		return nil, err
	}

	o = o.withDefaults()
	c := newChartOpts(o.Theme)

	line := newLine(ser, o, "Folded Value Over Time (non-linear)", subtitle(res))

	x := c.xAxis("Date", "category")
	x.AxisLabel.Rotate = labelRotation
	line.SetGlobalOptions(charts.WithXAxisOpts(x))

	labels := make([]string, len(points))
	data := make([]opts.LineData, len(points))

	for i, p := range points {
		labels[i] = p.label
		data[i] = opts.LineData{Value: p.value}
	}

	line.SetXAxis(labels)
	line.AddSeries("folded", data, lineStyle(o.Theme.Config().FoldLine)...)

	return line, nil
}

// WritePage writes all three charts as one HTML page.
func WritePage(w io.Writer, ser series.Series, res *fold.Result, o PlotOptions) error {
	all, err := buildCharts(ser, res, o)
	if err != nil {
		return err
	}

	page := components.NewPage()
	page.SetPageTitle("tsfold: " + ser.Name)
	page.AddCharts(all[0], all[1], all[2])

	err = page.Render(w)
	if err != nil {
		return fmt.Errorf("render page: %w", err)
	}

	return nil
}

// SavePlots writes one HTML file per chart into dir and returns their paths.
func SavePlots(dir string, ser series.Series, res *fold.Result, o PlotOptions) ([]string, error) {
	all, err := buildCharts(ser, res, o)
	if err != nil {
		return nil, err
	}

	names := []string{PlotInit, PlotMerged, PlotMergedNonlinear}
	paths := make([]string, 0, len(names))

	for i, name := range names {
		path := filepath.Join(dir, name)

		err = saveChart(path, all[i])
		if err != nil {
			return paths, err
		}

		paths = append(paths, path)
	}

	return paths, nil
}

func saveChart(path string, line *charts.Line) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, plotFileMode)
	if err != nil {
		return fmt.Errorf("create plot: %w", err)
	}

	err = line.Render(f)
	if err != nil {
		f.Close()

		return fmt.Errorf("render plot %s: %w", filepath.Base(path), err)
	}

	return f.Close()
}

func buildCharts(ser series.Series, res *fold.Result, o PlotOptions) ([3]*charts.Line, error) {
	var all [3]*charts.Line

	var err error

	all[0], err = InitChart(ser, o)
	if err != nil {
		return all, err
	}

	all[1], err = MergedChart(ser, res, o)
	if err != nil {
		return all, err
	}

	all[2], err = MergedNonlinearChart(ser, res, o)

	return all, err
}

// foldPoints maps each fold to its first point and appends the final point.
func foldPoints(ser series.Series, res *fold.Result) ([]plotPoint, error) {
	if ser.Len() == 0 {
		return nil, ErrEmptySeries
	}

	if res == nil || len(res.Folds) == 0 {
		return nil, ErrNoFolds
	}

	points := make([]plotPoint, 0, len(res.Folds)+1)

	for _, f := range res.Folds {
		if f.FirstPoint < 0 || f.LastPoint >= ser.Len() || f.FirstPoint > f.LastPoint {
			return nil, fmt.Errorf("%w: points %d..%d of %d", ErrFoldRange, f.FirstPoint, f.LastPoint, ser.Len())
		}

		points = append(points, plotPoint{
			index: f.FirstPoint,
			label: ser.Label(f.FirstPoint),
			value: ser.Values[f.FirstPoint],
		})
	}

	last := res.Folds[len(res.Folds)-1].LastPoint
	points = append(points, plotPoint{index: last, label: ser.Label(last), value: ser.Values[last]})

	return points, nil
}

// newLine returns a line chart with the y axis fitted to the whole series.
func newLine(ser series.Series, o PlotOptions, title, sub string) *charts.Line {
	c := newChartOpts(o.Theme)
	start, end, gap := AxisParams(floats.Min(ser.Values), floats.Max(ser.Values))

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(c.init(o.Width, o.Height)),
		charts.WithTitleOpts(c.title(title, sub)),
		charts.WithTooltipOpts(c.tooltip()),
		charts.WithDataZoomOpts(c.dataZoom()...),
		charts.WithYAxisOpts(c.yAxis("Value", start, end, gap)),
	)

	return line
}

// addAxisSeries adds points on a time axis when every label parses with
// o.Layout, and on a value axis of point indices otherwise.
func addAxisSeries(line *charts.Line, ser series.Series, o PlotOptions, name string, points []plotPoint, color string) {
	c := newChartOpts(o.Theme)
	timed := labelsParse(ser, o.Layout)

	kind := "value"
	if timed {
		kind = "time"
	}

	line.SetGlobalOptions(charts.WithXAxisOpts(c.xAxis("Date", kind)))

	data := make([]opts.LineData, len(points))

	for i, p := range points {
		var x any = p.index
		if timed {
			x = p.label
		}

		data[i] = opts.LineData{Value: []any{x, p.value}}
	}

	line.AddSeries(name, data, lineStyle(color)...)
}

func lineStyle(color string) []charts.SeriesOpts {
	return []charts.SeriesOpts{
		charts.WithItemStyleOpts(opts.ItemStyle{Color: color}),
		charts.WithLineStyleOpts(opts.LineStyle{Color: color, Width: lineWidth}),
	}
}

func labelsParse(ser series.Series, layout string) bool {
	if len(ser.Labels) != ser.Len() {
		return false
	}

	for _, l := range ser.Labels {
		_, err := time.Parse(layout, l)
		if err != nil {
			return false
		}
	}

	return true
}

func subtitle(res *fold.Result) string {
	return res.Series + " · " + res.Method + "/" + res.Direction + " · " +
		strconv.Itoa(len(res.Folds)) + " folds"
}
