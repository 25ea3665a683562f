package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/Sumatoshi-tech/tsfold/pkg/fold"
)

const defaultPreview = 6

// SummaryOptions configures WriteSummary.
type SummaryOptions struct {
	// MaxValues caps the values shown per fold; 0 means 6, negative shows all.
	MaxValues int
	// NoColor disables ANSI colours.
	NoColor bool
}

// Stats summarises fold widths and lengths of a result.
type Stats struct {
	Folds      int     `json:"folds"       yaml:"folds"`
	MeanPoints float64 `json:"mean_points" yaml:"mean_points"`
	MinPoints  float64 `json:"min_points"  yaml:"min_points"`
	MaxPoints  float64 `json:"max_points"  yaml:"max_points"`
	MeanLength float64 `json:"mean_length" yaml:"mean_length"`
	// Compression is points per fold.
	Compression float64 `json:"compression" yaml:"compression"`
}

// Summarize computes Stats for res. A result without folds gives zero Stats.
func Summarize(res *fold.Result) Stats {
	if res == nil || len(res.Folds) == 0 {
		return Stats{}
	}

	widths := make([]float64, len(res.Folds))
	lengths := make([]float64, len(res.Folds))

	for i, f := range res.Folds {
		widths[i] = float64(f.LastPoint - f.FirstPoint + 1)
		lengths[i] = f.Length
	}

	return Stats{
		Folds:       len(res.Folds),
		MeanPoints:  stat.Mean(widths, nil),
		MinPoints:   floats.Min(widths),
		MaxPoints:   floats.Max(widths),
		MeanLength:  stat.Mean(lengths, nil),
		Compression: float64(res.Points) / float64(len(res.Folds)),
	}
}

// WriteSummary writes a coloured headline and a table of folds.
func WriteSummary(w io.Writer, res *fold.Result, o SummaryOptions) error {
	if res == nil {
		return ErrNoFolds
	}

	head := color.New(color.FgCyan, color.Bold)
	muted := color.New(color.FgHiBlack)

	if o.NoColor {
		head.DisableColor()
		muted.DisableColor()
	}

	st := Summarize(res)

	_, err := head.Fprintf(w, "%s: %s points folded into %s intervals (%s/%s, %s)\n",
		res.Series, humanize.Comma(int64(res.Points)), humanize.Comma(int64(st.Folds)),
		res.Method, res.Direction, res.Selector)
	if err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	_, err = muted.Fprintf(w, "total length %.4f (unsplit %.4f), %s merges, %.1f points per fold, took %s\n",
		res.TotalLength, res.RootLength, humanize.Comma(int64(res.Merges)), st.Compression,
		res.Duration.Round(time.Microsecond))
	if err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	_, err = io.WriteString(w, foldTable(res, o.MaxValues)+"\n")
	if err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	return nil
}

func foldTable(res *fold.Result, maxValues int) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.DrawBorder = false

	tbl.AppendHeader(table.Row{"#", "start", "end", "leaves", "points", "length", "values"})

	for i, f := range res.Folds {
		tbl.AppendRow(table.Row{
			i,
			f.Start,
			f.End,
			fmt.Sprintf("%d..%d", f.FirstLeaf, f.LastLeaf),
			f.LastPoint - f.FirstPoint + 1,
			strconv.FormatFloat(f.Length, 'f', 4, 64),
			preview(f.Values, maxValues),
		})
	}

	tbl.AppendFooter(table.Row{"", "", "", "", "total", strconv.FormatFloat(res.TotalLength, 'f', 4, 64), ""})

	return tbl.Render()
}

func preview(values []float64, limit int) string {
	if limit == 0 {
		limit = defaultPreview
	}

	shown := values
	if limit > 0 && len(values) > limit {
		shown = values[:limit]
	}

	parts := make([]string, len(shown))
	for i, v := range shown {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}

	out := strings.Join(parts, " ")
	if len(shown) < len(values) {
		out += fmt.Sprintf(" …+%d", len(values)-len(shown))
	}

	return out
}
