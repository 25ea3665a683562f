package render

import (
	"fmt"
	"strings"

	"github.com/go-echarts/go-echarts/v2/opts"
)

// Theme is a colour theme for plots.
type Theme string

const (
	// ThemeLight is the light colour theme.
	ThemeLight Theme = "light"
	// ThemeDark is the dark colour theme.
	ThemeDark Theme = "dark"
)

// ThemeConfig holds the chart colours of a theme.
type ThemeConfig struct {
	Background string
	Grid       string
	Axis       string
	Text       string
	TextMuted  string

	// RawLine colours the input series, FoldLine the folded one.
	RawLine  string
	FoldLine string
}

var lightTheme = ThemeConfig{
	Background: "#ffffff",
	Grid:       "#e7e5e4", // stone-200.
	Axis:       "#a8a29e", // stone-400.
	Text:       "#44403c", // stone-700.
	TextMuted:  "#78716c", // stone-500.
	RawLine:    "#15803d", // green-700.
	FoldLine:   "#1d4ed8", // blue-700.
}

var darkTheme = ThemeConfig{
	Background: "#1c1917", // stone-900.
	Grid:       "#44403c", // stone-700.
	Axis:       "#57534e", // stone-600.
	Text:       "#d6d3d1", // stone-300.
	TextMuted:  "#a8a29e", // stone-400.
	RawLine:    "#4ade80", // green-400.
	FoldLine:   "#60a5fa", // blue-400.
}

// ParseTheme resolves a theme name; the empty name is ThemeLight.
func ParseTheme(name string) (Theme, error) {
	switch Theme(strings.ToLower(strings.TrimSpace(name))) {
	case ThemeLight, "":
		return ThemeLight, nil
	case ThemeDark:
		return ThemeDark, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTheme, name)
	}
}

// Config returns the colours of t. Unknown themes fall back to light.
func (t Theme) Config() ThemeConfig {
	if t == ThemeDark {
		return darkTheme
	}

	return lightTheme
}

// chartOpts builds themed go-echarts options.
type chartOpts struct {
	theme ThemeConfig
}

func newChartOpts(t Theme) chartOpts {
	return chartOpts{theme: t.Config()}
}

func (c chartOpts) init(width, height string) opts.Initialization {
	return opts.Initialization{
		Width:           width,
		Height:          height,
		BackgroundColor: c.theme.Background,
	}
}

func (c chartOpts) title(title, subtitle string) opts.Title {
	return opts.Title{
		Title:         title,
		Subtitle:      subtitle,
		Left:          "center",
		TitleStyle:    &opts.TextStyle{Color: c.theme.Text},
		SubtitleStyle: &opts.TextStyle{Color: c.theme.TextMuted},
	}
}

func (c chartOpts) xAxis(name, kind string) opts.XAxis {
	return opts.XAxis{
		Name:      name,
		Type:      kind,
		AxisLabel: &opts.AxisLabel{Color: c.theme.TextMuted},
		AxisLine:  &opts.AxisLine{LineStyle: &opts.LineStyle{Color: c.theme.Axis}},
	}
}

// yAxis pins the axis to [start, end] with one split line per gap.
func (c chartOpts) yAxis(name string, start, end, gap float64) opts.YAxis {
	return opts.YAxis{
		Name:        name,
		Type:        "value",
		Min:         start,
		Max:         end,
		MinInterval: gap,
		MaxInterval: gap,
		AxisLabel:   &opts.AxisLabel{Color: c.theme.TextMuted},
		AxisLine:    &opts.AxisLine{LineStyle: &opts.LineStyle{Color: c.theme.Axis}},
		SplitLine: &opts.SplitLine{
			Show:      opts.Bool(true),
			LineStyle: &opts.LineStyle{Color: c.theme.Grid},
		},
	}
}

func (c chartOpts) tooltip() opts.Tooltip {
	return opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}
}

func (c chartOpts) dataZoom() []opts.DataZoom {
	return []opts.DataZoom{
		{Type: "slider", Start: 0, End: dataZoomEnd},
		{Type: "inside"},
	}
}
